package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	teacher := ts.Register(t, model.RoleTeacher)
	students := []*Account{
		ts.Register(t, model.RoleStudent),
		ts.Register(t, model.RoleStudent),
		ts.Register(t, model.RoleStudent),
	}

	exercises := []string{}
	for _, title := range []string{"Fractions", "Decimals"} {
		e := &model.Exercise{Title: title, Type: "quiz"}
		require.NoError(t, ts.DB.Create(e).Error)
		exercises = append(exercises, e.ID)
	}

	resp := ts.PostJSON(t, "/api/teacher/classrooms", map[string]string{"name": "Grade 5", "subject": "math"}, teacher.Token)
	require.Equal(t, http.StatusCreated, resp.Status)
	var room model.Classroom
	resp.Into(t, &room)

	ids := []string{students[0].ID, students[1].ID, students[2].ID}
	resp = ts.PostJSON(t, "/api/teacher/classrooms/"+room.ID+"/students", map[string]any{"studentIds": ids}, teacher.Token)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = ts.PostJSON(t, "/api/teacher/assignments", map[string]any{
		"title":       "Practice set",
		"type":        "practice",
		"dueDate":     time.Now().Add(72 * time.Hour),
		"totalPoints": 100,
		"exerciseIds": exercises,
	}, teacher.Token)
	require.Equal(t, http.StatusCreated, resp.Status)
	var a assignment.Detail
	resp.Into(t, &a)
	assert.Equal(t, exercises, a.ExerciseIDs)

	streams := make([]*Stream, len(students))
	for i, s := range students {
		streams[i] = ts.Listen(t, s.Token)
	}

	resp = ts.PostJSON(t, "/api/teacher/assignments/"+a.ID+"/assign", map[string]any{
		"classroomIds": []string{room.ID},
		"studentIds":   []string{students[0].ID},
	}, teacher.Token)
	require.Equal(t, http.StatusOK, resp.Status)
	var res assignment.AssignResult
	resp.Into(t, &res)
	assert.Equal(t, 1, res.Assigned.Classrooms)
	assert.Equal(t, 1, res.Assigned.Students)
	assert.Equal(t, 3, res.Submissions)
	assert.Equal(t, 3, res.Created)

	for _, st := range streams {
		ev := st.Next(t, 2*time.Second)
		var n model.Notification
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &n))
		assert.Equal(t, model.NotifyAssignment, n.Type)
	}

	// Unpublished work cannot be handed in.
	var sub model.AssignmentSubmission
	require.NoError(t, ts.DB.Where("assignment_id = ? AND student_id = ?", a.ID, students[2].ID).First(&sub).Error)
	resp = ts.PostJSON(t, "/api/assignments/submissions/"+sub.ID+"/submit", nil, students[2].Token)
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = ts.PostJSON(t, "/api/teacher/assignments/"+a.ID+"/publish", nil, teacher.Token)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = ts.PostJSON(t, "/api/assignments/submissions/"+sub.ID+"/submit", nil, students[2].Token)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = ts.PostJSON(t, "/api/teacher/assignments/"+a.ID+"/submissions/"+sub.ID+"/grade",
		map[string]any{"score": 92.5, "feedback": "great"}, teacher.Token)
	require.Equal(t, http.StatusOK, resp.Status)
	var graded assignment.GradeResult
	resp.Into(t, &graded)
	assert.Equal(t, 92.5, graded.Percentage)
	assert.Equal(t, "A", graded.LetterGrade)

	ev := streams[2].Next(t, 2*time.Second)
	var n model.Notification
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &n))
	assert.Equal(t, model.NotifyGraded, n.Type)

	// Other teachers cannot read the roster.
	other := ts.Register(t, model.RoleTeacher)
	resp = ts.Get(t, "/api/teacher/assignments/"+a.ID+"/submissions", other.Token)
	assert.Equal(t, http.StatusForbidden, resp.Status)
}
