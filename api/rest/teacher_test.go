package rest_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherRoutesRequireTeacherRole(t *testing.T) {
	s := newServer(t)
	student := s.login(testutil.NewUser(t, s.db))

	res := s.do(http.MethodPost, "/api/teacher/classrooms", student, map[string]string{"name": "5A"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, apperr.CodeForbidden, res.ErrorCode())
}

func TestAssignmentFanOutScenario(t *testing.T) {
	s := newServer(t)
	teacher := testutil.NewUser(t, s.db, testutil.WithRole(model.RoleTeacher))
	tt := s.login(teacher)
	students := testutil.NewUsers(t, s.db, 3)

	exerciseIDs := make([]string, 2)
	for i := range exerciseIDs {
		e := &model.Exercise{Title: "Exercise", Type: "quiz"}
		require.NoError(t, s.db.Create(e).Error)
		exerciseIDs[i] = e.ID
	}

	res := s.do(http.MethodPost, "/api/teacher/classrooms", tt, map[string]string{"name": "Class C"})
	require.Equal(t, http.StatusCreated, res.Code)
	var c model.Classroom
	res.Decode(&c)

	ids := []string{students[0].ID, students[1].ID, students[2].ID}
	res = s.do(http.MethodPost, "/api/teacher/classrooms/"+c.ID+"/students", tt, map[string]any{"studentIds": ids})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodPost, "/api/teacher/assignments", tt, map[string]any{
		"title":       "Week 1",
		"type":        "homework",
		"dueDate":     time.Now().Add(48 * time.Hour),
		"totalPoints": 20,
		"exerciseIds": exerciseIDs,
	})
	require.Equal(t, http.StatusCreated, res.Code)
	var a assignment.Detail
	res.Decode(&a)
	assert.False(t, a.IsPublished)
	assert.Len(t, a.ExerciseIDs, 2)

	res = s.do(http.MethodPost, "/api/teacher/assignments/"+a.ID+"/assign", tt, map[string]any{"classroomIds": []string{c.ID}})
	require.Equal(t, http.StatusOK, res.Code)
	var assigned assignment.AssignResult
	res.Decode(&assigned)
	assert.Equal(t, 1, assigned.Assigned.Classrooms)
	assert.Equal(t, 3, assigned.Submissions)

	res = s.do(http.MethodGet, "/api/teacher/assignments/"+a.ID+"/submissions", tt, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var subs []assignment.SubmissionView
	res.Decode(&subs)
	require.Len(t, subs, 3)
	for _, sub := range subs {
		assert.Equal(t, model.SubmissionNotStarted, sub.Status)
	}

	grade := "/api/teacher/assignments/" + a.ID + "/submissions/" + subs[0].ID + "/grade"
	res = s.do(http.MethodPost, grade, tt, map[string]any{"score": 25})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, apperr.CodeScoreOutOfRange, res.ErrorCode())

	res = s.do(http.MethodPost, grade, tt, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(http.MethodPost, grade, tt, map[string]any{"score": 15, "feedback": "ok"})
	require.Equal(t, http.StatusOK, res.Code)
	var graded assignment.GradeResult
	res.Decode(&graded)
	assert.Equal(t, 75.0, graded.Percentage)
	assert.Equal(t, "C", graded.LetterGrade)

	// Students see the assignment once it is published and can hand it in.
	st := s.login(students[1])
	res = s.do(http.MethodPost, "/api/teacher/assignments/"+a.ID+"/publish", tt, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.do(http.MethodGet, "/api/assignments", st, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var work []assignment.StudentAssignment
	res.Decode(&work)
	require.Len(t, work, 1)
	res = s.do(http.MethodPost, "/api/assignments/submissions/"+work[0].ID+"/submit", st, nil)
	require.Equal(t, http.StatusOK, res.Code)
}
