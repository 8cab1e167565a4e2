package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/classroom"
)

// TeacherHandler exposes classrooms and assignments.
type TeacherHandler struct {
	classrooms  *classroom.Service
	assignments *assignment.Service
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(classrooms *classroom.Service, assignments *assignment.Service) *TeacherHandler {
	return &TeacherHandler{classrooms: classrooms, assignments: assignments}
}

type createClassroomRequest struct {
	Name       string `json:"name"       binding:"required,max=100"`
	Subject    string `json:"subject"    binding:"max=64"`
	GradeLevel string `json:"gradeLevel" binding:"max=16"`
}

type studentsRequest struct {
	StudentIDs []string `json:"studentIds" binding:"required,min=1,dive,uuid"`
}

type createAssignmentRequest struct {
	Title       string     `json:"title"       binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Type        string     `json:"type"        binding:"required,oneof=practice homework quiz exam project"`
	DueDate     *time.Time `json:"dueDate"`
	TotalPoints int        `json:"totalPoints" binding:"required,min=1,max=1000"`
	ExerciseIDs []string   `json:"exerciseIds" binding:"required,min=1,dive,required"`
}

type assignRequest struct {
	ClassroomIDs []string `json:"classroomIds" binding:"dive,uuid"`
	StudentIDs   []string `json:"studentIds"   binding:"dive,uuid"`
}

type gradeRequest struct {
	Score    *float64 `json:"score"    binding:"required"`
	Feedback *string  `json:"feedback" binding:"omitempty,max=5000"`
}

// CreateClassroom handles POST /api/teacher/classrooms.
func (h *TeacherHandler) CreateClassroom(c *gin.Context) {
	var req createClassroomRequest
	if !bind(c, &req) {
		return
	}
	cl, err := h.classrooms.CreateClassroom(requestCtx(c), mw.GetUserID(c), classroom.CreateInput{
		Name: req.Name, Subject: req.Subject, GradeLevel: req.GradeLevel,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, cl)
}

// ListClassrooms handles GET /api/teacher/classrooms.
func (h *TeacherHandler) ListClassrooms(c *gin.Context) {
	out, err := h.classrooms.ListClassrooms(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// AddStudents handles POST /api/teacher/classrooms/:id/students.
func (h *TeacherHandler) AddStudents(c *gin.Context) {
	var req studentsRequest
	if !bind(c, &req) {
		return
	}
	added, err := h.classrooms.AddStudents(requestCtx(c), c.Param("id"), mw.GetUserID(c), req.StudentIDs)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"added": added})
}

// ListStudents handles GET /api/teacher/classrooms/:id/students.
func (h *TeacherHandler) ListStudents(c *gin.Context) {
	out, err := h.classrooms.ListStudents(c.Request.Context(), c.Param("id"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// RemoveStudent handles DELETE /api/teacher/classrooms/:id/students/:studentId.
func (h *TeacherHandler) RemoveStudent(c *gin.Context) {
	err := h.classrooms.RemoveStudent(requestCtx(c), c.Param("id"), mw.GetUserID(c), c.Param("studentId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "student removed"})
}

// CreateAssignment handles POST /api/teacher/assignments.
func (h *TeacherHandler) CreateAssignment(c *gin.Context) {
	var req createAssignmentRequest
	if !bind(c, &req) {
		return
	}
	d, err := h.assignments.CreateAssignment(requestCtx(c), mw.GetUserID(c), assignment.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		DueDate:     req.DueDate,
		TotalPoints: req.TotalPoints,
		ExerciseIDs: req.ExerciseIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("assignment", "create")
	created(c, d)
}

// ListAssignments handles GET /api/teacher/assignments.
func (h *TeacherHandler) ListAssignments(c *gin.Context) {
	out, err := h.assignments.ListAssignments(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// GetAssignment handles GET /api/teacher/assignments/:id.
func (h *TeacherHandler) GetAssignment(c *gin.Context) {
	d, err := h.assignments.GetAssignment(c.Request.Context(), c.Param("id"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, d)
}

// Publish handles POST /api/teacher/assignments/:id/publish.
func (h *TeacherHandler) Publish(c *gin.Context) {
	a, err := h.assignments.Publish(requestCtx(c), c.Param("id"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

// Assign handles POST /api/teacher/assignments/:id/assign.
func (h *TeacherHandler) Assign(c *gin.Context) {
	var req assignRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.assignments.AssignTo(requestCtx(c), c.Param("id"), mw.GetUserID(c), req.ClassroomIDs, req.StudentIDs)
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("assignment", "assign")
	ok(c, res)
}

// Submissions handles GET /api/teacher/assignments/:id/submissions.
func (h *TeacherHandler) Submissions(c *gin.Context) {
	out, err := h.assignments.ListSubmissions(c.Request.Context(), c.Param("id"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Grade handles POST /api/teacher/assignments/:id/submissions/:submissionId/grade.
func (h *TeacherHandler) Grade(c *gin.Context) {
	var req gradeRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.assignments.GradeSubmission(requestCtx(c), c.Param("id"), c.Param("submissionId"),
		mw.GetUserID(c), *req.Score, req.Feedback)
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("assignment", "grade")
	ok(c, res)
}

// DeleteAssignment handles DELETE /api/teacher/assignments/:id.
func (h *TeacherHandler) DeleteAssignment(c *gin.Context) {
	if err := h.assignments.DeleteAssignment(requestCtx(c), c.Param("id"), mw.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "assignment deleted"})
}

// MyAssignments handles GET /api/assignments for the calling student.
func (h *TeacherHandler) MyAssignments(c *gin.Context) {
	out, err := h.assignments.ListForStudent(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Submit handles POST /api/assignments/submissions/:submissionId/submit.
func (h *TeacherHandler) Submit(c *gin.Context) {
	s, err := h.assignments.Submit(requestCtx(c), c.Param("submissionId"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("assignment", "submit")
	ok(c, s)
}
