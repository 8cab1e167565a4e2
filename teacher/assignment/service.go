// Package assignment implements teacher assignments: creation with exercise
// links, fan-out of per-student submissions to classrooms and students,
// submission and grading.
package assignment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/audit"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/classroom"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxTitleLen    = 200
	MaxTotalPoints = 1000
)

var assignmentTypes = map[string]bool{
	model.AssignmentPractice: true,
	model.AssignmentHomework: true,
	model.AssignmentQuiz:     true,
	model.AssignmentExam:     true,
	model.AssignmentProject:  true,
}

// CreateInput describes a new assignment.
type CreateInput struct {
	Title       string
	Description string
	Type        string
	DueDate     *time.Time
	TotalPoints int
	ExerciseIDs []string
}

// Detail is an assignment with its exercises and targeted classrooms.
type Detail struct {
	model.Assignment
	ExerciseIDs  []string `json:"exercise_ids"`
	ClassroomIDs []string `json:"classroom_ids"`
}

// Assigned counts the targets named in an AssignTo call.
type Assigned struct {
	Classrooms int `json:"classrooms"`
	Students   int `json:"students"`
}

// AssignResult reports a fan-out. Submissions is the number of distinct
// students targeted; Created is how many of them got a new submission row.
type AssignResult struct {
	Assigned    Assigned `json:"assigned"`
	Submissions int      `json:"submissions"`
	Created     int      `json:"created"`
}

// SubmissionView is a submission with the student's profile and grade.
type SubmissionView struct {
	model.AssignmentSubmission
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Percentage  *float64 `json:"percentage" gorm:"-"`
	LetterGrade string   `json:"letter_grade,omitempty" gorm:"-"`
}

// StudentAssignment is a published assignment seen by one of its students.
type StudentAssignment struct {
	model.AssignmentSubmission
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	DueDate     *time.Time `json:"due_date"`
	TotalPoints int        `json:"total_points"`
}

// GradeResult is a graded submission.
type GradeResult struct {
	Submission  *model.AssignmentSubmission `json:"submission"`
	Percentage  float64                     `json:"percentage"`
	LetterGrade string                      `json:"letter_grade"`
}

var (
	errNotFound           = apperr.NotFound(apperr.CodeAssignmentNotFound, "assignment not found")
	errSubmissionNotFound = apperr.NotFound(apperr.CodeSubmissionNotFound, "submission not found")
	errNotOwner           = apperr.Forbidden(apperr.CodeForbidden, "assignment belongs to another teacher")
)

// Service is the Assignment Fan-out Engine.
type Service struct {
	db         *gorm.DB
	repo       *repository
	classrooms *classroom.Service
	notifier   notification.Notifier
	audit      audit.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates an assignment Service. notifier and recorder may be nil.
func NewService(db *gorm.DB, classrooms *classroom.Service, notifier notification.Notifier, recorder audit.Recorder, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		repo:       &repository{db: db},
		classrooms: classrooms,
		notifier:   notifier,
		audit:      recorder,
		logger:     logger,
		now:        time.Now,
	}
}

func (svc *Service) fail(op string, err error, fields ...zap.Field) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	svc.logger.Error("assignment: "+op, append(fields, zap.Error(err))...)
	return apperr.Internal(err)
}

func (svc *Service) record(ctx context.Context, actorID, action, targetType, targetID string, req any) {
	if svc.audit != nil {
		svc.audit.Log(ctx, audit.Entry{ActorID: actorID, Action: action, TargetType: targetType, TargetID: targetID, Request: req})
	}
}

func (svc *Service) notify(ctx context.Context, userID, kind, title, message string, data any) {
	if svc.notifier != nil {
		svc.notifier.Notify(ctx, userID, kind, title, message, data)
	}
}

// owned loads an assignment and checks it belongs to teacherID.
func (svc *Service) owned(ctx context.Context, id, teacherID string) (*model.Assignment, error) {
	a, err := svc.repo.assignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errNotFound
	}
	if a.TeacherID != teacherID {
		return nil, errNotOwner
	}
	return a, nil
}

func (in *CreateInput) validate(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.ExerciseIDs = classroom.Dedupe(in.ExerciseIDs)
	switch {
	case in.Title == "" || len(in.Title) > MaxTitleLen:
		return apperr.Validation(apperr.CodeValidation, "title must be 1 to 200 characters")
	case !assignmentTypes[in.Type]:
		return apperr.Validation(apperr.CodeValidation, "unknown assignment type")
	case in.TotalPoints <= 0 || in.TotalPoints > MaxTotalPoints:
		return apperr.Validation(apperr.CodeValidation, "total points must be between 1 and 1000")
	case in.DueDate != nil && !in.DueDate.After(now):
		return apperr.Validation(apperr.CodeValidation, "due date must be in the future")
	case len(in.ExerciseIDs) == 0:
		return apperr.Validation(apperr.CodeValidation, "at least one exercise is required")
	}
	return nil
}

// VerifyExercises returns the ids that do not name an existing exercise.
func (svc *Service) VerifyExercises(ctx context.Context, ids []string) ([]string, error) {
	found, err := svc.repo.knownExercises(ctx, ids)
	if err != nil {
		return nil, svc.fail("verify exercises", err)
	}
	return classroom.Missing(ids, found), nil
}

// CreateAssignment stores an unpublished assignment with its exercise links.
// Unknown exercise ids reject the whole assignment.
func (svc *Service) CreateAssignment(ctx context.Context, teacherID string, in CreateInput) (*Detail, error) {
	if err := in.validate(svc.now()); err != nil {
		return nil, err
	}
	a := &model.Assignment{
		TeacherID:   teacherID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		DueDate:     in.DueDate,
		TotalPoints: in.TotalPoints,
		IsPublished: false,
	}
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		found, err := svc.repo.knownExercises(txCtx, in.ExerciseIDs)
		if err != nil {
			return err
		}
		if missing := classroom.Missing(in.ExerciseIDs, found); len(missing) > 0 {
			return apperr.Validation(apperr.CodeUnknownExercises, "unknown exercises: "+strings.Join(missing, ", "))
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		links := make([]model.AssignmentExercise, len(in.ExerciseIDs))
		for i, id := range in.ExerciseIDs {
			links[i] = model.AssignmentExercise{AssignmentID: a.ID, ExerciseID: id, OrderIndex: i}
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		return nil, svc.fail("create", err, zap.String("teacher_id", teacherID))
	}
	svc.record(ctx, teacherID, "assignment.create", "assignment", a.ID, map[string]any{"exercises": len(in.ExerciseIDs)})
	return &Detail{Assignment: *a, ExerciseIDs: in.ExerciseIDs, ClassroomIDs: []string{}}, nil
}

// GetAssignment returns an assignment of teacherID with its links.
func (svc *Service) GetAssignment(ctx context.Context, id, teacherID string) (*Detail, error) {
	a, err := svc.owned(ctx, id, teacherID)
	if err != nil {
		return nil, svc.fail("get", err, zap.String("assignment_id", id))
	}
	d := &Detail{Assignment: *a}
	if d.ExerciseIDs, err = svc.repo.exerciseIDs(ctx, id); err != nil {
		return nil, svc.fail("get exercises", err, zap.String("assignment_id", id))
	}
	if d.ClassroomIDs, err = svc.repo.classroomIDs(ctx, id); err != nil {
		return nil, svc.fail("get classrooms", err, zap.String("assignment_id", id))
	}
	return d, nil
}

// ListAssignments returns teacherID's assignments, newest first.
func (svc *Service) ListAssignments(ctx context.Context, teacherID string) ([]model.Assignment, error) {
	var out []model.Assignment
	err := dbadapter.Conn(ctx, svc.db).Where("teacher_id = ?", teacherID).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, svc.fail("list", err, zap.String("teacher_id", teacherID))
	}
	return out, nil
}

// Publish makes the assignment visible to its students. Publishing twice is
// a no-op.
func (svc *Service) Publish(ctx context.Context, id, teacherID string) (*model.Assignment, error) {
	a, err := svc.owned(ctx, id, teacherID)
	if err != nil {
		return nil, svc.fail("publish", err, zap.String("assignment_id", id))
	}
	if a.IsPublished {
		return a, nil
	}
	err = dbadapter.Conn(ctx, svc.db).Model(&model.Assignment{}).Where("id = ?", id).Update("is_published", true).Error
	if err != nil {
		return nil, svc.fail("publish", err, zap.String("assignment_id", id))
	}
	a.IsPublished = true
	svc.record(ctx, teacherID, "assignment.publish", "assignment", id, nil)
	return a, nil
}

// AssignTo targets the assignment at classrooms and individual students and
// makes sure every targeted student has exactly one submission row. Calling
// it again with overlapping targets creates nothing twice.
func (svc *Service) AssignTo(ctx context.Context, id, teacherID string, classroomIDs, studentIDs []string) (*AssignResult, error) {
	classroomIDs = classroom.Dedupe(classroomIDs)
	studentIDs = classroom.Dedupe(studentIDs)
	if len(classroomIDs) == 0 && len(studentIDs) == 0 {
		return nil, apperr.Validation(apperr.CodeValidation, "at least one classroom or student is required")
	}

	var (
		a       *model.Assignment
		fresh   []string
		targets []string
	)
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		var err error
		if a, err = svc.owned(txCtx, id, teacherID); err != nil {
			return err
		}
		enrolled, err := svc.classrooms.ResolveStudents(txCtx, teacherID, classroomIDs)
		if err != nil {
			return err
		}
		if err := classroom.RequireStudents(txCtx, svc.db, studentIDs); err != nil {
			return err
		}
		if err := svc.repo.linkClassrooms(txCtx, id, classroomIDs); err != nil {
			return err
		}
		if err := svc.repo.linkStudents(txCtx, id, studentIDs); err != nil {
			return err
		}
		targets = classroom.Dedupe(append(enrolled, studentIDs...))
		existing, err := svc.repo.submittedStudents(txCtx, id, targets)
		if err != nil {
			return err
		}
		fresh = classroom.Missing(targets, existing)
		return svc.repo.ensureSubmissions(txCtx, id, fresh)
	})
	if err != nil {
		return nil, svc.fail("assign", err, zap.String("assignment_id", id))
	}

	res := &AssignResult{
		Assigned:    Assigned{Classrooms: len(classroomIDs), Students: len(studentIDs)},
		Submissions: len(targets),
		Created:     len(fresh),
	}
	svc.record(ctx, teacherID, "assignment.assign", "assignment", id, map[string]any{
		"classroom_ids": classroomIDs, "student_ids": studentIDs, "created": res.Created,
	})
	for _, sid := range fresh {
		svc.notify(ctx, sid, model.NotifyAssignment, "New assignment", a.Title,
			map[string]string{"assignment_id": id})
	}
	return res, nil
}

// ListSubmissions returns every submission of an assignment of teacherID.
func (svc *Service) ListSubmissions(ctx context.Context, id, teacherID string) ([]SubmissionView, error) {
	a, err := svc.owned(ctx, id, teacherID)
	if err != nil {
		return nil, svc.fail("list submissions", err, zap.String("assignment_id", id))
	}
	rows, err := svc.repo.submissions(ctx, id)
	if err != nil {
		return nil, svc.fail("list submissions", err, zap.String("assignment_id", id))
	}
	for i := range rows {
		if s := rows[i].Score; s != nil {
			pct := Percentage(*s, a.TotalPoints)
			rows[i].Percentage = &pct
			rows[i].LetterGrade = LetterGrade(pct)
		}
	}
	return rows, nil
}

// ListForStudent returns the published assignments handed to studentID.
func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]StudentAssignment, error) {
	rows, err := svc.repo.studentWork(ctx, studentID)
	if err != nil {
		return nil, svc.fail("list for student", err, zap.String("student_id", studentID))
	}
	return rows, nil
}

// Submit moves studentID's submission from not_started to submitted.
func (svc *Service) Submit(ctx context.Context, submissionID, studentID string) (*model.AssignmentSubmission, error) {
	var s *model.AssignmentSubmission
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		var err error
		if s, err = svc.repo.submission(txCtx, submissionID, true); err != nil {
			return err
		}
		if s == nil || s.StudentID != studentID {
			return errSubmissionNotFound
		}
		a, err := svc.repo.assignment(txCtx, s.AssignmentID)
		if err != nil {
			return err
		}
		if a == nil || !a.IsPublished {
			return apperr.Conflict(apperr.CodeNotPublished, "assignment is not published")
		}
		if s.Status != model.SubmissionNotStarted {
			return apperr.Conflict(apperr.CodeAlreadySubmitted, "submission already handed in")
		}
		now := svc.now()
		s.Status, s.SubmittedAt = model.SubmissionSubmitted, &now
		return tx.Model(&model.AssignmentSubmission{}).Where("id = ?", s.ID).
			Updates(map[string]any{"status": s.Status, "submitted_at": now}).Error
	})
	if err != nil {
		return nil, svc.fail("submit", err, zap.String("submission_id", submissionID))
	}
	return s, nil
}

// GradeSubmission scores a submission of an assignment owned by graderID.
// Score must lie within 0 and the assignment's total points.
func (svc *Service) GradeSubmission(ctx context.Context, assignmentID, submissionID, graderID string, score float64, feedback *string) (*GradeResult, error) {
	var (
		a *model.Assignment
		s *model.AssignmentSubmission
	)
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		var err error
		if a, err = svc.owned(txCtx, assignmentID, graderID); err != nil {
			return err
		}
		if s, err = svc.repo.submission(txCtx, submissionID, true); err != nil {
			return err
		}
		if s == nil || s.AssignmentID != assignmentID {
			return errSubmissionNotFound
		}
		if score < 0 || score > float64(a.TotalPoints) {
			return apperr.Validation(apperr.CodeScoreOutOfRange, "score must be between 0 and the assignment's total points")
		}
		now := svc.now()
		if err := svc.repo.grade(txCtx, s.ID, score, feedback, graderID, now); err != nil {
			return err
		}
		s.Score, s.Feedback, s.GradedBy, s.GradedAt, s.Status = &score, feedback, &graderID, &now, model.SubmissionGraded
		return nil
	})
	if err != nil {
		return nil, svc.fail("grade", err, zap.String("submission_id", submissionID))
	}

	pct := Percentage(score, a.TotalPoints)
	res := &GradeResult{Submission: s, Percentage: pct, LetterGrade: LetterGrade(pct)}
	svc.record(ctx, graderID, "assignment.grade", "submission", s.ID, map[string]any{"score": score})
	svc.notify(ctx, s.StudentID, model.NotifyGraded, "Assignment graded",
		a.Title+": "+res.LetterGrade, map[string]any{"assignment_id": a.ID, "percentage": pct})
	return res, nil
}

// DeleteAssignment removes the assignment with its links and submissions.
func (svc *Service) DeleteAssignment(ctx context.Context, id, teacherID string) error {
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		if _, err := svc.owned(txCtx, id, teacherID); err != nil {
			return err
		}
		return svc.repo.deleteCascade(txCtx, id)
	})
	if err != nil {
		return svc.fail("delete", err, zap.String("assignment_id", id))
	}
	svc.record(ctx, teacherID, "assignment.delete", "assignment", id, nil)
	return nil
}
