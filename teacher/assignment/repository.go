package assignment

import (
	"context"
	"errors"
	"time"

	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return dbadapter.Conn(ctx, r.db)
}

// assignment returns the assignment by id, or nil.
func (r *repository) assignment(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.conn(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) exerciseIDs(ctx context.Context, assignmentID string) ([]string, error) {
	var ids []string
	err := r.conn(ctx).Model(&model.AssignmentExercise{}).
		Where("assignment_id = ?", assignmentID).
		Order("order_index").
		Pluck("exercise_id", &ids).Error
	return ids, err
}

func (r *repository) classroomIDs(ctx context.Context, assignmentID string) ([]string, error) {
	var ids []string
	err := r.conn(ctx).Model(&model.AssignmentClassroom{}).
		Where("assignment_id = ?", assignmentID).
		Order("assigned_at").
		Pluck("classroom_id", &ids).Error
	return ids, err
}

func (r *repository) knownExercises(ctx context.Context, ids []string) ([]string, error) {
	var found []string
	if len(ids) == 0 {
		return found, nil
	}
	err := r.conn(ctx).Model(&model.Exercise{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

// submittedStudents returns the students of ids that already have a
// submission row for the assignment.
func (r *repository) submittedStudents(ctx context.Context, assignmentID string, ids []string) ([]string, error) {
	var found []string
	if len(ids) == 0 {
		return found, nil
	}
	err := r.conn(ctx).Model(&model.AssignmentSubmission{}).
		Where("assignment_id = ? AND student_id IN ?", assignmentID, ids).
		Pluck("student_id", &found).Error
	return found, err
}

func (r *repository) linkClassrooms(ctx context.Context, assignmentID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]model.AssignmentClassroom, len(ids))
	for i, id := range ids {
		rows[i] = model.AssignmentClassroom{AssignmentID: assignmentID, ClassroomID: id}
	}
	return r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *repository) linkStudents(ctx context.Context, assignmentID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]model.AssignmentStudent, len(ids))
	for i, id := range ids {
		rows[i] = model.AssignmentStudent{AssignmentID: assignmentID, StudentID: id}
	}
	return r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// ensureSubmissions creates a not_started submission for every student that
// has none yet. The unique (assignment, student) index makes it idempotent.
func (r *repository) ensureSubmissions(ctx context.Context, assignmentID string, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	rows := make([]model.AssignmentSubmission, len(studentIDs))
	for i, id := range studentIDs {
		rows[i] = model.AssignmentSubmission{AssignmentID: assignmentID, StudentID: id, Status: model.SubmissionNotStarted}
	}
	return r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 200).Error
}

func (r *repository) submission(ctx context.Context, id string, lock bool) (*model.AssignmentSubmission, error) {
	q := r.conn(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s model.AssignmentSubmission
	err := q.Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) submissions(ctx context.Context, assignmentID string) ([]SubmissionView, error) {
	var out []SubmissionView
	err := r.conn(ctx).Model(&model.AssignmentSubmission{}).
		Select("assignment_submissions.*, users.username, users.display_name").
		Joins("JOIN users ON users.id = assignment_submissions.student_id").
		Where("assignment_submissions.assignment_id = ?", assignmentID).
		Order("users.display_name").
		Scan(&out).Error
	return out, err
}

func (r *repository) studentWork(ctx context.Context, studentID string) ([]StudentAssignment, error) {
	var out []StudentAssignment
	err := r.conn(ctx).Model(&model.AssignmentSubmission{}).
		Select("assignment_submissions.*, assignments.title, assignments.type, assignments.due_date, assignments.total_points").
		Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
		Where("assignment_submissions.student_id = ? AND assignments.is_published = ?", studentID, true).
		Order("assignments.due_date").
		Scan(&out).Error
	return out, err
}

func (r *repository) grade(ctx context.Context, id string, score float64, feedback *string, graderID string, now time.Time) error {
	return r.conn(ctx).Model(&model.AssignmentSubmission{}).Where("id = ?", id).
		Updates(map[string]any{
			"score":     score,
			"feedback":  feedback,
			"graded_by": graderID,
			"graded_at": now,
			"status":    model.SubmissionGraded,
		}).Error
}

// deleteCascade removes the assignment and every row that references it,
// children first.
func (r *repository) deleteCascade(ctx context.Context, id string) error {
	conn := r.conn(ctx)
	for _, m := range []any{
		&model.AssignmentExercise{},
		&model.AssignmentClassroom{},
		&model.AssignmentStudent{},
		&model.AssignmentSubmission{},
	} {
		if err := conn.Where("assignment_id = ?", id).Delete(m).Error; err != nil {
			return err
		}
	}
	return conn.Where("id = ?", id).Delete(&model.Assignment{}).Error
}
