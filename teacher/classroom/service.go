// Package classroom manages a teacher's classrooms and their enrollments.
// Enrollments are the target set assignments fan out to.
package classroom

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateInput describes a new classroom.
type CreateInput struct {
	Name       string
	Subject    string
	GradeLevel string
}

// Summary is a classroom with its active enrollment count.
type Summary struct {
	model.Classroom
	StudentCount int64 `json:"student_count"`
}

// Student is an enrolled student with profile data.
type Student struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Status      string    `json:"status"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

var errNotFound = apperr.NotFound(apperr.CodeClassroomNotFound, "classroom not found")

// Service manages classrooms.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a classroom Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (svc *Service) fail(op string, err error, fields ...zap.Field) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	svc.logger.Error("classroom: "+op, append(fields, zap.Error(err))...)
	return apperr.Internal(err)
}

// owned loads an active classroom and checks it belongs to teacherID.
func (svc *Service) owned(ctx context.Context, classroomID, teacherID string) (*model.Classroom, error) {
	var c model.Classroom
	err := dbadapter.Conn(ctx, svc.db).Where("id = ? AND is_active = ?", classroomID, true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.TeacherID != teacherID {
		return nil, apperr.Forbidden(apperr.CodeForbidden, "classroom belongs to another teacher")
	}
	return &c, nil
}

// CreateClassroom creates an empty classroom owned by teacherID.
func (svc *Service) CreateClassroom(ctx context.Context, teacherID string, in CreateInput) (*model.Classroom, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || len(in.Name) > 100 {
		return nil, apperr.Validation(apperr.CodeValidation, "classroom name must be 1 to 100 characters")
	}
	c := &model.Classroom{
		TeacherID:  teacherID,
		Name:       in.Name,
		Subject:    strings.TrimSpace(in.Subject),
		GradeLevel: strings.TrimSpace(in.GradeLevel),
		IsActive:   true,
	}
	if err := dbadapter.Conn(ctx, svc.db).Create(c).Error; err != nil {
		return nil, svc.fail("create", err, zap.String("teacher_id", teacherID))
	}
	return c, nil
}

// ListClassrooms returns teacherID's active classrooms, newest first.
func (svc *Service) ListClassrooms(ctx context.Context, teacherID string) ([]Summary, error) {
	var out []Summary
	err := dbadapter.Conn(ctx, svc.db).Model(&model.Classroom{}).
		Select("classrooms.*, COUNT(classroom_students.student_id) AS student_count").
		Joins("LEFT JOIN classroom_students ON classroom_students.classroom_id = classrooms.id AND classroom_students.status = ?", model.EnrollmentActive).
		Where("classrooms.teacher_id = ? AND classrooms.is_active = ?", teacherID, true).
		Group("classrooms.id").
		Order("classrooms.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, svc.fail("list", err, zap.String("teacher_id", teacherID))
	}
	return out, nil
}

// AddStudents enrolls studentIDs in the classroom. Already enrolled students
// are left as they are and dropped ones are re-enrolled. It returns how many
// students were not actively enrolled before.
func (svc *Service) AddStudents(ctx context.Context, classroomID, teacherID string, studentIDs []string) (int, error) {
	ids := Dedupe(studentIDs)
	if len(ids) == 0 {
		return 0, apperr.Validation(apperr.CodeValidation, "at least one student id is required")
	}
	var added int
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		if _, err := svc.owned(txCtx, classroomID, teacherID); err != nil {
			return err
		}
		if err := RequireStudents(txCtx, svc.db, ids); err != nil {
			return err
		}
		var already int64
		err := tx.Model(&model.ClassroomStudent{}).
			Where("classroom_id = ? AND student_id IN ? AND status = ?", classroomID, ids, model.EnrollmentActive).
			Count(&already).Error
		if err != nil {
			return err
		}
		rows := make([]model.ClassroomStudent, len(ids))
		for i, id := range ids {
			rows[i] = model.ClassroomStudent{ClassroomID: classroomID, StudentID: id, Status: model.EnrollmentActive}
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "classroom_id"}, {Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]any{"status": model.EnrollmentActive}),
		}).Create(&rows).Error
		if err != nil {
			return err
		}
		added = len(ids) - int(already)
		return nil
	})
	if err != nil {
		return 0, svc.fail("add students", err, zap.String("classroom_id", classroomID))
	}
	return added, nil
}

// RemoveStudent drops an enrollment. The row is kept so history survives.
func (svc *Service) RemoveStudent(ctx context.Context, classroomID, teacherID, studentID string) error {
	if _, err := svc.owned(ctx, classroomID, teacherID); err != nil {
		return svc.fail("remove student", err, zap.String("classroom_id", classroomID))
	}
	res := dbadapter.Conn(ctx, svc.db).Model(&model.ClassroomStudent{}).
		Where("classroom_id = ? AND student_id = ? AND status = ?", classroomID, studentID, model.EnrollmentActive).
		Update("status", model.EnrollmentDropped)
	if res.Error != nil {
		return svc.fail("remove student", res.Error, zap.String("classroom_id", classroomID))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeNotFound, "student is not enrolled")
	}
	return nil
}

// ListStudents returns the active enrollments of a classroom owned by teacherID.
func (svc *Service) ListStudents(ctx context.Context, classroomID, teacherID string) ([]Student, error) {
	if _, err := svc.owned(ctx, classroomID, teacherID); err != nil {
		return nil, svc.fail("list students", err, zap.String("classroom_id", classroomID))
	}
	var out []Student
	err := dbadapter.Conn(ctx, svc.db).Model(&model.ClassroomStudent{}).
		Select("users.id AS user_id, users.username, users.display_name, users.avatar_url, classroom_students.status, classroom_students.enrolled_at").
		Joins("JOIN users ON users.id = classroom_students.student_id").
		Where("classroom_students.classroom_id = ? AND classroom_students.status = ?", classroomID, model.EnrollmentActive).
		Order("users.display_name").
		Scan(&out).Error
	if err != nil {
		return nil, svc.fail("list students", err, zap.String("classroom_id", classroomID))
	}
	return out, nil
}

// ResolveStudents checks every classroom belongs to teacherID and returns the
// distinct ids of their actively enrolled students. It runs inside the
// ambient transaction of ctx, if any.
func (svc *Service) ResolveStudents(ctx context.Context, teacherID string, classroomIDs []string) ([]string, error) {
	for _, id := range classroomIDs {
		if _, err := svc.owned(ctx, id, teacherID); err != nil {
			return nil, err
		}
	}
	if len(classroomIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := dbadapter.Conn(ctx, svc.db).Model(&model.ClassroomStudent{}).
		Distinct("student_id").
		Where("classroom_id IN ? AND status = ?", classroomIDs, model.EnrollmentActive).
		Order("student_id").
		Pluck("student_id", &ids).Error
	return ids, err
}

// RequireStudents fails with USER_NOT_FOUND unless every id is an active
// student account.
func RequireStudents(ctx context.Context, db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var found []string
	err := dbadapter.Conn(ctx, db).Model(&model.User{}).
		Where("id IN ? AND role = ? AND is_active = ?", ids, model.RoleStudent, true).
		Pluck("id", &found).Error
	if err != nil {
		return err
	}
	if missing := Missing(ids, found); len(missing) > 0 {
		return apperr.NotFound(apperr.CodeUserNotFound, "unknown students: "+strings.Join(missing, ", "))
	}
	return nil
}

// Missing returns the ids in want that are not in have, in want's order.
func Missing(want, have []string) []string {
	seen := make(map[string]struct{}, len(have))
	for _, id := range have {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range want {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Dedupe trims ids and drops blanks and repeats, keeping the first occurrence.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
