package model

import "time"

// Classroom is a teacher's group of enrolled students.
type Classroom struct {
	Base
	TeacherID  string    `gorm:"size:36;not null;index" json:"teacher_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Subject    string    `gorm:"size:64" json:"subject"`
	GradeLevel string    `gorm:"size:16" json:"grade_level"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Teacher *User `gorm:"foreignKey:TeacherID" json:"-"`
}

// Enrollment statuses.
const (
	EnrollmentActive  = "active"
	EnrollmentDropped = "dropped"
)

// ClassroomStudent enrolls a student in a classroom.
type ClassroomStudent struct {
	ClassroomID string    `gorm:"primaryKey;size:36" json:"classroom_id"`
	StudentID   string    `gorm:"primaryKey;size:36;index" json:"student_id"`
	Status      string    `gorm:"size:16;not null" json:"status"`
	EnrolledAt  time.Time `gorm:"autoCreateTime" json:"enrolled_at"`

	Classroom *Classroom `gorm:"foreignKey:ClassroomID" json:"-"`
	Student   *User      `gorm:"foreignKey:StudentID" json:"-"`
}

// Exercise is a gradable learning activity an assignment can reference.
type Exercise struct {
	Base
	Title      string    `gorm:"size:200;not null" json:"title"`
	Type       string    `gorm:"size:32;not null" json:"type"`
	Difficulty string    `gorm:"size:16" json:"difficulty"`
	XPReward   int       `gorm:"not null;default:0" json:"xp_reward"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
