package model

import "time"

// Assignment types.
const (
	AssignmentPractice = "practice"
	AssignmentHomework = "homework"
	AssignmentQuiz     = "quiz"
	AssignmentExam     = "exam"
	AssignmentProject  = "project"
)

// Assignment is a set of exercises a teacher hands out.
type Assignment struct {
	Base
	TeacherID   string     `gorm:"size:36;not null;index" json:"teacher_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Type        string     `gorm:"size:32;not null" json:"type"`
	DueDate     *time.Time `json:"due_date"`
	TotalPoints int        `gorm:"not null" json:"total_points"`
	IsPublished bool       `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Teacher *User `gorm:"foreignKey:TeacherID" json:"-"`
}

// AssignmentExercise links an exercise to an assignment.
type AssignmentExercise struct {
	AssignmentID string `gorm:"primaryKey;size:36" json:"assignment_id"`
	ExerciseID   string `gorm:"primaryKey;size:36" json:"exercise_id"`
	OrderIndex   int    `gorm:"not null" json:"order_index"`

	Assignment *Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Exercise   *Exercise   `gorm:"foreignKey:ExerciseID" json:"-"`
}

// AssignmentClassroom records that an assignment targets a classroom.
type AssignmentClassroom struct {
	AssignmentID string    `gorm:"primaryKey;size:36" json:"assignment_id"`
	ClassroomID  string    `gorm:"primaryKey;size:36" json:"classroom_id"`
	AssignedAt   time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	Assignment *Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Classroom  *Classroom  `gorm:"foreignKey:ClassroomID" json:"-"`
}

// AssignmentStudent records that an assignment targets a single student.
type AssignmentStudent struct {
	AssignmentID string    `gorm:"primaryKey;size:36" json:"assignment_id"`
	StudentID    string    `gorm:"primaryKey;size:36" json:"student_id"`
	AssignedAt   time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	Assignment *Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Student    *User       `gorm:"foreignKey:StudentID" json:"-"`
}

// Submission statuses.
const (
	SubmissionNotStarted = "not_started"
	SubmissionSubmitted  = "submitted"
	SubmissionGraded     = "graded"
)

// AssignmentSubmission is the per-student record of an assignment. It is
// created when the assignment is handed out, one per (assignment, student).
type AssignmentSubmission struct {
	Base
	AssignmentID string     `gorm:"size:36;not null;uniqueIndex:idx_submission_pair" json:"assignment_id"`
	StudentID    string     `gorm:"size:36;not null;uniqueIndex:idx_submission_pair;index" json:"student_id"`
	Status       string     `gorm:"size:16;not null" json:"status"`
	Score        *float64   `json:"score"`
	Feedback     *string    `gorm:"type:text" json:"feedback"`
	GradedBy     *string    `gorm:"size:36" json:"graded_by"`
	GradedAt     *time.Time `json:"graded_at"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Assignment *Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Student    *User       `gorm:"foreignKey:StudentID" json:"-"`
}
