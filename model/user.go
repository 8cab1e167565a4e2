package model

import "time"

// Roles a user account can hold.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is a platform account.
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:72;not null" json:"-"`
	DisplayName  string     `gorm:"size:64;index" json:"display_name"`
	FullName     string     `gorm:"size:128" json:"full_name"`
	AvatarURL    string     `gorm:"size:255" json:"avatar_url"`
	Role         string     `gorm:"size:16;not null" json:"role"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserStats holds the gamification counters of a user.
// Rank is empty until the user has been placed.
type UserStats struct {
	UserID           string    `gorm:"primaryKey;size:36" json:"user_id"`
	TotalXP          int64     `gorm:"not null;default:0" json:"total_xp"`
	Level            int       `gorm:"not null;default:1" json:"level"`
	Rank             string    `gorm:"column:user_rank;size:32" json:"rank"`
	Coins            int64     `gorm:"not null;default:0" json:"coins"`
	ModulesCompleted int       `gorm:"not null;default:0" json:"modules_completed"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsOnline reports whether the user logged in within window of now.
func (u *User) IsOnline(now time.Time, window time.Duration) bool {
	return u.LastLoginAt != nil && now.Sub(*u.LastLoginAt) <= window
}
