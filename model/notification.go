package model

import (
	"time"

	"gorm.io/datatypes"
)

// Notification kinds.
const (
	NotifyFriendRequest  = "friend_request"
	NotifyFriendAccepted = "friend_accepted"
	NotifyGuildJoined    = "guild_member_joined"
	NotifyGuildKicked    = "guild_member_kicked"
	NotifyGuildRole      = "guild_role_changed"
	NotifyGuildOwner     = "guild_ownership_transferred"
	NotifyAssignment     = "assignment_assigned"
	NotifyGraded         = "submission_graded"
)

// Notification is a message addressed to one user.
type Notification struct {
	Base
	UserID    string         `gorm:"size:36;not null;index:idx_notification_user" json:"user_id"`
	Type      string         `gorm:"size:48;not null" json:"type"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Data      datatypes.JSON `json:"data"`
	IsRead    bool           `gorm:"not null;index:idx_notification_user" json:"is_read"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
