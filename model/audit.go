package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records privileged actions (guild moderation, grading, ownership changes).
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	ActorID    string         `gorm:"index:idx_audit_actor;size:36;not null" json:"actor_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	TargetType string         `gorm:"size:32" json:"target_type"`
	TargetID   string         `gorm:"size:36" json:"target_id"`
	Request    datatypes.JSON `json:"request"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
