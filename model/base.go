package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID primary key shared by most tables.
type Base struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
