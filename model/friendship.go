package model

import (
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus is the state of a friendship row.
type FriendshipStatus = string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is a relationship between two users. PairKey is the unordered
// pair of user ids and is unique, so only one row exists per pair whichever
// side sent the request.
type Friendship struct {
	Base
	RequesterID string           `gorm:"size:36;not null;index" json:"requester_id"`
	AddresseeID string           `gorm:"size:36;not null;index" json:"addressee_id"`
	PairKey     string           `gorm:"size:73;not null;uniqueIndex" json:"-"`
	Status      FriendshipStatus `gorm:"size:16;not null;index" json:"status"`
	AcceptedAt  *time.Time       `json:"accepted_at"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Requester *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Addressee *User `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
}

// BeforeCreate fills the id and the pair key.
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	f.PairKey = PairKey(f.RequesterID, f.AddresseeID)
	return f.Base.BeforeCreate(tx)
}

// OtherParty returns the id of the user on the other side of the friendship.
func (f *Friendship) OtherParty(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// PairKey builds the direction-independent key of a user pair.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
