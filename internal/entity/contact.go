package entity

import (
	"time"
)

// Contact is one direction of a contact pair. The messaging path only ever
// updates existing rows; creation belongs to the friendship workflow.
type Contact struct {
	ID            int64 `gorm:"primaryKey"`
	OwnerID       int64 `gorm:"not null;uniqueIndex:idx_contact_pair"`
	ContactUserID int64 `gorm:"not null;uniqueIndex:idx_contact_pair"`
	LastMessageAt *time.Time
	MessageCount  int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}
