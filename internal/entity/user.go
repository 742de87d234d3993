package entity

import (
	"time"
)

type User struct {
	ID          int64     `gorm:"primaryKey"`
	Username    string    `gorm:"uniqueIndex;not null"`
	DisplayName string    `gorm:"not null"`
	AvatarURL   string
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
