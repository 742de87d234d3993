package entity

import (
	"time"
)

const (
	RoomTypeDirect  = "dm"
	RoomTypePublic  = "public"
	RoomTypePrivate = "private"
	RoomTypeTopic   = "topic"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// RoomDefaults are the room-level send flags that Member-role permission
// resolution falls back to when no explicit override exists.
type RoomDefaults struct {
	AllowSendText    bool `gorm:"not null;default:true"`
	AllowSendPhoto   bool `gorm:"not null;default:true"`
	AllowSendVideo   bool `gorm:"not null;default:true"`
	AllowSendSticker bool `gorm:"not null;default:true"`
	AllowSendMusic   bool `gorm:"not null;default:true"`
	AllowSendFile    bool `gorm:"not null;default:true"`
}

type ChatRoom struct {
	ID                 int64  `gorm:"primaryKey"`
	Name               string `gorm:"not null"`
	RT                 string `gorm:"column:rt;not null"`
	CreatedBy          int64  `gorm:"not null"`
	ParentRoomID       *int64 // required when RT == topic
	MaxMembers         *int
	TotalMessagesCount int64        `gorm:"not null;default:0"`
	LastActivityAt     time.Time    `gorm:"not null"`
	Defaults           RoomDefaults `gorm:"embedded"`
	CreatedAt          time.Time    `gorm:"autoCreateTime"`
	UpdatedAt          time.Time    `gorm:"autoUpdateTime"`
}

// RoomMember carries a uniqueness constraint on (room_id, user_id); racing
// inserts for the same pair lose with a duplicate-key error rather than
// producing two rows.
type RoomMember struct {
	ID        int64     `gorm:"primaryKey"`
	RoomID    int64     `gorm:"not null;uniqueIndex:idx_room_user"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_room_user"`
	Role      string    `gorm:"not null;default:'member'"`
	JoinedAt  time.Time `gorm:"not null"`
	InvitedBy *int64
}
