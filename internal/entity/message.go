package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	MessageTypeText    = "text"
	MessageTypePhoto   = "photo"
	MessageTypeVideo   = "video"
	MessageTypeSticker = "sticker"
	MessageTypeMusic   = "music"
	MessageTypeFile    = "file"
)

// SenderSnapshot denormalizes the sender at send time so a message stays
// renderable even after the user renames or deactivates.
type SenderSnapshot struct {
	UserID      int64  `bson:"user_id"`
	Username    string `bson:"username"`
	DisplayName string `bson:"display_name"`
	AvatarURL   string `bson:"avatar_url,omitempty"`
}

type Attachment struct {
	ID           string `bson:"id"`
	FileName     string `bson:"file_name"`
	ContentType  string `bson:"content_type"`
	Size         int64  `bson:"size"`
	URL          string `bson:"url"`
	ThumbnailURL string `bson:"thumbnail_url,omitempty"`
	Width        int    `bson:"width,omitempty"`
	Height       int    `bson:"height,omitempty"`
}

type Message struct {
	ID          bson.ObjectID      `bson:"_id,omitempty"`
	ChatID      int64              `bson:"chat_id"`
	Sender      SenderSnapshot     `bson:"sender"`
	Content     string             `bson:"content"`
	Type        string             `bson:"type"`
	Attachments []Attachment       `bson:"attachments,omitempty"`
	ReplyTo     *bson.ObjectID     `bson:"reply_to,omitempty"`
	Reactions   map[string][]int64 `bson:"reactions,omitempty"`
	ReadBy      []int64            `bson:"read_by"`
	SentAt      time.Time          `bson:"sent_at"`
	EditedAt    *time.Time         `bson:"edited_at,omitempty"`
	IsDeleted   bool               `bson:"is_deleted"`
}
