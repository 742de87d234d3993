package chat_dto

import "time"

type CreateChatResponse struct {
	ChatRoomID  int64     `json:"chat_room_id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	MessageID  string    `json:"message_id"`
	ChatRoomID int64     `json:"chat_room_id"`
	SentAt     time.Time `json:"sent_at"`
}

type ChatMessage struct {
	MessageID   string              `json:"message_id"`
	SenderID    int64               `json:"sender_id"`
	SenderName  string              `json:"sender_name"`
	Content     string              `json:"content"`
	Type        string              `json:"type"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
	ReplyTo     *string             `json:"reply_to,omitempty"`
	Reactions   map[string][]int64  `json:"reactions,omitempty"`
	IsDeleted   bool                `json:"is_deleted"`
	SentAt      time.Time           `json:"sent_at"`
	EditedAt    *time.Time          `json:"edited_at,omitempty"`
}

type GetMessagesResponse struct {
	Messages   []ChatMessage `json:"messages"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}
