package queue

import (
	"encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var fastjson = jsoniter.ConfigCompatibleWithStandardLibrary

const JobTypeMessageSent = "message.sent"

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Priority  int             `json:"priority"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	CreatedAt int64           `json:"created_at"`
	ExpireAt  int64           `json:"expired_at"`
}

// MessageSentPayload is what the push fan-out service needs to deliver a
// freshly committed message to connected recipients.
type MessageSentPayload struct {
	ChatRoomID   int64     `json:"chat_room_id"`
	MessageID    string    `json:"message_id"`
	SenderID     int64     `json:"sender_id"`
	RecipientIDs []int64   `json:"recipient_ids"`
	SentAt       time.Time `json:"sent_at"`
}

func MustMarshal(payload any) json.RawMessage {
	b, err := fastjson.Marshal(payload)
	if err != nil {
		return nil
	}

	return b
}
