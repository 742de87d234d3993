package chat_dto

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type CreateChatRequest struct {
	Name             string  `json:"name" validate:"omitempty,max=128"`
	Type             string  `json:"type" validate:"required,oneof=dm public private topic"`
	InitialMemberIDs []int64 `json:"initial_member_ids" validate:"omitempty,unique"`
	ParentRoomID     *int64  `json:"parent_room_id,omitempty"`
	MaxMembers       *int    `json:"max_members,omitempty" validate:"omitempty,min=2"`
}

// SendMessageRequest carries the pre-write limits: content or attachments
// must be present, content caps at 5000 chars, attachments at 10.
type SendMessageRequest struct {
	ChatRoomID  int64               `json:"chat_room_id" validate:"required"`
	Content     string              `json:"content" validate:"required_without=Attachments,max=5000"`
	Type        string              `json:"type" validate:"omitempty,oneof=text photo video sticker music file"`
	Attachments []AttachmentPayload `json:"attachments,omitempty" validate:"omitempty,max=10,dive"`
	ReplyTo     *string             `json:"reply_to,omitempty" validate:"omitempty,objectID"`
}

type AttachmentPayload struct {
	FileName     string `json:"file_name" validate:"required"`
	ContentType  string `json:"content_type" validate:"required"`
	Size         int64  `json:"size" validate:"required,min=1"`
	URL          string `json:"url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	Width        int    `json:"width,omitempty" validate:"omitempty,min=1"`
	Height       int    `json:"height,omitempty" validate:"omitempty,min=1"`
}

type EditMessageRequest struct {
	MessageID string `json:"message_id" validate:"required,objectID"`
	Content   string `json:"content" validate:"required,max=5000"`
}

type ReactionRequest struct {
	MessageID string `json:"message_id" validate:"required,objectID"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
}

type GetMessagesRequest struct {
	Limit    int     `json:"limit" validate:"omitempty,min=1,max=100"`
	BeforeID *string `json:"before_id,omitempty" validate:"omitempty,objectID"` // for cursor pagination
}

func ObjectIDValidator(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

// NewValidator builds the validator the services share, with the objectID
// rule registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("objectID", ObjectIDValidator)
	return v
}
