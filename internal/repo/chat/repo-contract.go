package chat_repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
)

// RoomRepoContract covers the relational side: rooms, members, permission
// overrides, and the aggregate updates the send saga commits as one
// transaction.
type RoomRepoContract interface {
	FindRoomByID(ctx context.Context, roomID int64) (*entity.ChatRoom, *app_error.AppError)
	FindMember(ctx context.Context, roomID, userID int64) (*entity.RoomMember, *app_error.AppError)
	FindRoomMembers(ctx context.Context, roomID int64) ([]*entity.RoomMember, *app_error.AppError)
	CountMembers(ctx context.Context, roomID int64) (int64, *app_error.AppError)
	FindOverride(ctx context.Context, roomID, userID int64) (*entity.PermissionOverride, *app_error.AppError)

	CreateRoomWithMembers(ctx context.Context, room *entity.ChatRoom, members []entity.RoomMember) *app_error.AppError
	InsertMember(ctx context.Context, member *entity.RoomMember) *app_error.AppError
	DeleteMember(ctx context.Context, roomID, userID int64) *app_error.AppError
	UpdateMemberRole(ctx context.Context, roomID, userID int64, role string) *app_error.AppError

	// ApplySendAggregates is the relational half of the send saga: one
	// transaction stamping last_activity_at, atomically incrementing
	// total_messages_count, and bumping both directions of every existing
	// contact pair between the sender and the other members.
	ApplySendAggregates(ctx context.Context, roomID, senderID int64, memberIDs []int64, sentAt time.Time) *app_error.AppError
}

// MessageRepoContract covers the document side: message content and its
// in-place mutations. DeleteMessage is the saga's compensating hard
// delete; user-facing deletion is always the soft variant.
type MessageRepoContract interface {
	InsertMessage(ctx context.Context, msg *entity.Message) (bson.ObjectID, *app_error.AppError)
	DeleteMessage(ctx context.Context, messageID bson.ObjectID) *app_error.AppError
	SoftDeleteMessage(ctx context.Context, messageID bson.ObjectID) *app_error.AppError
	FindMessageByID(ctx context.Context, messageID bson.ObjectID) (*entity.Message, *app_error.AppError)
	UpdateMessageContent(ctx context.Context, messageID bson.ObjectID, content string, editedAt time.Time) *app_error.AppError
	AddReaction(ctx context.Context, messageID bson.ObjectID, emoji string, userID int64) *app_error.AppError
	RemoveReaction(ctx context.Context, messageID bson.ObjectID, emoji string, userID int64) *app_error.AppError
	MarkChatRead(ctx context.Context, chatID, userID int64) *app_error.AppError
	CountUnread(ctx context.Context, chatID, userID int64) (int64, *app_error.AppError)
	GetMessages(ctx context.Context, chatID int64, limit int, beforeID *string) ([]*entity.Message, *app_error.AppError)
}
