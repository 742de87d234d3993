package chat_service

import (
	"context"

	"github.com/DarcRosya/Uchat-sub001/internal/dtos/chat_dto"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
)

type ChatServiceContract interface {
	SendMessage(ctx context.Context, req chat_dto.SendMessageRequest, senderID int64) (*chat_dto.SendMessageResponse, *app_error.AppError)
	GetMessages(ctx context.Context, req chat_dto.GetMessagesRequest, chatRoomID, userID int64) (*chat_dto.GetMessagesResponse, *app_error.AppError)
	EditMessage(ctx context.Context, req chat_dto.EditMessageRequest, userID int64) *app_error.AppError
	AddReaction(ctx context.Context, req chat_dto.ReactionRequest, userID int64) *app_error.AppError
	RemoveReaction(ctx context.Context, req chat_dto.ReactionRequest, userID int64) *app_error.AppError
	MarkChatRead(ctx context.Context, chatRoomID, userID int64) *app_error.AppError
	DeleteMessage(ctx context.Context, messageID string, userID int64) *app_error.AppError
	GetUnreadCount(ctx context.Context, chatRoomID, userID int64) (int64, *app_error.AppError)
}
