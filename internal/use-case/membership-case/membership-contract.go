package membership_service

import (
	"context"

	"github.com/DarcRosya/Uchat-sub001/internal/dtos/chat_dto"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
)

type MembershipServiceContract interface {
	CreateChat(ctx context.Context, req chat_dto.CreateChatRequest, creatorID int64) (*chat_dto.CreateChatResponse, *app_error.AppError)
	AddMember(ctx context.Context, actorID, roomID, targetID int64, role string) *app_error.AppError
	RemoveMember(ctx context.Context, actorID, roomID, targetID int64) *app_error.AppError
	UpdateRole(ctx context.Context, actorID, roomID, targetID int64, newRole string) *app_error.AppError
}
