package membership_service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/DarcRosya/Uchat-sub001/internal/dtos/chat_dto"
	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	chat_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/chat"
	user_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/user"
)

type MembershipService struct {
	RoomRepo chat_repo.RoomRepoContract
	UserRepo user_repo.UserRepoContract
	Validate *validator.Validate
}

func NewMembershipService(roomRepo chat_repo.RoomRepoContract, userRepo user_repo.UserRepoContract) MembershipServiceContract {
	return &MembershipService{
		RoomRepo: roomRepo,
		UserRepo: userRepo,
		Validate: chat_dto.NewValidator(),
	}
}

func (s *MembershipService) CreateChat(ctx context.Context, req chat_dto.CreateChatRequest, creatorID int64) (*chat_dto.CreateChatResponse, *app_error.AppError) {
	if err := s.Validate.Struct(req); err != nil {
		return nil, app_error.NewValidationError(err.Error(), "request")
	}

	if req.Type == entity.RoomTypeDirect && len(req.InitialMemberIDs) != 1 {
		return nil, app_error.NewValidationError("Direct message chats require exactly one other participant", "initial-members")
	}

	for _, id := range req.InitialMemberIDs {
		if id == creatorID {
			return nil, app_error.NewValidationError("initial members must not include the creator", "initial-members")
		}
	}

	if req.Type == entity.RoomTypeTopic {
		if req.ParentRoomID == nil {
			return nil, app_error.NewValidationError("topic rooms require a parent room", "parent-room-id")
		}
		if _, appErr := s.RoomRepo.FindRoomByID(ctx, *req.ParentRoomID); appErr != nil {
			return nil, appErr
		}
	}

	// every referenced user must resolve, and a failure names each miss
	allIDs := append([]int64{creatorID}, req.InitialMemberIDs...)
	found, appErr := s.UserRepo.FindUsersByIDs(ctx, allIDs)
	if appErr != nil {
		return nil, appErr
	}
	var missing []int64
	for _, id := range allIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, app_error.NewNotFoundError(fmt.Sprintf("users not found: %v", missing), "user-ids")
	}

	memberCount := 1 + len(req.InitialMemberIDs)
	if req.MaxMembers != nil && memberCount > *req.MaxMembers {
		return nil, app_error.NewValidationError("initial members exceed the member limit", "max-members")
	}

	now := time.Now().UTC()
	room := &entity.ChatRoom{
		Name:           req.Name,
		RT:             req.Type,
		CreatedBy:      creatorID,
		ParentRoomID:   req.ParentRoomID,
		MaxMembers:     req.MaxMembers,
		LastActivityAt: now,
		Defaults: entity.RoomDefaults{
			AllowSendText:    true,
			AllowSendPhoto:   true,
			AllowSendVideo:   true,
			AllowSendSticker: true,
			AllowSendMusic:   true,
			AllowSendFile:    true,
		},
	}

	// dm rooms have no owner; everywhere else the creator owns the room.
	// One shared joinedAt for the whole founding set.
	creatorRole := entity.RoleOwner
	if req.Type == entity.RoomTypeDirect {
		creatorRole = entity.RoleMember
	}
	members := make([]entity.RoomMember, 0, memberCount)
	members = append(members, entity.RoomMember{UserID: creatorID, Role: creatorRole, JoinedAt: now})
	for _, id := range req.InitialMemberIDs {
		members = append(members, entity.RoomMember{UserID: id, Role: entity.RoleMember, JoinedAt: now, InvitedBy: &creatorID})
	}

	if appErr := s.RoomRepo.CreateRoomWithMembers(ctx, room, members); appErr != nil {
		return nil, appErr
	}

	return &chat_dto.CreateChatResponse{
		ChatRoomID:  room.ID,
		Type:        room.RT,
		Name:        room.Name,
		MemberCount: memberCount,
		CreatedAt:   now,
	}, nil
}

func (s *MembershipService) AddMember(ctx context.Context, actorID, roomID, targetID int64, role string) *app_error.AppError {
	if role == "" {
		role = entity.RoleMember
	}
	if role == entity.RoleOwner {
		return app_error.NewValidationError("the owner role cannot be granted", "role")
	}
	if role != entity.RoleMember && role != entity.RoleAdmin {
		return app_error.NewValidationError("unknown role", "role")
	}

	room, appErr := s.RoomRepo.FindRoomByID(ctx, roomID)
	if appErr != nil {
		return appErr
	}
	if room.RT == entity.RoomTypeDirect {
		return app_error.NewValidationError("direct message chats do not accept new members", "room-type")
	}

	if appErr := s.requireOwnerOrAdmin(ctx, roomID, actorID, "Only owners or admins can add members"); appErr != nil {
		return appErr
	}

	if _, appErr := s.UserRepo.FindUserByID(ctx, targetID); appErr != nil {
		return appErr
	}

	existing, appErr := s.RoomRepo.FindMember(ctx, roomID, targetID)
	if appErr != nil && appErr.Code != http.StatusNotFound {
		return appErr
	}
	if existing != nil {
		return app_error.NewConflictError("user is already a member of this room", "membership")
	}

	if room.MaxMembers != nil {
		count, appErr := s.RoomRepo.CountMembers(ctx, roomID)
		if appErr != nil {
			return appErr
		}
		if count >= int64(*room.MaxMembers) {
			return app_error.NewValidationError("room member limit reached", "max-members")
		}
	}

	return s.RoomRepo.InsertMember(ctx, &entity.RoomMember{
		RoomID:    roomID,
		UserID:    targetID,
		Role:      role,
		JoinedAt:  time.Now().UTC(),
		InvitedBy: &actorID,
	})
}

func (s *MembershipService) RemoveMember(ctx context.Context, actorID, roomID, targetID int64) *app_error.AppError {
	room, appErr := s.RoomRepo.FindRoomByID(ctx, roomID)
	if appErr != nil {
		return appErr
	}
	if room.RT == entity.RoomTypeDirect {
		return app_error.NewValidationError("direct message chats do not allow removing members", "room-type")
	}

	if appErr := s.requireOwnerOrAdmin(ctx, roomID, actorID, "Only owners or admins can remove members"); appErr != nil {
		return appErr
	}

	target, appErr := s.RoomRepo.FindMember(ctx, roomID, targetID)
	if appErr != nil {
		return appErr
	}
	if target.Role == entity.RoleOwner {
		return app_error.NewAuthorizationError("the room owner cannot be removed", "role")
	}

	// hard delete; the user may be re-invited later
	return s.RoomRepo.DeleteMember(ctx, roomID, targetID)
}

func (s *MembershipService) UpdateRole(ctx context.Context, actorID, roomID, targetID int64, newRole string) *app_error.AppError {
	if newRole == entity.RoleOwner {
		return app_error.NewValidationError("ownership transfer is a separate workflow", "role")
	}
	if newRole != entity.RoleMember && newRole != entity.RoleAdmin {
		return app_error.NewValidationError("unknown role", "role")
	}

	if _, appErr := s.RoomRepo.FindRoomByID(ctx, roomID); appErr != nil {
		return appErr
	}

	actor, appErr := s.RoomRepo.FindMember(ctx, roomID, actorID)
	if appErr != nil {
		if appErr.Code == http.StatusNotFound {
			return app_error.NewAuthorizationError("Only the owner can change member roles", "role")
		}
		return appErr
	}
	if actor.Role != entity.RoleOwner {
		return app_error.NewAuthorizationError("Only the owner can change member roles", "role")
	}

	target, appErr := s.RoomRepo.FindMember(ctx, roomID, targetID)
	if appErr != nil {
		return appErr
	}
	if target.Role == entity.RoleOwner {
		return app_error.NewAuthorizationError("the room owner's role cannot be changed", "role")
	}

	return s.RoomRepo.UpdateMemberRole(ctx, roomID, targetID, newRole)
}

func (s *MembershipService) requireOwnerOrAdmin(ctx context.Context, roomID, actorID int64, denial string) *app_error.AppError {
	actor, appErr := s.RoomRepo.FindMember(ctx, roomID, actorID)
	if appErr != nil {
		if appErr.Code == http.StatusNotFound {
			return app_error.NewAuthorizationError(denial, "role")
		}
		return appErr
	}
	if actor.Role != entity.RoleOwner && actor.Role != entity.RoleAdmin {
		return app_error.NewAuthorizationError(denial, "role")
	}
	return nil
}
