package chat_repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	"github.com/DarcRosya/Uchat-sub001/state"
)

type RoomRepo struct {
	AppState *state.AppState
}

func NewRoomRepo(appState *state.AppState) RoomRepoContract {
	return &RoomRepo{
		AppState: appState,
	}
}

func (r *RoomRepo) FindRoomByID(ctx context.Context, roomID int64) (*entity.ChatRoom, *app_error.AppError) {
	var room entity.ChatRoom
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewNotFoundError("room not found", "room-id")
		}
		log.Error().Err(err).Msgf("failed to fetch room %d", roomID)
		return nil, app_error.NewInternalError("failed to fetch room", "db-error")
	}
	return &room, nil
}

func (r *RoomRepo) FindMember(ctx context.Context, roomID, userID int64) (*entity.RoomMember, *app_error.AppError) {
	var member entity.RoomMember
	if err := r.AppState.DB.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewNotFoundError("user is not a member of this room", "membership")
		}
		return nil, app_error.NewInternalError("failed to fetch room member", "db-error")
	}
	return &member, nil
}

func (r *RoomRepo) FindRoomMembers(ctx context.Context, roomID int64) ([]*entity.RoomMember, *app_error.AppError) {
	var members []*entity.RoomMember
	if err := r.AppState.DB.WithContext(ctx).Where("room_id = ?", roomID).Find(&members).Error; err != nil {
		return nil, app_error.NewInternalError("failed to fetch room members", "db-error")
	}
	return members, nil
}

func (r *RoomRepo) CountMembers(ctx context.Context, roomID int64) (int64, *app_error.AppError) {
	var count int64
	if err := r.AppState.DB.WithContext(ctx).Model(&entity.RoomMember{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, app_error.NewInternalError("failed to count room members", "db-count")
	}
	return count, nil
}

// FindOverride returns (nil, nil) when the member has no stored override;
// the resolver treats that as full inheritance.
func (r *RoomRepo) FindOverride(ctx context.Context, roomID, userID int64) (*entity.PermissionOverride, *app_error.AppError) {
	var override entity.PermissionOverride
	if err := r.AppState.DB.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&override).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, app_error.NewInternalError("failed to fetch permission override", "db-error")
	}
	return &override, nil
}

func (r *RoomRepo) CreateRoomWithMembers(ctx context.Context, room *entity.ChatRoom, members []entity.RoomMember) *app_error.AppError {
	tx := r.AppState.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(room).Error; err != nil {
		tx.Rollback()
		return app_error.NewInternalError("failed to create room", "db-error")
	}

	for i := range members {
		members[i].RoomID = room.ID
	}

	if err := tx.Create(&members).Error; err != nil {
		tx.Rollback()
		return app_error.NewInternalError("failed to add members to room", "db-error")
	}

	if err := tx.Commit().Error; err != nil {
		return app_error.NewInternalError("failed to commit room creation", "db-error")
	}

	return nil
}

func (r *RoomRepo) InsertMember(ctx context.Context, member *entity.RoomMember) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(member).Error; err != nil {
		// the unique (room_id, user_id) index resolves concurrent adds
		if isDuplicateKey(err) {
			return app_error.NewConflictError("user is already a member of this room", "membership")
		}
		return app_error.NewInternalError("failed to add room member", "db-error")
	}
	return nil
}

func (r *RoomRepo) DeleteMember(ctx context.Context, roomID, userID int64) *app_error.AppError {
	res := r.AppState.DB.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&entity.RoomMember{})
	if res.Error != nil {
		return app_error.NewInternalError("failed to remove room member", "db-error")
	}
	if res.RowsAffected == 0 {
		return app_error.NewNotFoundError("user is not a member of this room", "membership")
	}
	return nil
}

func (r *RoomRepo) UpdateMemberRole(ctx context.Context, roomID, userID int64, role string) *app_error.AppError {
	res := r.AppState.DB.WithContext(ctx).Model(&entity.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("role", role)
	if res.Error != nil {
		return app_error.NewInternalError("failed to update member role", "db-error")
	}
	if res.RowsAffected == 0 {
		return app_error.NewNotFoundError("user is not a member of this room", "membership")
	}
	return nil
}

func (r *RoomRepo) ApplySendAggregates(ctx context.Context, roomID, senderID int64, memberIDs []int64, sentAt time.Time) *app_error.AppError {
	tx := r.AppState.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return app_error.NewInternalError("failed to open transaction", "db-error")
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	// native atomic increment, never read-modify-write
	if err := tx.Model(&entity.ChatRoom{}).Where("id = ?", roomID).Updates(map[string]any{
		"last_activity_at":     sentAt,
		"total_messages_count": gorm.Expr("total_messages_count + ?", 1),
	}).Error; err != nil {
		tx.Rollback()
		return app_error.NewInternalError("failed to update room activity", "db-error")
	}

	for _, memberID := range memberIDs {
		if memberID == senderID {
			continue
		}
		// both directions; UPDATE on a missing contact row affects zero
		// rows, which is exactly the skip the coordinator wants
		for _, pair := range [][2]int64{{senderID, memberID}, {memberID, senderID}} {
			if err := tx.Model(&entity.Contact{}).
				Where("owner_id = ? AND contact_user_id = ?", pair[0], pair[1]).
				Updates(map[string]any{
					"last_message_at": sentAt,
					"message_count":   gorm.Expr("message_count + ?", 1),
				}).Error; err != nil {
				tx.Rollback()
				return app_error.NewInternalError("failed to update contact aggregates", "db-error")
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return app_error.NewInternalError("failed to commit send aggregates", "db-error")
	}

	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
