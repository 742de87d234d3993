package user_repo

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	"github.com/DarcRosya/Uchat-sub001/state"
)

type UserRepo struct {
	AppState *state.AppState
}

func NewUserRepo(appState *state.AppState) UserRepoContract {
	return &UserRepo{
		AppState: appState,
	}
}

func (r *UserRepo) FindUserByID(ctx context.Context, userID int64) (*entity.User, *app_error.AppError) {
	var user entity.User

	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "cannot find user", "user-id")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "unexpected error occur when fetch user", "db-error")
	}

	return &user, nil
}

func (r *UserRepo) FindUsersByIDs(ctx context.Context, userIDs []int64) (map[int64]*entity.User, *app_error.AppError) {
	users := make(map[int64]*entity.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	var rows []*entity.User
	if err := r.AppState.DB.WithContext(ctx).Where("id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "unexpected error occur when fetch users", "db-error")
	}

	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}
