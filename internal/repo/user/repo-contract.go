package user_repo

import (
	"context"

	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
)

// UserRepoContract is the lookup surface of the user directory the
// messaging core consumes. Account lifecycle lives elsewhere.
type UserRepoContract interface {
	FindUserByID(ctx context.Context, userID int64) (*entity.User, *app_error.AppError)
	FindUsersByIDs(ctx context.Context, userIDs []int64) (map[int64]*entity.User, *app_error.AppError)
}
