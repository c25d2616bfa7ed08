package repository

import (
	"context"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Lookups of missing rows return apperror.ErrNotFound; unique violations
// return apperror.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateRole(ctx context.Context, id string, role entity.Role) error
	List(ctx context.Context) ([]*entity.User, error)
	Count(ctx context.Context) (int, error)
}

// FollowRepository stores directed follow edges with set semantics:
// adding an existing edge or removing a missing one is a no-op.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	Following(ctx context.Context, userID string) ([]*entity.User, error)
	Followers(ctx context.Context, userID string) ([]*entity.User, error)
}
