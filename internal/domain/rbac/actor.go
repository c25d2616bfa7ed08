package rbac

import (
	"context"
	"errors"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

// Actor is the authenticated caller of an operation, threaded explicitly
// from the transport layer into services.
type Actor struct {
	UserID    string
	Username  string
	SessionID string
	RequestID string
	Role      entity.Role
}

type contextKey string

const actorKey contextKey = "rbac:actor"

func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom returns the actor stored in ctx, or nil.
func ActorFrom(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey).(*Actor); ok {
		return a
	}
	return nil
}

// Resolver derives a user's role from their stored profile.
type Resolver struct {
	Users repository.UserRepository
}

func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{Users: users}
}

// Resolve returns exactly one role for userID. A missing id, a missing user
// or a corrupt stored role all yield ErrUnauthenticated.
func (r *Resolver) Resolve(ctx context.Context, userID string) (entity.Role, error) {
	if userID == "" {
		return "", apperror.Unauthenticated()
	}
	u, err := r.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthenticated()
		}
		return "", err
	}
	if !u.Role.Valid() {
		return "", apperror.Unauthenticated()
	}
	return u.Role, nil
}
