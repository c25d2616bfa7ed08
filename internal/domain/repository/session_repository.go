package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

// SessionStore keeps one active session per user.
// Get returns apperror.ErrNotFound when no session exists or it expired.
type SessionStore interface {
	Save(ctx context.Context, s *entity.Session, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*entity.Session, error)
	// Rotate swaps the session id from fromSID to toSID atomically and
	// returns apperror.ErrNotFound when the stored id is no longer fromSID.
	Rotate(ctx context.Context, userID, fromSID, toSID string, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}
