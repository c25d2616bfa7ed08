package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

// SocialService covers the user directory, follow edges and role assignment.
type SocialService struct {
	Users    repo.UserRepository
	Follows  repo.FollowRepository
	Guard    *Guard
	Notifier *Notifier
	Logger   *logrus.Logger
}

func NewSocialService(users repo.UserRepository, follows repo.FollowRepository, guard *Guard, notifier *Notifier, logger *logrus.Logger) *SocialService {
	return &SocialService{Users: users, Follows: follows, Guard: guard, Notifier: notifier, Logger: logger}
}

// FollowState is the edge between the actor and a target after a follow change.
type FollowState struct {
	UserID    string
	Following bool
	Followers int
}

// Follow adds the edge actor -> target. Following oneself is rejected
// before the store is touched; following twice is a no-op.
func (s *SocialService) Follow(ctx context.Context, a *rbac.Actor, targetID string) (*FollowState, error) {
	return s.changeFollow(ctx, a, targetID, true)
}

// Unfollow removes the edge actor -> target; a missing edge is a no-op.
func (s *SocialService) Unfollow(ctx context.Context, a *rbac.Actor, targetID string) (*FollowState, error) {
	return s.changeFollow(ctx, a, targetID, false)
}

func (s *SocialService) changeFollow(ctx context.Context, a *rbac.Actor, targetID string, follow bool) (*FollowState, error) {
	if err := s.Guard.Authenticated(a); err != nil {
		return nil, err
	}
	// ids are compared in canonical form; the store accepts any uuid casing.
	if id, err := uuid.Parse(targetID); err == nil {
		targetID = id.String()
	}
	if a.UserID == targetID {
		return nil, selfFollowError(follow)
	}
	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.ID == a.UserID {
		return nil, selfFollowError(follow)
	}
	if follow {
		err = s.Follows.Follow(ctx, a.UserID, target.ID)
	} else {
		err = s.Follows.Unfollow(ctx, a.UserID, target.ID)
	}
	if err != nil {
		return nil, err
	}
	followers, err := s.Follows.Followers(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	return &FollowState{UserID: target.ID, Following: follow, Followers: len(followers)}, nil
}

func selfFollowError(follow bool) error {
	verb := "unfollow"
	if follow {
		verb = "follow"
	}
	return apperror.Validation("you cannot "+verb+" yourself", map[string]string{"user_id": "must not be your own id"})
}

func (s *SocialService) Followers(ctx context.Context, a *rbac.Actor, userID string) ([]*entity.User, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceUser); err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.Follows.Followers(ctx, userID)
}

func (s *SocialService) Following(ctx context.Context, a *rbac.Actor, userID string) ([]*entity.User, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceUser); err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.Follows.Following(ctx, userID)
}

// UserSummary is a directory entry with the actor's view of the edge.
type UserSummary struct {
	User       *entity.User
	IsFollowed bool
}

func (s *SocialService) ListUsers(ctx context.Context, a *rbac.Actor) ([]UserSummary, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceUser); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	following, err := s.Follows.Following(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	followed := make(map[string]struct{}, len(following))
	for _, u := range following {
		followed[u.ID] = struct{}{}
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		_, ok := followed[u.ID]
		out = append(out, UserSummary{User: u, IsFollowed: ok})
	}
	return out, nil
}

// AssignRole changes a user's role. Admins cannot demote themselves, which
// keeps at least the caller able to undo the change.
func (s *SocialService) AssignRole(ctx context.Context, a *rbac.Actor, userID, role string) (*entity.User, error) {
	if err := s.Guard.Authorize(a, rbac.ActionUpdate, rbac.ResourceUser); err != nil {
		return nil, err
	}
	r, ok := entity.ParseRole(role)
	if !ok {
		return nil, apperror.Validation("invalid role", map[string]string{"role": "must be one of ADMIN, LIBRARIAN, MEMBER"})
	}
	if a.UserID == userID && r != a.Role {
		return nil, apperror.Validation("you cannot change your own role", map[string]string{"role": "cannot change your own role"})
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	old := u.Role
	if old == r {
		return u, nil
	}
	if err := s.Users.UpdateRole(ctx, userID, r); err != nil {
		return nil, err
	}
	u.Role = r
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"request_id": a.RequestID,
			"by":         a.UserID,
			"user_id":    u.ID,
			"from":       old,
			"to":         r,
		}).Info("role assigned")
	}
	s.Notifier.RoleChanged(ctx, u, old)
	return u, nil
}
