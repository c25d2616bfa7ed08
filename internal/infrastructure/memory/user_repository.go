package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

type UserRepository struct {
	s *Store
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.Conflict("email already registered")
		}
		if existing.Username == u.Username {
			return apperror.Conflict("username already taken")
		}
	}
	if u.Role == "" {
		u.Role = entity.DefaultRole
	}
	u.ID = newID()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return apperror.NotFound("user")
	}
	for id, other := range r.s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return apperror.Conflict("email already registered")
		}
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = now()
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.Password = hash
	u.UpdatedAt = now()
	return nil
}

func (r *UserRepository) UpdateRole(_ context.Context, id string, role entity.Role) error {
	if !role.Valid() {
		return apperror.Validation("invalid role", map[string]string{"role": "must be one of ADMIN, LIBRARIAN, MEMBER"})
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.Role = role
	u.UpdatedAt = now()
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, copyUser(u))
	}
	sortUsers(out)
	return out, nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func sortUsers(us []*entity.User) {
	sort.Slice(us, func(i, j int) bool { return us[i].Username < us[j].Username })
}

var _ repository.UserRepository = (*UserRepository)(nil)

// FollowRepository keeps follow edges as a set keyed by (follower, followee).
type FollowRepository struct {
	s *Store
}

func (r *FollowRepository) Follow(_ context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperror.Validation("cannot follow yourself", nil)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[followerID]; !ok {
		return apperror.NotFound("user")
	}
	if _, ok := r.s.users[followeeID]; !ok {
		return apperror.NotFound("user")
	}
	r.s.follows[edge{followerID, followeeID}] = struct{}{}
	return nil
}

func (r *FollowRepository) Unfollow(_ context.Context, followerID, followeeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.follows, edge{followerID, followeeID})
	return nil
}

func (r *FollowRepository) IsFollowing(_ context.Context, followerID, followeeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.follows[edge{followerID, followeeID}]
	return ok, nil
}

func (r *FollowRepository) Following(_ context.Context, userID string) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	for e := range r.s.follows {
		if e.follower == userID {
			if u, ok := r.s.users[e.followee]; ok {
				out = append(out, copyUser(u))
			}
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *FollowRepository) Followers(_ context.Context, userID string) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	for e := range r.s.follows {
		if e.followee == userID {
			if u, ok := r.s.users[e.follower]; ok {
				out = append(out, copyUser(u))
			}
		}
	}
	sortUsers(out)
	return out, nil
}

var _ repository.FollowRepository = (*FollowRepository)(nil)
