package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

const userColumns = `id, username, email, password_hash, role, bio, avatar_url, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &role, &u.Bio, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Role == "" {
		u.Role = entity.DefaultRole
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.Password, string(u.Role), u.Bio, u.AvatarURL)

	return mapErr(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt), "user")
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, apperror.NotFound("user")
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if !validID(u.ID) {
		return apperror.NotFound("user")
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $1, bio = $2, avatar_url = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, u.Email, u.Bio, u.AvatarURL, u.ID)
	return mapErr(row.Scan(&u.UpdatedAt), "user")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	if !role.Valid() {
		return apperror.Validation("invalid role", map[string]string{"role": "must be one of ADMIN, LIBRARIAN, MEMBER"})
	}
	return r.exec(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, string(role), id)
}

func (r *UserRepository) exec(ctx context.Context, sql string, value any, id string) error {
	if !validID(id) {
		return apperror.NotFound("user")
	}
	res, err := r.pool.Exec(ctx, sql, value, id)
	if err != nil {
		return mapErr(err, "user")
	}
	if res.RowsAffected() == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func collectUsers(rows pgx.Rows) ([]*entity.User, error) {
	defer rows.Close()
	out := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)

// FollowRepository stores edges in follows(follower_id, followee_id).
type FollowRepository struct {
	pool *pgxpool.Pool
}

func NewFollowRepository(pool *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{pool: pool}
}

func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	if !validID(followerID) || !validID(followeeID) {
		return apperror.NotFound("user")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`, followerID, followeeID)
	return mapErr(err, "follow")
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if !validID(followerID) || !validID(followeeID) {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	return err
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	if !validID(followerID) || !validID(followeeID) {
		return false, nil
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)
	`, followerID, followeeID).Scan(&ok)
	return ok, err
}

func (r *FollowRepository) Following(ctx context.Context, userID string) ([]*entity.User, error) {
	return r.related(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.role, u.bio, u.avatar_url, u.created_at, u.updated_at
		FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY u.username
	`, userID)
}

func (r *FollowRepository) Followers(ctx context.Context, userID string) ([]*entity.User, error) {
	return r.related(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.role, u.bio, u.avatar_url, u.created_at, u.updated_at
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY u.username
	`, userID)
}

func (r *FollowRepository) related(ctx context.Context, sql, userID string) ([]*entity.User, error) {
	if !validID(userID) {
		return []*entity.User{}, nil
	}
	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

var _ repository.FollowRepository = (*FollowRepository)(nil)
