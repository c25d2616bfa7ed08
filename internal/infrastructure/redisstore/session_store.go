package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

// SessionStore keeps sessions as Redis hashes under user:session:<uid>.
type SessionStore struct {
	RDB    *redis.Client
	Logger *logrus.Logger
}

func NewSessionStore(rdb *redis.Client, logger *logrus.Logger) *SessionStore {
	return &SessionStore{RDB: rdb, Logger: logger}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *SessionStore) Save(ctx context.Context, sess *entity.Session, ttl time.Duration) error {
	key := sessionKey(sess.UserID)
	fields := map[string]any{
		"user_id":    sess.UserID,
		"sid":        sess.SessionID,
		"username":   sess.Username,
		"email":      sess.Email,
		"logged_in":  true,
		"created_at": nowRFC3339(),
	}
	pipe := s.RDB.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
		}
		return err
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*entity.Session, error) {
	data, err := s.RDB.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperror.NotFound("session")
	}
	sess := &entity.Session{
		UserID:    data["user_id"],
		SessionID: data["sid"],
		Username:  data["username"],
		Email:     data["email"],
	}
	if t, err := time.Parse(time.RFC3339Nano, data["created_at"]); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, data["updated_at"]); err == nil {
		sess.UpdatedAt = t
	}
	return sess, nil
}

// rotateScript swaps sid only while it still holds ARGV[1], so two refreshes
// racing on the same token cannot both win.
var rotateScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "sid") ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "sid", ARGV[2], "updated_at", ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 1
`)

func (s *SessionStore) Rotate(ctx context.Context, userID, fromSID, toSID string, ttl time.Duration) error {
	key := sessionKey(userID)
	ok, err := rotateScript.Run(ctx, s.RDB, []string{key}, fromSID, toSID, nowRFC3339(), ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return apperror.NotFound("session")
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.RDB.Del(ctx, sessionKey(userID)).Err()
}

var _ repository.SessionStore = (*SessionStore)(nil)
