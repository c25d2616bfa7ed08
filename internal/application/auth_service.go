package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/validation"
)

const defaultSessionTTL = 24 * time.Hour

// ObjectUploader stores a blob and returns its public URL.
// helpers.GCSUploader satisfies it.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// AuthService owns registration, login, sessions and the caller's profile.
type AuthService struct {
	Users      repo.UserRepository
	Sessions   repo.SessionStore
	Resolver   *rbac.Resolver
	JWT        *helpers.JWTManager
	SessionTTL time.Duration
	Uploader   ObjectUploader
	Notifier   *Notifier
	Logger     *logrus.Logger
}

func NewAuthService(users repo.UserRepository, sessions repo.SessionStore, jwt *helpers.JWTManager, sessionTTL time.Duration, uploader ObjectUploader, notifier *Notifier, logger *logrus.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		Users:      users,
		Sessions:   sessions,
		Resolver:   rbac.NewResolver(users),
		JWT:        jwt,
		SessionTTL: sessionTTL,
		Uploader:   uploader,
		Notifier:   notifier,
		Logger:     logger,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"-"`
	Bio      string `json:"bio" validate:"max=500"`
}

// Register creates a MEMBER account and signs it in. The credential policy
// and email uniqueness are checked before anything is stored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, TokenPair, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	extra := map[string]string{}
	if !validUsername(in.Username) && in.Username != "" {
		extra["username"] = "may contain only letters, digits and @/./+/-/_"
	}
	if err := validation.CheckPassword("password", in.Password); err != nil {
		for k, v := range apperror.FieldsOf(err) {
			extra[k] = v
		}
	}
	if err := validateInput(in, extra); err != nil {
		return nil, TokenPair{}, err
	}

	if err := s.ensureFree(ctx, in.Username, in.Email); err != nil {
		return nil, TokenPair{}, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Role:     entity.DefaultRole,
		Bio:      strings.TrimSpace(in.Bio),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	}
	s.Notifier.Welcome(ctx, u)
	return u, pair, nil
}

func (s *AuthService) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return apperror.Conflict("email already registered").WithField("email", "already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if _, err := s.Users.GetByUsername(ctx, username); err == nil {
		return apperror.Conflict("username already taken").WithField("username", "already taken")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

func validUsername(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}

// Login verifies the credential and opens a fresh session, replacing any
// previous one for the same user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			helpers.BurnCompare(password)
			return nil, TokenPair{}, apperror.InvalidCredentials()
		}
		return nil, TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, apperror.InvalidCredentials()
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// issueTokens generates access/refresh tokens and records the session.
func (s *AuthService) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.sign(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	now := time.Now().UTC()
	sess := &entity.Session{
		UserID:    u.ID,
		SessionID: sid,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Sessions.Save(ctx, sess, s.SessionTTL); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("save session failed")
		}
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *AuthService) sign(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh validates the refresh token against the live session, then rotates
// the session id so the old token pair stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, apperror.Unauthenticated()
	}
	sess, err := s.Sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, TokenPair{}, apperror.Unauthenticated()
		}
		return nil, TokenPair{}, err
	}
	if sess.SessionID != claims.SessionID {
		return nil, TokenPair{}, apperror.Unauthenticated()
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, TokenPair{}, apperror.Unauthenticated()
		}
		return nil, TokenPair{}, err
	}

	sid := uuid.NewString()
	pair, err := s.sign(u.ID, sid)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.Sessions.Rotate(ctx, u.ID, claims.SessionID, sid, s.SessionTTL); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, TokenPair{}, apperror.Unauthenticated()
		}
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Authenticate turns an access token into an Actor. The token's sid must
// match the stored session and the role is resolved from the user record on
// every call, so role changes apply to the next request.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*rbac.Actor, error) {
	if accessToken == "" {
		return nil, apperror.Unauthenticated()
	}
	claims, err := s.JWT.ParseAccessToken(accessToken)
	if err != nil {
		return nil, apperror.Unauthenticated()
	}
	sess, err := s.Sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated()
		}
		return nil, err
	}
	if sess.SessionID != claims.SessionID {
		return nil, apperror.Unauthenticated()
	}
	role, err := s.Resolver.Resolve(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &rbac.Actor{
		UserID:    claims.UserID,
		Username:  sess.Username,
		SessionID: sess.SessionID,
		Role:      role,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, a *rbac.Actor) error {
	if a == nil || a.UserID == "" {
		return apperror.Unauthenticated()
	}
	return s.Sessions.Delete(ctx, a.UserID)
}

// ChangePassword replaces the caller's credential. The current session is
// left untouched so the caller stays signed in.
func (s *AuthService) ChangePassword(ctx context.Context, a *rbac.Actor, oldPassword, newPassword string, meta RequestMeta) error {
	if a == nil || a.UserID == "" {
		return apperror.Unauthenticated()
	}
	u, err := s.Users.GetByID(ctx, a.UserID)
	if err != nil {
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, oldPassword) {
		return apperror.Validation("current password is incorrect", map[string]string{"old_password": "is incorrect"})
	}
	if err := validation.CheckPassword("new_password", newPassword); err != nil {
		return err
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "request_id": a.RequestID}).Info("password changed")
	}
	s.Notifier.PasswordChanged(ctx, u, meta)
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, a *rbac.Actor) (*entity.User, error) {
	if a == nil || a.UserID == "" {
		return nil, apperror.Unauthenticated()
	}
	return s.Users.GetByID(ctx, a.UserID)
}

// UpdateProfileInput uses pointers so absent fields are left unchanged.
type UpdateProfileInput struct {
	Email     *string `json:"email" validate:"omitnil,email,max=254"`
	Bio       *string `json:"bio" validate:"omitnil,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, a *rbac.Actor, in UpdateProfileInput) (*entity.User, error) {
	if a == nil || a.UserID == "" {
		return nil, apperror.Unauthenticated()
	}
	if err := validateInput(in, nil); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		// a case-only change is allowed; lookups ignore case so it never conflicts with itself.
		email := strings.TrimSpace(*in.Email)
		if email != u.Email {
			if other, err := s.Users.GetByEmail(ctx, email); err == nil && other.ID != u.ID {
				return nil, apperror.Conflict("email already registered").WithField("email", "already registered")
			}
			u.Email = email
		}
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadAvatar stores the image and points the profile at its public URL.
// The object extension always follows the content type.
func (s *AuthService) UploadAvatar(ctx context.Context, a *rbac.Actor, r io.Reader, contentType string) (*entity.User, error) {
	if a == nil || a.UserID == "" {
		return nil, apperror.Unauthenticated()
	}
	ext, ok := avatarTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, apperror.Validation("unsupported image type", map[string]string{"avatar": "must be a jpeg, png, gif or webp image"})
	}
	if s.Uploader == nil {
		return nil, apperror.Validation("avatar uploads are not enabled", nil)
	}
	u, err := s.Users.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	objectPath := filepath.ToSlash(filepath.Join("avatars", u.ID, uuid.NewString()+ext))
	url, err := s.Uploader.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	u.AvatarURL = url
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
