package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	mailtpl "github.com/oksasatya/go-bookshelf-rbac/pkg/mailer/templates"
)

func TestRegisterCreatesMemberAndSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, pair, err := h.auth.Register(ctx, RegisterInput{Username: " ana ", Email: "ana@example.com", Password: testPassword, Bio: " reader "})
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "reader", u.Bio)
	assert.Equal(t, entity.RoleMember, u.Role)
	assert.NotEqual(t, testPassword, u.Password)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	a, err := h.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, a.UserID)
	assert.Equal(t, entity.RoleMember, a.Role)

	assert.Equal(t, []string{mailtpl.Welcome}, h.pub.templates())
}

func TestRegisterWeakPasswordCreatesNoUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: "password"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.FieldsOf(err), "password")

	n, err := h.store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, h.pub.templates())
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "ana", entity.RoleMember)

	_, _, err := h.auth.Register(ctx, RegisterInput{Username: "other", Email: "ANA@example.com", Password: testPassword})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, apperror.FieldsOf(err), "email")

	_, _, err = h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "new@example.com", Password: testPassword})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, apperror.FieldsOf(err), "username")

	n, _ := h.store.Users().Count(ctx)
	assert.Equal(t, 1, n)
}

func TestRegisterFieldErrors(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.auth.Register(context.Background(), RegisterInput{Username: "a b", Email: "not-an-email", Password: "weak"})
	require.ErrorIs(t, err, apperror.ErrValidation)

	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "ana", entity.RoleMember)

	_, _, err := h.auth.Login(ctx, "ana", "Wrong12345")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, _, err = h.auth.Login(ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	assert.Equal(t, "invalid username or password", apperror.PublicMessage(err, ""))
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "ana", entity.RoleMember)

	_, first, err := h.auth.Login(ctx, "ana", testPassword)
	require.NoError(t, err)
	_, second, err := h.auth.Login(ctx, "ana", testPassword)
	require.NoError(t, err)

	_, err = h.auth.Authenticate(ctx, first.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = h.auth.Authenticate(ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestRefreshRotatesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, pair, err := h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: testPassword})
	require.NoError(t, err)

	u, next, err := h.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	_, err = h.auth.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated, "old access token must stop working")
	_, _, err = h.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated, "old refresh token must stop working")

	_, err = h.auth.Authenticate(ctx, next.AccessToken)
	assert.NoError(t, err)

	_, _, err = h.auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, _, err = h.auth.Refresh(ctx, next.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated, "access token is not a refresh token")
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, pair, err := h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: testPassword})
	require.NoError(t, err)
	a, err := h.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, a))
	_, err = h.auth.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	assert.ErrorIs(t, h.auth.Logout(ctx, nil), apperror.ErrUnauthenticated)
}

func TestAuthenticateResolvesRoleEveryCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, pair, err := h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: testPassword})
	require.NoError(t, err)

	a, err := h.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, h.store.Users().UpdateRole(ctx, a.UserID, entity.RoleLibrarian))

	a, err = h.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleLibrarian, a.Role)

	_, err = h.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestChangePasswordKeepsSessionValid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, pair, err := h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: testPassword})
	require.NoError(t, err)
	a, err := h.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	err = h.auth.ChangePassword(ctx, a, testPassword, "NewSecret456", RequestMeta{IP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)

	_, err = h.auth.Authenticate(ctx, pair.AccessToken)
	assert.NoError(t, err, "the session that changed the password stays signed in")

	_, _, err = h.auth.Login(ctx, "ana", testPassword)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	_, _, err = h.auth.Login(ctx, "ana", "NewSecret456")
	assert.NoError(t, err)

	assert.Contains(t, h.pub.templates(), mailtpl.PasswordChanged)
}

func TestChangePasswordRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user(t, "ana", entity.RoleMember)

	err := h.auth.ChangePassword(ctx, a, "Wrong12345", "NewSecret456", RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.FieldsOf(err), "old_password")

	err = h.auth.ChangePassword(ctx, a, testPassword, "short", RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.FieldsOf(err), "new_password")

	_, _, err = h.auth.Login(ctx, "ana", testPassword)
	assert.NoError(t, err, "rejected changes leave the old password in place")

	assert.ErrorIs(t, h.auth.ChangePassword(ctx, nil, testPassword, "NewSecret456", RequestMeta{}), apperror.ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user(t, "ana", entity.RoleMember)
	h.user(t, "bob", entity.RoleMember)

	bio := "  likes maps "
	u, err := h.auth.UpdateProfile(ctx, a, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "likes maps", u.Bio)
	assert.Equal(t, "ana@example.com", u.Email, "absent fields are unchanged")

	taken := "bob@example.com"
	_, err = h.auth.UpdateProfile(ctx, a, UpdateProfileInput{Email: &taken})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	bad := "nope"
	_, err = h.auth.UpdateProfile(ctx, a, UpdateProfileInput{Email: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	fresh := "ana@books.example.com"
	u, err = h.auth.UpdateProfile(ctx, a, UpdateProfileInput{Email: &fresh})
	require.NoError(t, err)
	assert.Equal(t, fresh, u.Email)

	recased := "Ana@Books.example.com"
	u, err = h.auth.UpdateProfile(ctx, a, UpdateProfileInput{Email: &recased})
	require.NoError(t, err)
	assert.Equal(t, recased, u.Email)
	stored, err := h.store.Users().GetByID(ctx, a.UserID)
	require.NoError(t, err)
	assert.Equal(t, recased, stored.Email, "case-only change is persisted")

	bobCased := "BOB@example.com"
	_, err = h.auth.UpdateProfile(ctx, a, UpdateProfileInput{Email: &bobCased})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUploadAvatarIgnoresClientExtension(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user(t, "ana", entity.RoleMember)

	for _, ct := range []string{"image/png", "IMAGE/JPEG", "image/webp"} {
		_, err := h.auth.UploadAvatar(ctx, a, strings.NewReader("<html>"), ct)
		require.NoError(t, err, ct)
	}
	require.Len(t, h.uploader.paths, 3)
	assert.True(t, strings.HasSuffix(h.uploader.paths[0], ".png"))
	assert.True(t, strings.HasSuffix(h.uploader.paths[1], ".jpg"))
	assert.True(t, strings.HasSuffix(h.uploader.paths[2], ".webp"))
	for _, p := range h.uploader.paths {
		assert.NotContains(t, p, ".html")
	}
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, pair, err := h.auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: testPassword})
	require.NoError(t, err)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := h.auth.Refresh(ctx, pair.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestUploadAvatar(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user(t, "ana", entity.RoleMember)

	u, err := h.auth.UploadAvatar(ctx, a, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	require.Len(t, h.uploader.paths, 1)
	assert.True(t, strings.HasPrefix(h.uploader.paths[0], "avatars/"+a.UserID+"/"))
	assert.True(t, strings.HasSuffix(h.uploader.paths[0], ".png"))
	assert.Equal(t, "https://cdn.example.com/"+h.uploader.paths[0], u.AvatarURL)

	_, err = h.auth.UploadAvatar(ctx, a, strings.NewReader("x"), "application/pdf")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	h.auth.Uploader = nil
	_, err = h.auth.UploadAvatar(ctx, a, strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
