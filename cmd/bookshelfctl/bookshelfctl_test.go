package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-bookshelf-rbac/internal/container"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
)

func TestMain(m *testing.M) {
	helpers.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := container.MemoryRepositories()

	first, err := seed(ctx, repos, "Password123", nil)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{Users: 3, Authors: 3, Books: 7, Libraries: 1}, first)

	second, err := seed(ctx, repos, "Password123", nil)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{}, second)

	libs, err := repos.Libraries.List(ctx)
	require.NoError(t, err)
	require.Len(t, libs, 1)
	books, err := repos.Libraries.Books(ctx, libs[0].ID)
	require.NoError(t, err)
	assert.Len(t, books, 7)

	lib, err := repos.Users.GetByUsername(ctx, "librarian")
	require.NoError(t, err)
	assert.Equal(t, lib.ID, libs[0].LibrarianID)

	admin, err := repos.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.True(t, helpers.CompareHashAndPassword(admin.Password, "Password123"))
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	users := container.MemoryRepositories().Users

	u, err := createAdmin(ctx, users, " boss ", "boss@example.com", "Password123")
	require.NoError(t, err)
	assert.Equal(t, "boss", u.Username)
	assert.Equal(t, entity.RoleAdmin, u.Role)

	_, err = createAdmin(ctx, users, "boss", "other@example.com", "Password123")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = createAdmin(ctx, users, "weak", "weak@example.com", "password")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = createAdmin(ctx, users, "", "x@example.com", "Password123")
	assert.Error(t, err)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	users := container.MemoryRepositories().Users
	_, err := createAdmin(ctx, users, "boss", "boss@example.com", "Password123")
	require.NoError(t, err)

	u, old, err := setRole(ctx, users, "boss", "member")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, old)
	assert.Equal(t, entity.RoleMember, u.Role)

	stored, err := users.GetByUsername(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, stored.Role)

	_, _, err = setRole(ctx, users, "boss", "OWNER")
	assert.ErrorContains(t, err, "unknown role")

	_, _, err = setRole(ctx, users, "ghost", "ADMIN")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestPromptPassword(t *testing.T) {
	var out bytes.Buffer
	stubPasswords(t, "Password123\n", "Password123")
	pw, err := promptPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "Password123", pw)
	assert.Contains(t, out.String(), "Confirm password: ")

	stubPasswords(t, "Password123", "Password124")
	_, err = promptPassword(&out)
	assert.EqualError(t, err, "passwords do not match")

	stubPasswords(t)
	_, err = promptPassword(&out)
	assert.ErrorContains(t, err, "read password")
}

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader(" ana \nlast"))

	got, err := promptLine(r, &out, "Username: ")
	require.NoError(t, err)
	assert.Equal(t, "ana", got)

	got, err = promptLine(r, &out, "Email: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = promptLine(r, &out, "More: ")
	assert.Error(t, err)
	assert.Equal(t, "Username: Email: More: ", out.String())
}
