package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

func newUser(t *testing.T, s *Store, username string, role entity.Role) *entity.User {
	t.Helper()
	u := &entity.User{Username: username, Email: username + "@example.com", Password: "hash", Role: role}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUserRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := s.Users()

	u := newUser(t, s, "ana", "")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, entity.DefaultRole, u.Role)

	err := users.Create(ctx, &entity.User{Username: "bob", Email: "ANA@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	err = users.Create(ctx, &entity.User{Username: "ana", Email: "other@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	got, err := users.GetByEmail(ctx, "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := newUser(t, s, "ana", entity.RoleMember)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Role = entity.RoleAdmin

	again, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, again.Role)
}

func TestUserRepositoryUpdateRole(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := newUser(t, s, "ana", entity.RoleMember)

	require.NoError(t, s.Users().UpdateRole(ctx, u.ID, entity.RoleLibrarian))
	got, _ := s.Users().GetByID(ctx, u.ID)
	assert.Equal(t, entity.RoleLibrarian, got.Role)

	assert.ErrorIs(t, s.Users().UpdateRole(ctx, u.ID, "OWNER"), apperror.ErrValidation)
	assert.ErrorIs(t, s.Users().UpdateRole(ctx, "missing", entity.RoleAdmin), apperror.ErrNotFound)
}

func TestFollowRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newUser(t, s, "ana", "")
	b := newUser(t, s, "bob", "")
	f := s.Follows()

	assert.ErrorIs(t, f.Follow(ctx, a.ID, a.ID), apperror.ErrValidation)

	require.NoError(t, f.Follow(ctx, a.ID, b.ID))
	require.NoError(t, f.Follow(ctx, a.ID, b.ID))

	followers, err := f.Followers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, a.ID, followers[0].ID)

	following, err := f.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)

	ok, _ := f.IsFollowing(ctx, b.ID, a.ID)
	assert.False(t, ok, "edges are directed")

	require.NoError(t, f.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, f.Unfollow(ctx, a.ID, b.ID))
	ok, _ = f.IsFollowing(ctx, a.ID, b.ID)
	assert.False(t, ok)

	assert.ErrorIs(t, f.Follow(ctx, a.ID, "missing"), apperror.ErrNotFound)
}

func seedCatalog(t *testing.T, s *Store) (*entity.Author, *entity.Author, []*entity.Book) {
	t.Helper()
	ctx := context.Background()
	leGuin := &entity.Author{Name: "Ursula K. Le Guin"}
	butler := &entity.Author{Name: "Octavia E. Butler"}
	require.NoError(t, s.Authors().Create(ctx, leGuin))
	require.NoError(t, s.Authors().Create(ctx, butler))

	books := []*entity.Book{
		{Title: "The Dispossessed", PublicationYear: 1974, AuthorID: leGuin.ID},
		{Title: "A Wizard of Earthsea", PublicationYear: 1968, AuthorID: leGuin.ID},
		{Title: "Kindred", PublicationYear: 1979, AuthorID: butler.ID},
	}
	for _, b := range books {
		require.NoError(t, s.Books().Create(ctx, b))
	}
	return leGuin, butler, books
}

func titles(bs []*entity.Book) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Title)
	}
	return out
}

func TestBookRepositoryList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	leGuin, _, _ := seedCatalog(t, s)
	books := s.Books()

	all, err := books.List(ctx, repository.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A Wizard of Earthsea", "Kindred", "The Dispossessed"}, titles(all))

	byYear, err := books.List(ctx, repository.BookFilter{Ordering: repository.OrderYearDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kindred", "The Dispossessed", "A Wizard of Earthsea"}, titles(byYear))

	byAuthor, err := books.List(ctx, repository.BookFilter{AuthorID: leGuin.ID})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)
	assert.Equal(t, "Ursula K. Le Guin", byAuthor[0].AuthorName)

	search, err := books.List(ctx, repository.BookFilter{Search: "butler"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kindred"}, titles(search))

	exact, err := books.List(ctx, repository.BookFilter{Title: "kindred"})
	require.NoError(t, err)
	assert.Empty(t, exact)

	paged, err := books.List(ctx, repository.BookFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kindred"}, titles(paged))

	past, err := books.List(ctx, repository.BookFilter{Offset: 10})
	require.NoError(t, err)
	assert.NotNil(t, past)
	assert.Empty(t, past)
}

func TestBookRepositoryRequiresAuthor(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.Books().Create(ctx, &entity.Book{Title: "Orphan", PublicationYear: 2000, AuthorID: "missing"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAuthorDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	leGuin, _, books := seedCatalog(t, s)

	lib := &entity.Library{Name: "Main"}
	require.NoError(t, s.Libraries().Create(ctx, lib))
	require.NoError(t, s.Libraries().AddBook(ctx, lib.ID, books[0].ID))
	require.NoError(t, s.Libraries().AddBook(ctx, lib.ID, books[2].ID))

	require.NoError(t, s.Authors().Delete(ctx, leGuin.ID))

	n, _ := s.Books().Count(ctx)
	assert.Equal(t, 1, n)
	shelf, err := s.Libraries().Books(ctx, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kindred"}, titles(shelf))
}

func TestLibraryShelf(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, _, books := seedCatalog(t, s)
	libs := s.Libraries()

	err := libs.Create(ctx, &entity.Library{Name: "Branch", LibrarianID: "missing"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	lib := &entity.Library{Name: "Branch"}
	require.NoError(t, libs.Create(ctx, lib))

	require.NoError(t, libs.AddBook(ctx, lib.ID, books[0].ID))
	require.NoError(t, libs.AddBook(ctx, lib.ID, books[0].ID))
	shelf, _ := libs.Books(ctx, lib.ID)
	assert.Len(t, shelf, 1)

	assert.ErrorIs(t, libs.AddBook(ctx, lib.ID, "missing"), apperror.ErrNotFound)
	require.NoError(t, libs.RemoveBook(ctx, lib.ID, "missing"))

	require.NoError(t, s.Books().Delete(ctx, books[0].ID))
	shelf, _ = libs.Books(ctx, lib.ID)
	assert.Empty(t, shelf)

	require.NoError(t, libs.Delete(ctx, lib.ID))
	_, err = libs.Books(ctx, lib.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	m := NewSessionStore()

	require.NoError(t, m.Save(ctx, &entity.Session{UserID: "u1", SessionID: "s1"}, time.Minute))
	got, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)

	require.NoError(t, m.Rotate(ctx, "u1", "s1", "s2", time.Minute))
	got, _ = m.Get(ctx, "u1")
	assert.Equal(t, "s2", got.SessionID)
	assert.ErrorIs(t, m.Rotate(ctx, "u1", "s1", "s3", time.Minute), apperror.ErrNotFound, "stale sid")
	got, _ = m.Get(ctx, "u1")
	assert.Equal(t, "s2", got.SessionID)

	require.NoError(t, m.Save(ctx, &entity.Session{UserID: "u2", SessionID: "x"}, -time.Second))
	_, err = m.Get(ctx, "u2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, m.Rotate(ctx, "u2", "x", "y", time.Minute), apperror.ErrNotFound)

	require.NoError(t, m.Delete(ctx, "u1"))
	_, err = m.Get(ctx, "u1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
