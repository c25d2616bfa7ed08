package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
)

// TestDashboardSectionsByRole tests that each section appears only for
// roles holding its capability.
func TestDashboardSectionsByRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "root", entity.RoleAdmin)
	lib := h.user(t, "liz", entity.RoleLibrarian)
	member := h.user(t, "ana", entity.RoleMember)

	b := h.book(t, admin, "Kindred", 1979)
	l, err := h.library.CreateLibrary(ctx, admin, LibraryInput{Name: "Central"})
	require.NoError(t, err)
	_, err = h.library.AddBook(ctx, admin, l.ID, b.ID)
	require.NoError(t, err)

	tests := []struct {
		name          string
		actor         *rbac.Actor
		wantStats     bool
		wantLibraries bool
	}{
		{name: "admin", actor: admin, wantStats: true, wantLibraries: true},
		{name: "librarian", actor: lib},
		{name: "member", actor: member},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := h.dashboard.Dashboard(ctx, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.actor.Role, d.Role)
			assert.Equal(t, h.guard.Capabilities(tt.actor), d.Capabilities)
			assert.Equal(t, tt.wantStats, d.Stats != nil)
			assert.Equal(t, tt.wantLibraries, d.Libraries != nil)
			require.Len(t, d.Books, 1)
			assert.Equal(t, "Kindred", d.Books[0].Title)
		})
	}

	d, err := h.dashboard.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Users: 3, Books: 1, Libraries: 1}, d.Stats)
	require.Len(t, d.Libraries, 1)
	assert.Equal(t, "Central", d.Libraries[0].Library.Name)
	require.Len(t, d.Libraries[0].Books, 1)
}

func TestDashboardRequiresActor(t *testing.T) {
	h := newHarness(t)
	_, err := h.dashboard.Dashboard(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
