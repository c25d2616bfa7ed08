package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
)

func TestGuardPermissions(t *testing.T) {
	g := NewGuard(nil, nil)
	tests := []struct {
		role entity.Role
		res  rbac.Resource
		want Permissions
	}{
		{entity.RoleAdmin, rbac.ResourceBook, Permissions{CanAdd: true, CanEdit: true, CanDelete: true}},
		{entity.RoleLibrarian, rbac.ResourceBook, Permissions{CanAdd: true, CanEdit: true, CanDelete: true}},
		{entity.RoleLibrarian, rbac.ResourceAuthor, Permissions{CanAdd: true, CanEdit: true}},
		{entity.RoleLibrarian, rbac.ResourceLibrary, Permissions{}},
		{entity.RoleMember, rbac.ResourceBook, Permissions{}},
		{entity.RoleAdmin, rbac.ResourceLibrary, Permissions{CanAdd: true, CanEdit: true, CanDelete: true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.res), func(t *testing.T) {
			a := &rbac.Actor{UserID: "u1", Role: tt.role}
			assert.Equal(t, tt.want, g.Permissions(a, tt.res))
		})
	}
	assert.Equal(t, Permissions{}, g.Permissions(nil, rbac.ResourceBook))
}

func TestGuardAuthorize(t *testing.T) {
	g := NewGuard(nil, nil)

	assert.ErrorIs(t, g.Authorize(nil, rbac.ActionView, rbac.ResourceBook), apperror.ErrUnauthenticated)
	assert.ErrorIs(t, g.Authorize(&rbac.Actor{Role: entity.RoleAdmin}, rbac.ActionView, rbac.ResourceBook), apperror.ErrUnauthenticated)

	member := &rbac.Actor{UserID: "u1", Role: entity.RoleMember}
	assert.NoError(t, g.Authorize(member, rbac.ActionView, rbac.ResourceBook))
	err := g.Authorize(member, rbac.ActionDelete, rbac.ResourceBook)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, "you do not have permission to delete book", apperror.PublicMessage(err, ""))

	denied := &rbac.Actor{UserID: "u2", Role: entity.Role("GUEST")}
	assert.ErrorIs(t, g.Authorize(denied, rbac.ActionView, rbac.ResourceBook), apperror.ErrUnauthorized)
}

func TestGuardCapabilities(t *testing.T) {
	g := NewGuard(nil, nil)
	assert.Empty(t, g.Capabilities(nil))
	assert.Len(t, g.Capabilities(&rbac.Actor{UserID: "u1", Role: entity.RoleAdmin}), len(rbac.AllCapabilities()))
	assert.Contains(t, g.Capabilities(&rbac.Actor{UserID: "u1", Role: entity.RoleMember}), rbac.Capability("book.view"))
}
