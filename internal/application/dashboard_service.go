package application

import (
	"context"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

const dashboardBooks = 20

// DashboardService assembles the per-role landing view. Each section is
// included only when the actor holds the capability behind it.
type DashboardService struct {
	Users     repo.UserRepository
	Books     repo.BookRepository
	Libraries repo.LibraryRepository
	Guard     *Guard
}

func NewDashboardService(users repo.UserRepository, books repo.BookRepository, libraries repo.LibraryRepository, guard *Guard) *DashboardService {
	return &DashboardService{Users: users, Books: books, Libraries: libraries, Guard: guard}
}

type Stats struct {
	Users     int `json:"users"`
	Books     int `json:"books"`
	Libraries int `json:"libraries"`
}

type Shelf struct {
	Library *entity.Library
	Books   []*entity.Book
}

type Dashboard struct {
	Role         entity.Role
	Capabilities []rbac.Capability
	Stats        *Stats
	Libraries    []Shelf
	Books        []*entity.Book
}

func (s *DashboardService) Dashboard(ctx context.Context, a *rbac.Actor) (*Dashboard, error) {
	if err := s.Guard.Authenticated(a); err != nil {
		return nil, err
	}
	d := &Dashboard{Role: a.Role, Capabilities: s.Guard.Capabilities(a)}

	if s.Guard.Can(a, rbac.ActionView, rbac.ResourceReport) {
		st, err := s.stats(ctx)
		if err != nil {
			return nil, err
		}
		d.Stats = st
	}
	if s.Guard.Can(a, rbac.ActionUpdate, rbac.ResourceLibrary) {
		libs, err := s.Libraries.List(ctx)
		if err != nil {
			return nil, err
		}
		d.Libraries = make([]Shelf, 0, len(libs))
		for _, l := range libs {
			books, err := s.Libraries.Books(ctx, l.ID)
			if err != nil {
				return nil, err
			}
			d.Libraries = append(d.Libraries, Shelf{Library: l, Books: books})
		}
	}
	if s.Guard.Can(a, rbac.ActionView, rbac.ResourceBook) {
		books, err := s.Books.List(ctx, repo.BookFilter{Ordering: repo.OrderTitle, Limit: dashboardBooks})
		if err != nil {
			return nil, err
		}
		d.Books = books
	}
	return d, nil
}

func (s *DashboardService) stats(ctx context.Context) (*Stats, error) {
	users, err := s.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.Books.Count(ctx)
	if err != nil {
		return nil, err
	}
	libs, err := s.Libraries.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Users: users, Books: books, Libraries: libs}, nil
}
