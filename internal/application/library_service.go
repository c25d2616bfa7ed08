package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

// LibraryService manages libraries and the books shelved in them.
type LibraryService struct {
	Libraries repo.LibraryRepository
	Users     repo.UserRepository
	Guard     *Guard
	Logger    *logrus.Logger
}

func NewLibraryService(libraries repo.LibraryRepository, users repo.UserRepository, guard *Guard, logger *logrus.Logger) *LibraryService {
	return &LibraryService{Libraries: libraries, Users: users, Guard: guard, Logger: logger}
}

type LibraryInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	LibrarianID string `json:"librarian_id"`
}

// LibraryDetail is a library with its shelf and assigned librarian.
type LibraryDetail struct {
	Library   *entity.Library
	Librarian *entity.User
	Books     []*entity.Book
}

func (s *LibraryService) ListLibraries(ctx context.Context, a *rbac.Actor) ([]*entity.Library, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceLibrary); err != nil {
		return nil, err
	}
	return s.Libraries.List(ctx)
}

func (s *LibraryService) GetLibrary(ctx context.Context, a *rbac.Actor, id string) (*LibraryDetail, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceLibrary); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

func (s *LibraryService) detail(ctx context.Context, id string) (*LibraryDetail, error) {
	l, err := s.Libraries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	books, err := s.Libraries.Books(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	d := &LibraryDetail{Library: l, Books: books}
	if l.LibrarianID != "" {
		if u, err := s.Users.GetByID(ctx, l.LibrarianID); err == nil {
			d.Librarian = u
		}
	}
	return d, nil
}

func (s *LibraryService) CreateLibrary(ctx context.Context, a *rbac.Actor, in LibraryInput) (*entity.Library, error) {
	if err := s.Guard.Authorize(a, rbac.ActionCreate, rbac.ResourceLibrary); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	l := &entity.Library{Name: in.Name, LibrarianID: in.LibrarianID}
	if err := s.Libraries.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LibraryService) UpdateLibrary(ctx context.Context, a *rbac.Actor, id string, in LibraryInput) (*entity.Library, error) {
	if err := s.Guard.Authorize(a, rbac.ActionUpdate, rbac.ResourceLibrary); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	l := &entity.Library{ID: id, Name: in.Name, LibrarianID: in.LibrarianID}
	if err := s.Libraries.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// validate checks the payload and that the assigned librarian, if any,
// exists and holds a staff role.
func (s *LibraryService) validate(ctx context.Context, in *LibraryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.LibrarianID = strings.TrimSpace(in.LibrarianID)
	if err := validateInput(in, nil); err != nil {
		return err
	}
	if in.LibrarianID == "" {
		return nil
	}
	u, err := s.Users.GetByID(ctx, in.LibrarianID)
	if err != nil {
		return apperror.NotFound("librarian")
	}
	if u.Role == entity.RoleMember {
		return apperror.Validation("invalid librarian", map[string]string{"librarian_id": "user is not a librarian"})
	}
	return nil
}

func (s *LibraryService) DeleteLibrary(ctx context.Context, a *rbac.Actor, id string) error {
	if err := s.Guard.Authorize(a, rbac.ActionDelete, rbac.ResourceLibrary); err != nil {
		return err
	}
	return s.Libraries.Delete(ctx, id)
}

// AddBook shelves a book; shelving it twice is a no-op.
func (s *LibraryService) AddBook(ctx context.Context, a *rbac.Actor, libraryID, bookID string) (*LibraryDetail, error) {
	if err := s.Guard.Authorize(a, rbac.ActionUpdate, rbac.ResourceLibrary); err != nil {
		return nil, err
	}
	if err := s.Libraries.AddBook(ctx, libraryID, bookID); err != nil {
		return nil, err
	}
	return s.detail(ctx, libraryID)
}

// RemoveBook unshelves a book; removing an absent book is a no-op.
func (s *LibraryService) RemoveBook(ctx context.Context, a *rbac.Actor, libraryID, bookID string) (*LibraryDetail, error) {
	if err := s.Guard.Authorize(a, rbac.ActionUpdate, rbac.ResourceLibrary); err != nil {
		return nil, err
	}
	if err := s.Libraries.RemoveBook(ctx, libraryID, bookID); err != nil {
		return nil, err
	}
	return s.detail(ctx, libraryID)
}
