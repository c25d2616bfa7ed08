package repository

import (
	"context"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

// Book orderings accepted by BookFilter.Ordering.
const (
	OrderTitle    = "title"
	OrderTitleD   = "-title"
	OrderYear     = "publication_year"
	OrderYearDesc = "-publication_year"
)

// ValidOrdering reports whether o is an accepted book ordering ("" included).
func ValidOrdering(o string) bool {
	switch o {
	case "", OrderTitle, OrderTitleD, OrderYear, OrderYearDesc:
		return true
	}
	return false
}

// BookFilter narrows book listings. Title is an exact match, Search a
// case-insensitive substring match on title or author name.
type BookFilter struct {
	Title    string
	AuthorID string
	Search   string
	Ordering string
	Limit    int
	Offset   int
}

type AuthorRepository interface {
	Create(ctx context.Context, a *entity.Author) error
	GetByID(ctx context.Context, id string) (*entity.Author, error)
	Update(ctx context.Context, a *entity.Author) error
	// Delete removes the author and every book written by them.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Author, error)
}

// BookRepository returns apperror.ErrNotFound when AuthorID does not resolve.
type BookRepository interface {
	Create(ctx context.Context, b *entity.Book) error
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f BookFilter) ([]*entity.Book, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Book, error)
	Count(ctx context.Context) (int, error)
}

type LibraryRepository interface {
	Create(ctx context.Context, l *entity.Library) error
	GetByID(ctx context.Context, id string) (*entity.Library, error)
	Update(ctx context.Context, l *entity.Library) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Library, error)
	Count(ctx context.Context) (int, error)
	// AddBook and RemoveBook are idempotent.
	AddBook(ctx context.Context, libraryID, bookID string) error
	RemoveBook(ctx context.Context, libraryID, bookID string) error
	Books(ctx context.Context, libraryID string) ([]*entity.Book, error)
}
