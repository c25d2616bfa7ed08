package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

const (
	maxPageSize       = 100
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// BookSearcher is an optional full-text index over books.
// search.BookIndex satisfies it.
type BookSearcher interface {
	IndexBook(ctx context.Context, b *entity.Book) error
	RemoveBook(ctx context.Context, id string) error
	SearchBooks(ctx context.Context, q string, size int) ([]string, error)
}

// CatalogService manages authors and books.
type CatalogService struct {
	Authors repo.AuthorRepository
	Books   repo.BookRepository
	Guard   *Guard
	Search  BookSearcher
	Logger  *logrus.Logger
}

func NewCatalogService(authors repo.AuthorRepository, books repo.BookRepository, guard *Guard, search BookSearcher, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Authors: authors, Books: books, Guard: guard, Search: search, Logger: logger}
}

type BookInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	PublicationYear int    `json:"publication_year" validate:"required,gte=1"`
	AuthorID        string `json:"author_id" validate:"required"`
}

func (in *BookInput) normalize() map[string]string {
	in.Title = strings.TrimSpace(in.Title)
	in.AuthorID = strings.TrimSpace(in.AuthorID)
	if y := time.Now().Year(); in.PublicationYear > y {
		return map[string]string{"publication_year": "must not be after " + strconv.Itoa(y)}
	}
	return nil
}

func (s *CatalogService) ListBooks(ctx context.Context, a *rbac.Actor, f repo.BookFilter) ([]*entity.Book, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceBook); err != nil {
		return nil, err
	}
	if !repo.ValidOrdering(f.Ordering) {
		return nil, apperror.Validation("invalid ordering", map[string]string{
			"ordering": "must be one of: title, -title, publication_year, -publication_year",
		})
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, apperror.Validation("invalid pagination", map[string]string{"limit": "must not be negative", "offset": "must not be negative"})
	}
	if f.Limit == 0 || f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return s.Books.List(ctx, f)
}

// SearchBooks prefers the search index and falls back to the store's
// substring match when the index is absent or failing.
func (s *CatalogService) SearchBooks(ctx context.Context, a *rbac.Actor, q string, size int) ([]*entity.Book, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceBook); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("search query required", map[string]string{"q": "is required"})
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	if s.Search != nil {
		ids, err := s.Search.SearchBooks(ctx, q, size)
		if err == nil {
			return s.Books.ListByIDs(ctx, ids)
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("q", q).Warn("book index search failed, using store")
		}
	}
	return s.Books.List(ctx, repo.BookFilter{Search: q, Limit: size})
}

func (s *CatalogService) GetBook(ctx context.Context, a *rbac.Actor, id string) (*entity.Book, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceBook); err != nil {
		return nil, err
	}
	return s.Books.GetByID(ctx, id)
}

func (s *CatalogService) CreateBook(ctx context.Context, a *rbac.Actor, in BookInput) (*entity.Book, error) {
	if err := s.Guard.Authorize(a, rbac.ActionCreate, rbac.ResourceBook); err != nil {
		return nil, err
	}
	if err := validateInput(&in, in.normalize()); err != nil {
		return nil, err
	}
	b := &entity.Book{Title: in.Title, PublicationYear: in.PublicationYear, AuthorID: in.AuthorID}
	if err := s.Books.Create(ctx, b); err != nil {
		return nil, err
	}
	s.index(ctx, b)
	return b, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, a *rbac.Actor, id string, in BookInput) (*entity.Book, error) {
	if err := s.Guard.Authorize(a, rbac.ActionUpdate, rbac.ResourceBook); err != nil {
		return nil, err
	}
	if err := validateInput(&in, in.normalize()); err != nil {
		return nil, err
	}
	b := &entity.Book{ID: id, Title: in.Title, PublicationYear: in.PublicationYear, AuthorID: in.AuthorID}
	if err := s.Books.Update(ctx, b); err != nil {
		return nil, err
	}
	s.index(ctx, b)
	return b, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, a *rbac.Actor, id string) error {
	if err := s.Guard.Authorize(a, rbac.ActionDelete, rbac.ResourceBook); err != nil {
		return err
	}
	if err := s.Books.Delete(ctx, id); err != nil {
		return err
	}
	s.unindex(ctx, id)
	return nil
}

func (s *CatalogService) index(ctx context.Context, b *entity.Book) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexBook(ctx, b); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("book_id", b.ID).Warn("index book failed")
	}
}

func (s *CatalogService) unindex(ctx context.Context, id string) {
	if s.Search == nil {
		return
	}
	if err := s.Search.RemoveBook(ctx, id); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("book_id", id).Warn("unindex book failed")
	}
}

type AuthorInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// AuthorDetail is an author with every book they wrote.
type AuthorDetail struct {
	Author *entity.Author
	Books  []*entity.Book
}

func (s *CatalogService) ListAuthors(ctx context.Context, a *rbac.Actor) ([]*entity.Author, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceAuthor); err != nil {
		return nil, err
	}
	return s.Authors.List(ctx)
}

func (s *CatalogService) GetAuthor(ctx context.Context, a *rbac.Actor, id string) (*AuthorDetail, error) {
	if err := s.Guard.Authorize(a, rbac.ActionView, rbac.ResourceAuthor); err != nil {
		return nil, err
	}
	au, err := s.Authors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	books, err := s.Books.List(ctx, repo.BookFilter{AuthorID: au.ID, Ordering: repo.OrderYear})
	if err != nil {
		return nil, err
	}
	return &AuthorDetail{Author: au, Books: books}, nil
}

func (s *CatalogService) CreateAuthor(ctx context.Context, a *rbac.Actor, in AuthorInput) (*entity.Author, error) {
	if err := s.Guard.Authorize(a, rbac.ActionCreate, rbac.ResourceAuthor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(&in, nil); err != nil {
		return nil, err
	}
	au := &entity.Author{Name: in.Name}
	if err := s.Authors.Create(ctx, au); err != nil {
		return nil, err
	}
	return au, nil
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, a *rbac.Actor, id string, in AuthorInput) (*entity.Author, error) {
	if err := s.Guard.Authorize(a, rbac.ActionUpdate, rbac.ResourceAuthor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(&in, nil); err != nil {
		return nil, err
	}
	au := &entity.Author{ID: id, Name: in.Name}
	if err := s.Authors.Update(ctx, au); err != nil {
		return nil, err
	}
	s.reindexAuthor(ctx, au.ID)
	return au, nil
}

// DeleteAuthor removes the author together with their books.
func (s *CatalogService) DeleteAuthor(ctx context.Context, a *rbac.Actor, id string) error {
	if err := s.Guard.Authorize(a, rbac.ActionDelete, rbac.ResourceAuthor); err != nil {
		return err
	}
	var doomed []*entity.Book
	if s.Search != nil {
		doomed, _ = s.Books.List(ctx, repo.BookFilter{AuthorID: id})
	}
	if err := s.Authors.Delete(ctx, id); err != nil {
		return err
	}
	for _, b := range doomed {
		s.unindex(ctx, b.ID)
	}
	return nil
}

// reindexAuthor refreshes the author name stored with each indexed book.
func (s *CatalogService) reindexAuthor(ctx context.Context, authorID string) {
	if s.Search == nil {
		return
	}
	books, err := s.Books.List(ctx, repo.BookFilter{AuthorID: authorID})
	if err != nil {
		return
	}
	for _, b := range books {
		s.index(ctx, b)
	}
}
