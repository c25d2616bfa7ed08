package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

type AuthorRepository struct {
	s *Store
}

func (r *AuthorRepository) Create(_ context.Context, a *entity.Author) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = newID()
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	c := *a
	r.s.authors[a.ID] = &c
	return nil
}

func (r *AuthorRepository) GetByID(_ context.Context, id string) (*entity.Author, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.authors[id]
	if !ok {
		return nil, apperror.NotFound("author")
	}
	c := *a
	return &c, nil
}

func (r *AuthorRepository) Update(_ context.Context, a *entity.Author) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.authors[a.ID]
	if !ok {
		return apperror.NotFound("author")
	}
	cur.Name = a.Name
	cur.UpdatedAt = now()
	*a = *cur
	return nil
}

func (r *AuthorRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.authors[id]; !ok {
		return apperror.NotFound("author")
	}
	delete(r.s.authors, id)
	for bid, b := range r.s.books {
		if b.AuthorID == id {
			r.s.deleteBookLocked(bid)
		}
	}
	return nil
}

func (r *AuthorRepository) List(_ context.Context) ([]*entity.Author, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Author, 0, len(r.s.authors))
	for _, a := range r.s.authors {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var _ repository.AuthorRepository = (*AuthorRepository)(nil)

type BookRepository struct {
	s *Store
}

// bookLocked returns a copy of the book with AuthorName resolved.
func (s *Store) bookLocked(b *entity.Book) *entity.Book {
	c := *b
	if a, ok := s.authors[b.AuthorID]; ok {
		c.AuthorName = a.Name
	}
	return &c
}

func (s *Store) deleteBookLocked(id string) {
	delete(s.books, id)
	for _, shelf := range s.shelves {
		delete(shelf, id)
	}
}

func (r *BookRepository) Create(_ context.Context, b *entity.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.authors[b.AuthorID]; !ok {
		return apperror.NotFound("author")
	}
	b.ID = newID()
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	c := *b
	c.AuthorName = ""
	r.s.books[b.ID] = &c
	b.AuthorName = r.s.authors[b.AuthorID].Name
	return nil
}

func (r *BookRepository) GetByID(_ context.Context, id string) (*entity.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[id]
	if !ok {
		return nil, apperror.NotFound("book")
	}
	return r.s.bookLocked(b), nil
}

func (r *BookRepository) Update(_ context.Context, b *entity.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.books[b.ID]
	if !ok {
		return apperror.NotFound("book")
	}
	if _, ok := r.s.authors[b.AuthorID]; !ok {
		return apperror.NotFound("author")
	}
	cur.Title = b.Title
	cur.PublicationYear = b.PublicationYear
	cur.AuthorID = b.AuthorID
	cur.UpdatedAt = now()
	*b = *r.s.bookLocked(cur)
	return nil
}

func (r *BookRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.books[id]; !ok {
		return apperror.NotFound("book")
	}
	r.s.deleteBookLocked(id)
	return nil
}

func (r *BookRepository) List(_ context.Context, f repository.BookFilter) ([]*entity.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []*entity.Book{}
	for _, b := range r.s.books {
		bk := r.s.bookLocked(b)
		if f.Title != "" && bk.Title != f.Title {
			continue
		}
		if f.AuthorID != "" && bk.AuthorID != f.AuthorID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(bk.Title), search) &&
			!strings.Contains(strings.ToLower(bk.AuthorName), search) {
			continue
		}
		out = append(out, bk)
	}
	sortBooks(out, f.Ordering)
	return page(out, f.Limit, f.Offset), nil
}

func (r *BookRepository) ListByIDs(_ context.Context, ids []string) ([]*entity.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.s.books[id]; ok {
			out = append(out, r.s.bookLocked(b))
		}
	}
	return out, nil
}

func (r *BookRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.books), nil
}

func sortBooks(bs []*entity.Book, ordering string) {
	var less func(a, b *entity.Book) bool
	switch ordering {
	case repository.OrderTitleD:
		less = func(a, b *entity.Book) bool { return a.Title > b.Title }
	case repository.OrderYear:
		less = func(a, b *entity.Book) bool { return a.PublicationYear < b.PublicationYear }
	case repository.OrderYearDesc:
		less = func(a, b *entity.Book) bool { return a.PublicationYear > b.PublicationYear }
	default:
		less = func(a, b *entity.Book) bool { return a.Title < b.Title }
	}
	sort.SliceStable(bs, func(i, j int) bool {
		if less(bs[i], bs[j]) {
			return true
		}
		if less(bs[j], bs[i]) {
			return false
		}
		return bs[i].ID < bs[j].ID
	})
}

func page(bs []*entity.Book, limit, offset int) []*entity.Book {
	if offset > 0 {
		if offset >= len(bs) {
			return []*entity.Book{}
		}
		bs = bs[offset:]
	}
	if limit > 0 && limit < len(bs) {
		bs = bs[:limit]
	}
	return bs
}

var _ repository.BookRepository = (*BookRepository)(nil)

type LibraryRepository struct {
	s *Store
}

func (r *LibraryRepository) Create(_ context.Context, l *entity.Library) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.LibrarianID != "" {
		if _, ok := r.s.users[l.LibrarianID]; !ok {
			return apperror.NotFound("librarian")
		}
	}
	l.ID = newID()
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	c := *l
	r.s.libraries[l.ID] = &c
	r.s.shelves[l.ID] = map[string]struct{}{}
	return nil
}

func (r *LibraryRepository) GetByID(_ context.Context, id string) (*entity.Library, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.libraries[id]
	if !ok {
		return nil, apperror.NotFound("library")
	}
	c := *l
	return &c, nil
}

func (r *LibraryRepository) Update(_ context.Context, l *entity.Library) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.libraries[l.ID]
	if !ok {
		return apperror.NotFound("library")
	}
	if l.LibrarianID != "" {
		if _, ok := r.s.users[l.LibrarianID]; !ok {
			return apperror.NotFound("librarian")
		}
	}
	cur.Name = l.Name
	cur.LibrarianID = l.LibrarianID
	cur.UpdatedAt = now()
	*l = *cur
	return nil
}

func (r *LibraryRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.libraries[id]; !ok {
		return apperror.NotFound("library")
	}
	delete(r.s.libraries, id)
	delete(r.s.shelves, id)
	return nil
}

func (r *LibraryRepository) List(_ context.Context) ([]*entity.Library, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Library, 0, len(r.s.libraries))
	for _, l := range r.s.libraries {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *LibraryRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.libraries), nil
}

func (r *LibraryRepository) AddBook(_ context.Context, libraryID, bookID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	shelf, ok := r.s.shelves[libraryID]
	if !ok {
		return apperror.NotFound("library")
	}
	if _, ok := r.s.books[bookID]; !ok {
		return apperror.NotFound("book")
	}
	shelf[bookID] = struct{}{}
	return nil
}

func (r *LibraryRepository) RemoveBook(_ context.Context, libraryID, bookID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	shelf, ok := r.s.shelves[libraryID]
	if !ok {
		return apperror.NotFound("library")
	}
	delete(shelf, bookID)
	return nil
}

func (r *LibraryRepository) Books(_ context.Context, libraryID string) ([]*entity.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shelf, ok := r.s.shelves[libraryID]
	if !ok {
		return nil, apperror.NotFound("library")
	}
	out := make([]*entity.Book, 0, len(shelf))
	for id := range shelf {
		if b, ok := r.s.books[id]; ok {
			out = append(out, r.s.bookLocked(b))
		}
	}
	sortBooks(out, repository.OrderTitle)
	return out, nil
}

var _ repository.LibraryRepository = (*LibraryRepository)(nil)
