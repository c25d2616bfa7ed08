package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

type AuthorRepository struct {
	pool *pgxpool.Pool
}

func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

func (r *AuthorRepository) Create(ctx context.Context, a *entity.Author) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO authors (name) VALUES ($1)
		RETURNING id, created_at, updated_at
	`, a.Name)
	return mapErr(row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt), "author")
}

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*entity.Author, error) {
	if !validID(id) {
		return nil, apperror.NotFound("author")
	}
	a := &entity.Author{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM authors WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "author")
	}
	return a, nil
}

func (r *AuthorRepository) Update(ctx context.Context, a *entity.Author) error {
	if !validID(a.ID) {
		return apperror.NotFound("author")
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE authors SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING created_at, updated_at
	`, a.Name, a.ID)
	return mapErr(row.Scan(&a.CreatedAt, &a.UpdatedAt), "author")
}

// Delete relies on ON DELETE CASCADE from books.author_id.
func (r *AuthorRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "authors", id, "author")
}

func (r *AuthorRepository) List(ctx context.Context) ([]*entity.Author, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM authors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.Author{}
	for rows.Next() {
		a := &entity.Author{}
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ repository.AuthorRepository = (*AuthorRepository)(nil)

func deleteByID(ctx context.Context, pool *pgxpool.Pool, table, id, what string) error {
	if !validID(id) {
		return apperror.NotFound(what)
	}
	res, err := pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, what)
	}
	if res.RowsAffected() == 0 {
		return apperror.NotFound(what)
	}
	return nil
}

const bookSelect = `
	SELECT b.id, b.title, b.publication_year, b.author_id, a.name, b.created_at, b.updated_at
	FROM books b JOIN authors a ON a.id = b.author_id`

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func scanBook(row pgx.Row) (*entity.Book, error) {
	b := &entity.Book{}
	if err := row.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AuthorID, &b.AuthorName, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func collectBooks(rows pgx.Rows) ([]*entity.Book, error) {
	defer rows.Close()
	out := []*entity.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookRepository) Create(ctx context.Context, b *entity.Book) error {
	if !validID(b.AuthorID) {
		return apperror.NotFound("author")
	}
	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO books (title, publication_year, author_id)
			VALUES ($1, $2, $3)
			RETURNING id, author_id, created_at, updated_at
		)
		SELECT i.id, a.name, i.created_at, i.updated_at
		FROM inserted i JOIN authors a ON a.id = i.author_id
	`, b.Title, b.PublicationYear, b.AuthorID)
	return mapErr(row.Scan(&b.ID, &b.AuthorName, &b.CreatedAt, &b.UpdatedAt), "book")
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	if !validID(id) {
		return nil, apperror.NotFound("book")
	}
	b, err := scanBook(r.pool.QueryRow(ctx, bookSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "book")
	}
	return b, nil
}

func (r *BookRepository) Update(ctx context.Context, b *entity.Book) error {
	if !validID(b.ID) {
		return apperror.NotFound("book")
	}
	if !validID(b.AuthorID) {
		return apperror.NotFound("author")
	}
	row := r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE books SET title = $1, publication_year = $2, author_id = $3, updated_at = now()
			WHERE id = $4
			RETURNING author_id, created_at, updated_at
		)
		SELECT a.name, u.created_at, u.updated_at
		FROM updated u JOIN authors a ON a.id = u.author_id
	`, b.Title, b.PublicationYear, b.AuthorID, b.ID)
	return mapErr(row.Scan(&b.AuthorName, &b.CreatedAt, &b.UpdatedAt), "book")
}

// Delete relies on ON DELETE CASCADE from library_books.book_id.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "books", id, "book")
}

var bookOrderings = map[string]string{
	"":                       "b.title ASC, b.id",
	repository.OrderTitle:    "b.title ASC, b.id",
	repository.OrderTitleD:   "b.title DESC, b.id",
	repository.OrderYear:     "b.publication_year ASC, b.id",
	repository.OrderYearDesc: "b.publication_year DESC, b.id",
}

func (r *BookRepository) List(ctx context.Context, f repository.BookFilter) ([]*entity.Book, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Title != "" {
		where = append(where, "b.title = "+arg(f.Title))
	}
	if f.AuthorID != "" {
		if !validID(f.AuthorID) {
			return []*entity.Book{}, nil
		}
		where = append(where, "b.author_id = "+arg(f.AuthorID))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		where = append(where, "(b.title ILIKE "+p+" OR a.name ILIKE "+p+")")
	}
	order, ok := bookOrderings[f.Ordering]
	if !ok {
		return nil, apperror.Validation("invalid ordering", map[string]string{"ordering": "unsupported value"})
	}

	sql := bookSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY " + order
	if f.Limit > 0 {
		sql += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		sql += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

func (r *BookRepository) ListByIDs(ctx context.Context, ids []string) ([]*entity.Book, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*entity.Book{}, nil
	}
	rows, err := r.pool.Query(ctx, bookSelect+` WHERE b.id = ANY($1::uuid[])`, valid)
	if err != nil {
		return nil, err
	}
	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}
	// keep the caller's order (search relevance)
	byID := make(map[string]*entity.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]*entity.Book, 0, len(books))
	for _, id := range valid {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BookRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ repository.BookRepository = (*BookRepository)(nil)

type LibraryRepository struct {
	pool *pgxpool.Pool
}

func NewLibraryRepository(pool *pgxpool.Pool) *LibraryRepository {
	return &LibraryRepository{pool: pool}
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (r *LibraryRepository) Create(ctx context.Context, l *entity.Library) error {
	if l.LibrarianID != "" && !validID(l.LibrarianID) {
		return apperror.NotFound("librarian")
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO libraries (name, librarian_id) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, l.Name, nullableID(l.LibrarianID))
	return mapErr(row.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt), "library")
}

func scanLibrary(row pgx.Row) (*entity.Library, error) {
	l := &entity.Library{}
	var librarian *string
	if err := row.Scan(&l.ID, &l.Name, &librarian, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if librarian != nil {
		l.LibrarianID = *librarian
	}
	return l, nil
}

func (r *LibraryRepository) GetByID(ctx context.Context, id string) (*entity.Library, error) {
	if !validID(id) {
		return nil, apperror.NotFound("library")
	}
	l, err := scanLibrary(r.pool.QueryRow(ctx, `
		SELECT id, name, librarian_id, created_at, updated_at FROM libraries WHERE id = $1
	`, id))
	if err != nil {
		return nil, mapErr(err, "library")
	}
	return l, nil
}

func (r *LibraryRepository) Update(ctx context.Context, l *entity.Library) error {
	if !validID(l.ID) {
		return apperror.NotFound("library")
	}
	if l.LibrarianID != "" && !validID(l.LibrarianID) {
		return apperror.NotFound("librarian")
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE libraries SET name = $1, librarian_id = $2, updated_at = now()
		WHERE id = $3
		RETURNING created_at, updated_at
	`, l.Name, nullableID(l.LibrarianID), l.ID)
	return mapErr(row.Scan(&l.CreatedAt, &l.UpdatedAt), "library")
}

func (r *LibraryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "libraries", id, "library")
}

func (r *LibraryRepository) List(ctx context.Context) ([]*entity.Library, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, librarian_id, created_at, updated_at FROM libraries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.Library{}
	for rows.Next() {
		l, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LibraryRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM libraries`).Scan(&n)
	return n, err
}

func (r *LibraryRepository) AddBook(ctx context.Context, libraryID, bookID string) error {
	if !validID(libraryID) {
		return apperror.NotFound("library")
	}
	if !validID(bookID) {
		return apperror.NotFound("book")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO library_books (library_id, book_id) VALUES ($1, $2)
		ON CONFLICT (library_id, book_id) DO NOTHING
	`, libraryID, bookID)
	return mapErr(err, "library")
}

func (r *LibraryRepository) RemoveBook(ctx context.Context, libraryID, bookID string) error {
	if _, err := r.GetByID(ctx, libraryID); err != nil {
		return err
	}
	if !validID(bookID) {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM library_books WHERE library_id = $1 AND book_id = $2`, libraryID, bookID)
	return err
}

func (r *LibraryRepository) Books(ctx context.Context, libraryID string) ([]*entity.Book, error) {
	if _, err := r.GetByID(ctx, libraryID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, bookSelect+`
		JOIN library_books lb ON lb.book_id = b.id
		WHERE lb.library_id = $1
		ORDER BY b.title, b.id
	`, libraryID)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

var _ repository.LibraryRepository = (*LibraryRepository)(nil)
