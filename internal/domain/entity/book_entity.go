package entity

import "time"

type Author struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Book always references an existing Author.
// AuthorName is filled by read queries and ignored on writes.
type Book struct {
	ID              string
	Title           string
	PublicationYear int
	AuthorID        string
	AuthorName      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Library groups books; a book may belong to any number of libraries.
type Library struct {
	ID          string
	Name        string
	LibrarianID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
