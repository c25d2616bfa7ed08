// Package memory provides in-process implementations of the repository
// interfaces. They back STORE_DRIVER=memory and the test suites.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

type edge struct {
	follower string
	followee string
}

// Store holds every table behind a single lock; each operation is atomic.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*entity.User
	authors   map[string]*entity.Author
	books     map[string]*entity.Book
	libraries map[string]*entity.Library
	shelves   map[string]map[string]struct{}
	follows   map[edge]struct{}
}

func NewStore() *Store {
	return &Store{
		users:     map[string]*entity.User{},
		authors:   map[string]*entity.Author{},
		books:     map[string]*entity.Book{},
		libraries: map[string]*entity.Library{},
		shelves:   map[string]map[string]struct{}{},
		follows:   map[edge]struct{}{},
	}
}

func (s *Store) Users() repository.UserRepository        { return &UserRepository{s: s} }
func (s *Store) Follows() repository.FollowRepository    { return &FollowRepository{s: s} }
func (s *Store) Authors() repository.AuthorRepository    { return &AuthorRepository{s: s} }
func (s *Store) Books() repository.BookRepository        { return &BookRepository{s: s} }
func (s *Store) Libraries() repository.LibraryRepository { return &LibraryRepository{s: s} }

func newID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }
