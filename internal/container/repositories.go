package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
	"github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/postgres"
	"github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/redisstore"
)

// Repositories is the full set of stores the services are built on.
type Repositories struct {
	Users     repository.UserRepository
	Follows   repository.FollowRepository
	Authors   repository.AuthorRepository
	Books     repository.BookRepository
	Libraries repository.LibraryRepository
	Sessions  repository.SessionStore
}

// PostgresRepositories backs entities with Postgres and sessions with Redis.
// Without a redis client sessions fall back to process memory.
func PostgresRepositories(pool *pgxpool.Pool, rdb *redis.Client, logger *logrus.Logger) Repositories {
	r := Repositories{
		Users:     pginfra.NewUserRepository(pool),
		Follows:   pginfra.NewFollowRepository(pool),
		Authors:   pginfra.NewAuthorRepository(pool),
		Books:     pginfra.NewBookRepository(pool),
		Libraries: pginfra.NewLibraryRepository(pool),
	}
	if rdb != nil {
		r.Sessions = redisstore.NewSessionStore(rdb, logger)
	} else {
		r.Sessions = memory.NewSessionStore()
	}
	return r
}

// MemoryRepositories keeps everything in process; nothing survives a restart.
func MemoryRepositories() Repositories {
	s := memory.NewStore()
	return Repositories{
		Users:     s.Users(),
		Follows:   s.Follows(),
		Authors:   s.Authors(),
		Books:     s.Books(),
		Libraries: s.Libraries(),
		Sessions:  memory.NewSessionStore(),
	}
}
