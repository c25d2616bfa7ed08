package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// Migrator applies the SQL files in a directory through database/sql with the pgx stdlib driver.
type Migrator struct {
	db     *sql.DB
	m      *migrate.Migrate
	logger *logrus.Logger
}

func NewMigrator(dsn, migrationsDir string, logger *logrus.Logger) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Migrator{db: db, m: m, logger: logger}, nil
}

// Up applies every pending migration. No pending migrations is not an error.
func (g *Migrator) Up() error {
	g.logger.Info("running migrations...")
	err := g.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		g.logger.Info("no migrations to run")
		return nil
	}
	return err
}

// Down rolls back steps migrations.
func (g *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.New("steps must be positive")
	}
	err := g.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// RunMigrations is the startup path: open, apply, close.
func RunMigrations(dsn, migrationsDir string, logger *logrus.Logger) error {
	g, err := NewMigrator(dsn, migrationsDir, logger)
	if err != nil {
		return err
	}
	defer func() { _ = g.Close() }()
	return g.Up()
}
