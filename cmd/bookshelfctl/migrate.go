package main

import (
	"github.com/spf13/cobra"

	pginfra "github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m *pginfra.Migrator) error { return m.Up() })
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m *pginfra.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m *pginfra.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func (a *app) withMigrator(fn func(*pginfra.Migrator) error) error {
	m, err := pginfra.NewMigrator(a.cfg.PostgresDSN(), a.cfg.MigrationsDir, a.logger)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}
