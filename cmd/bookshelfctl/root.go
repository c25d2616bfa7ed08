package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-bookshelf-rbac/config"
	"github.com/oksasatya/go-bookshelf-rbac/internal/container"
	pginfra "github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/postgres"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "bookshelfctl",
		Short:         "Maintenance commands for the bookshelf API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a.envFile != "" {
				_ = godotenv.Load(a.envFile)
			}
			a.cfg = config.Load()
			a.logger = helpers.NewLogger(a.cfg.AppName+"-ctl", a.cfg.Env)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newCreateAdminCmd(a),
		newSetRoleCmd(a),
	)
	return root
}

// repositories opens the Postgres pool. Sessions are not touched by any
// command, so they stay in memory.
func (a *app) repositories(ctx context.Context) (container.Repositories, *pgxpool.Pool, error) {
	pool, err := pginfra.NewPool(ctx, a.cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		return container.Repositories{}, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return container.PostgresRepositories(pool, nil, a.logger), pool, nil
}
