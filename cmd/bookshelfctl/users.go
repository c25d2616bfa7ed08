package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/validation"
)

func newCreateAdminCmd(a *app) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN account (prompts for anything not given as a flag)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(os.Stdin)
			var err error
			if username == "" {
				if username, err = promptLine(in, cmd.OutOrStdout(), "Username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = promptLine(in, cmd.OutOrStdout(), "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			repos, pool, err := a.repositories(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := createAdmin(ctx, repos.Users, username, email, password)
			if err != nil {
				return err
			}
			cmd.Printf("created admin id=%s username=%s\n", u.ID, u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().StringVar(&password, "password", "", "password (omit to be prompted)")
	return cmd
}

func createAdmin(ctx context.Context, users repo.UserRepository, username, email, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, errors.New("username and email are required")
	}
	if err := validation.CheckPassword("password", password); err != nil {
		return nil, err
	}
	if _, err := users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("username already taken").WithField("username", "already taken")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Username: username, Email: email, Password: hash, Role: entity.RoleAdmin}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func newSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <ADMIN|LIBRARIAN|MEMBER>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repos, pool, err := a.repositories(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			u, old, err := setRole(ctx, repos.Users, args[0], args[1])
			if err != nil {
				return err
			}
			cmd.Printf("%s: %s -> %s\n", u.Username, old, u.Role)
			return nil
		},
	}
}

func setRole(ctx context.Context, users repo.UserRepository, username, role string) (*entity.User, entity.Role, error) {
	r, ok := entity.ParseRole(role)
	if !ok {
		return nil, "", fmt.Errorf("unknown role %q", role)
	}
	u, err := users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	old := u.Role
	if old != r {
		if err := users.UpdateRole(ctx, u.ID, r); err != nil {
			return nil, "", err
		}
		u.Role = r
	}
	return u, old, nil
}
