package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-bookshelf-rbac/internal/container"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
)

type seedBook struct {
	Title string
	Year  int
}

var seedCatalog = []struct {
	Author string
	Books  []seedBook
}{
	{"Ursula K. Le Guin", []seedBook{{"A Wizard of Earthsea", 1968}, {"The Left Hand of Darkness", 1969}, {"The Dispossessed", 1974}}},
	{"Octavia E. Butler", []seedBook{{"Kindred", 1979}, {"Parable of the Sower", 1993}}},
	{"Italo Calvino", []seedBook{{"Invisible Cities", 1972}, {"If on a winter's night a traveler", 1979}}},
}

var seedUsers = []struct {
	Username string
	Email    string
	Role     entity.Role
}{
	{"admin", "admin@bookshelf.local", entity.RoleAdmin},
	{"librarian", "librarian@bookshelf.local", entity.RoleLibrarian},
	{"member", "member@bookshelf.local", entity.RoleMember},
}

// SeedReport counts what a seed run created; existing rows are left alone.
type SeedReport struct {
	Users     int
	Authors   int
	Books     int
	Libraries int
}

func newSeedCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users, authors, books and a library (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repos, pool, err := a.repositories(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			rep, err := seed(ctx, repos, password, a.logger)
			if err != nil {
				return err
			}
			cmd.Printf("seeded users=%d authors=%d books=%d libraries=%d\n", rep.Users, rep.Authors, rep.Books, rep.Libraries)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "Password123", "password for every demo account")
	return cmd
}

func seed(ctx context.Context, repos container.Repositories, password string, logger *logrus.Logger) (SeedReport, error) {
	var rep SeedReport

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return rep, err
	}
	var librarianID string
	for _, su := range seedUsers {
		u, err := repos.Users.GetByUsername(ctx, su.Username)
		if errors.Is(err, apperror.ErrNotFound) {
			u = &entity.User{Username: su.Username, Email: su.Email, Password: hash, Role: su.Role}
			if err = repos.Users.Create(ctx, u); err == nil {
				rep.Users++
			}
		}
		if err != nil {
			return rep, err
		}
		if su.Role == entity.RoleLibrarian {
			librarianID = u.ID
		}
	}

	authors, err := repos.Authors.List(ctx)
	if err != nil {
		return rep, err
	}
	byName := make(map[string]*entity.Author, len(authors))
	for _, au := range authors {
		byName[au.Name] = au
	}

	var shelf []string
	for _, sc := range seedCatalog {
		au, ok := byName[sc.Author]
		if !ok {
			au = &entity.Author{Name: sc.Author}
			if err := repos.Authors.Create(ctx, au); err != nil {
				return rep, err
			}
			rep.Authors++
		}
		existing, err := repos.Books.List(ctx, repo.BookFilter{AuthorID: au.ID})
		if err != nil {
			return rep, err
		}
		titles := make(map[string]string, len(existing))
		for _, b := range existing {
			titles[b.Title] = b.ID
		}
		for _, sb := range sc.Books {
			id, ok := titles[sb.Title]
			if !ok {
				b := &entity.Book{Title: sb.Title, PublicationYear: sb.Year, AuthorID: au.ID}
				if err := repos.Books.Create(ctx, b); err != nil {
					return rep, err
				}
				id = b.ID
				rep.Books++
			}
			shelf = append(shelf, id)
		}
	}

	libs, err := repos.Libraries.List(ctx)
	if err != nil {
		return rep, err
	}
	var home *entity.Library
	for _, l := range libs {
		if l.Name == "Main Library" {
			home = l
			break
		}
	}
	if home == nil {
		home = &entity.Library{Name: "Main Library", LibrarianID: librarianID}
		if err := repos.Libraries.Create(ctx, home); err != nil {
			return rep, err
		}
		rep.Libraries++
	}
	for _, id := range shelf {
		if err := repos.Libraries.AddBook(ctx, home.ID, id); err != nil {
			return rep, err
		}
	}

	helpers.LogInfo(logger, "seed complete", logrus.Fields{
		"users": rep.Users, "authors": rep.Authors, "books": rep.Books, "libraries": rep.Libraries,
	})
	return rep, nil
}
