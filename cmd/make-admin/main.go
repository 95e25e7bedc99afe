// Command make-admin grants administrator rights to existing accounts.
//
//	make-admin owner@example.com [more@example.com ...]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/fullcourse/fullcourse-api/internal/config"
	"github.com/fullcourse/fullcourse-api/internal/repository"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: make-admin EMAIL...")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	admin := service.NewAdminService(
		repository.NewUserRepository(db),
		repository.NewCourseRepository(db),
		repository.NewCommentRepository(db),
		repository.NewSubmissionRepository(db),
	)

	ctx := context.Background()
	failed := false
	for _, email := range os.Args[1:] {
		promoted, err := admin.Promote(ctx, email)
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			slog.Error("no account for email", "email", email)
			failed = true
		case err != nil:
			slog.Error("promotion failed", "email", email, "error", err)
			failed = true
		case promoted:
			slog.Info("promoted to admin", "email", email)
		default:
			slog.Info("already an admin", "email", email)
		}
	}
	if failed {
		db.Close()
		os.Exit(1)
	}
}
