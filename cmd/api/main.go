package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fullcourse/fullcourse-api/internal/config"
	"github.com/fullcourse/fullcourse-api/internal/handler"
	"github.com/fullcourse/fullcourse-api/internal/mailer"
	"github.com/fullcourse/fullcourse-api/internal/repository"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

const tokenPurgeInterval = time.Hour

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := repository.Migrate(ctx, db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	mailCfg, err := mailer.LoadConfig()
	if err != nil {
		slog.Error("invalid SMTP configuration", "error", err)
		os.Exit(1)
	}
	mail := mailer.New(mailCfg, slog.Default())
	if !mail.Enabled() {
		slog.Warn("SMTP_HOST not set, outgoing mail is only logged")
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	productRepo := repository.NewProductRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	tokens := service.NewOneTimeTokens(tokenRepo)
	notify := service.NewNotifier(mail, cfg.AppBaseURL)
	sessions := service.NewSessions(cfg.SessionSecret, cfg.SessionTTL)

	adminService := service.NewAdminService(userRepo, courseRepo, commentRepo, submissionRepo)
	if err := adminService.BootstrapAdmins(ctx, cfg.AdminEmails); err != nil {
		slog.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(handler.RouterConfig{
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    sessions.TTL(),
		SecureCookies: cfg.Secure(),
		CORSOrigins:   cfg.CORSOrigins,
		Versions:      userRepo,
	}, handler.Services{
		Auth:         service.NewAuthService(userRepo, tokens, notify, sessions, cfg.SessionSecret),
		Registration: service.NewRegistrationService(userRepo, tokens, notify, sessions),
		Reset:        service.NewPasswordResetService(userRepo, tokens, notify),
		Profile:      service.NewProfileService(userRepo, courseRepo, sessions),
		Courses:      service.NewCourseService(courseRepo),
		Engagement:   service.NewEngagementService(courseRepo, engagementRepo),
		Comments:     service.NewCommentService(commentRepo, courseRepo),
		Catalog:      service.NewCatalogService(productRepo),
		Admin:        adminService,
	})

	go tokens.RunPurger(ctx, tokenPurgeInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
