package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fullcourse/fullcourse-api/internal/middleware"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

// Services are the business services the router exposes.
type Services struct {
	Auth         *service.AuthService
	Registration *service.RegistrationService
	Reset        *service.PasswordResetService
	Profile      *service.ProfileService
	Courses      *service.CourseService
	Engagement   *service.EngagementService
	Comments     *service.CommentService
	Catalog      *service.CatalogService
	Admin        *service.AdminService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
	CORSOrigins   []string
	// Versions checks sessions against the account's current session version.
	Versions middleware.SessionVersions
	// AuthRPS and AuthBurst bound per-IP traffic on the unauthenticated auth endpoints.
	AuthRPS   float64
	AuthBurst int
}

// NewRouter builds the full HTTP surface.
func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	cookies := Cookies{Secure: cfg.SecureCookies, TTL: cfg.SessionTTL}
	if cfg.AuthRPS == 0 {
		cfg.AuthRPS, cfg.AuthBurst = 5, 10
	}

	authHandler := NewAuthHandler(svc.Auth, svc.Registration, svc.Reset, cookies)
	userHandler := NewUserHandler(svc.Profile, cookies)
	courseHandler := NewCourseHandler(svc.Courses, svc.Engagement, svc.Comments)
	productHandler := NewProductHandler(svc.Catalog)
	adminHandler := NewAdminHandler(svc.Admin)

	authenticate := middleware.Authenticate(cfg.SessionSecret, cfg.Versions)
	optional := middleware.OptionalAuth(cfg.SessionSecret, cfg.Versions)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public auth endpoints.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.AuthRPS, cfg.AuthBurst))
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/magic-link", authHandler.HandleMagicLink)
		r.Post("/auth/send-otp", authHandler.HandleSendCode)
		r.Post("/auth/verify-otp", authHandler.HandleVerifyCode)
		r.Post("/auth/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/auth/reset-password", authHandler.HandleResetPassword)
		r.Post("/register", authHandler.HandleRegister)
	})
	r.Get("/auth/magic", authHandler.HandleMagicCallback)
	r.Post("/auth/logout", authHandler.HandleLogout)

	// Anonymous reads; a session only adds the viewer's own state.
	r.Get("/products", productHandler.HandleSearch)
	r.Get("/products/{id}", productHandler.HandleGet)
	r.Get("/courses", courseHandler.HandleList)
	r.Get("/courses/{id}/comments", courseHandler.HandleListComments)
	r.Group(func(r chi.Router) {
		r.Use(optional)
		r.Get("/courses/{id}", courseHandler.HandleGet)
		r.Get("/users/{id}", userHandler.HandlePublicProfile)
	})

	// Signed in, onboarding may still be pending.
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/auth/me", authHandler.HandleMe)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/user/setup", userHandler.HandleSetup)
	})

	// Signed in with a completed profile.
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireProfile)

		r.Get("/user/profile", userHandler.HandleGetProfile)
		r.Patch("/user/profile", userHandler.HandleUpdateProfile)

		r.Post("/courses", courseHandler.HandleCreate)
		r.Put("/courses/{id}", courseHandler.HandleUpdate)
		r.Delete("/courses/{id}", courseHandler.HandleDelete)
		r.Post("/courses/{id}/wants-to-eat", courseHandler.HandleWantsToEat)
		r.Post("/courses/{id}/tried", courseHandler.HandleTried)
		r.Post("/courses/{id}/rating", courseHandler.HandleRate)
		r.Delete("/courses/{id}/rating", courseHandler.HandleUnrate)
		r.Post("/courses/{id}/comments", courseHandler.HandlePostComment)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)

		r.Get("/stats", adminHandler.HandleStats)
		r.Get("/submissions", adminHandler.HandleListSubmissions)
		r.Patch("/submissions/{id}", adminHandler.HandleSetSubmissionStatus)
		r.Get("/users", adminHandler.HandleListUsers)
		r.Delete("/users/{id}", adminHandler.HandleDeleteUser)
		r.Post("/users/{id}/role", adminHandler.HandleToggleRole)
		r.Delete("/comments/{id}", adminHandler.HandleDeleteComment)
	})

	return r
}
