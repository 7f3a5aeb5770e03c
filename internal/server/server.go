// Package server is the composition root: it opens the database, builds the
// services and handlers, mounts the routes and runs the HTTP server together
// with the background expiry sweep.
//
//	config → sqlite.DB → services → handlers → chi router
//	                   ↘ sweep.Sweeper → sweep.Scheduler (started/stopped with the server)
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/grocery-tracker/internal/auth"
	"github.com/sakif/grocery-tracker/internal/config"
	"github.com/sakif/grocery-tracker/internal/handler"
	"github.com/sakif/grocery-tracker/internal/middleware"
	"github.com/sakif/grocery-tracker/internal/notify"
	"github.com/sakif/grocery-tracker/internal/recipe"
	sqliteRepo "github.com/sakif/grocery-tracker/internal/repository/sqlite"
	"github.com/sakif/grocery-tracker/internal/service"
	"github.com/sakif/grocery-tracker/internal/sweep"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 30 * time.Second

// Server owns every long-lived resource of the process: the database, the
// SMS sender and the sweep scheduler. Serve releases them on the way out.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	sender    notify.Sender
	recipes   handler.RecipeFinder
	scheduler *sweep.Scheduler
}

// Option overrides a dependency New would otherwise build from config.
type Option func(*Server)

// WithSender replaces the SMS sender (Twilio or log-only).
func WithSender(s notify.Sender) Option {
	return func(srv *Server) { srv.sender = s }
}

// WithRecipeFinder replaces the Spoonacular client.
func WithRecipeFinder(f handler.RecipeFinder) Option {
	return func(srv *Server) { srv.recipes = f }
}

// New opens the database and wires every layer. The sweep is not started
// until Serve.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sender == nil {
		if s.sender, err = newSender(cfg, logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	if s.recipes == nil {
		s.recipes = recipe.NewClient(cfg.SpoonacularAPIKey,
			recipe.WithBaseURL(cfg.SpoonacularBaseURL),
			recipe.WithTimeout(cfg.RecipeTimeout),
		)
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	sweeper := sweep.NewSweeper(db, s.sender, cfg.ExpiryWindow, logger.With(slog.String("component", "sweep")))
	s.scheduler = sweep.NewScheduler(sweeper, cfg.SweepInterval, logger)

	return s, nil
}

func newSender(cfg config.Config, logger *slog.Logger) (notify.Sender, error) {
	if !cfg.TwilioConfigured() {
		logger.Warn("twilio not configured; reminders will be logged, not sent")
		return notify.NewLogSender(logger), nil
	}
	sender, err := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("creating twilio sender: %w", err)
	}
	return sender, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// MIDDLEWARE ORDER:
//  1. RequestID, RealIP: before the logger so it can record both
//  2. Logger
//  3. Recoverer: turns panics into 500s
//  4. CORS: answers preflight requests before auth sees them
//
// ROUTES:
//
//	POST   /register                        public, throttled
//	POST   /login                           public, throttled
//	GET    /healthz                         public
//	POST   /add_item                        bearer
//	DELETE /delete_item/{id}                bearer
//	GET    /get_list/{user_id}              bearer
//	GET    /get_expiring_soon/{user_id}     bearer
//	GET    /get_shopping_history/{user_id}  bearer
//	GET    /get_recipes                     bearer
//	POST   /send_expiry_notification        bearer
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.JWTTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	itemService := service.NewItemService(s.db, s.db, s.config.ExpiryWindow, s.logger)
	reminderService := service.NewReminderService(s.db, s.sender, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	itemHandler := handler.NewItemHandler(itemService, s.logger)
	recipeHandler := handler.NewRecipeHandler(s.recipes, s.logger)
	notifyHandler := handler.NewNotifyHandler(reminderService, s.logger)

	s.router.Get("/healthz", s.handleHealth)

	limiter := middleware.NewRateLimiter(s.config.AuthRatePerMinute)
	s.router.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authService.Authorize))

		r.Post("/add_item", itemHandler.HandleAddItem)
		r.Delete("/delete_item/{id}", itemHandler.HandleDeleteItem)
		r.Get("/get_list/{user_id}", itemHandler.HandleList)
		r.Get("/get_expiring_soon/{user_id}", itemHandler.HandleExpiringSoon)
		r.Get("/get_shopping_history/{user_id}", itemHandler.HandleHistory)
		r.Get("/get_recipes", recipeHandler.HandleGetRecipes)
		r.Post("/send_expiry_notification", notifyHandler.HandleSendExpiryNotification)
	})

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		s.db.Close()
		return fmt.Errorf("listening on port %d: %w", s.config.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the expiry sweep, serves HTTP on ln until ctx is cancelled,
// then shuts down in order: stop accepting requests, drain in-flight ones,
// stop the sweep, close the database.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.db.Close()

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.scheduler.Start(context.WithoutCancel(ctx))
	defer s.scheduler.Stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
