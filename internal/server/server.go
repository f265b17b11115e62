// Package server is the composition root: it wires the database,
// services, handlers, and middleware together, defines the route table,
// and owns startup/shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/ayyam-calendar/internal/auth"
	"github.com/sakif/ayyam-calendar/internal/handler"
	"github.com/sakif/ayyam-calendar/internal/middleware"
	sqliteRepo "github.com/sakif/ayyam-calendar/internal/repository/sqlite"
	"github.com/sakif/ayyam-calendar/internal/seed"
	"github.com/sakif/ayyam-calendar/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string
	JWTSecret   string
	Seed        seed.Config
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, runs the one-time seed, and assembles the full
// dependency graph: repositories → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()
	validate := validator.New()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	calendarService := service.NewCalendarService(s.db, s.logger)

	if err := seed.Run(context.Background(), calendarService, authService, s.config.Seed, s.logger); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	tokenHandler := handler.NewTokenHandler(authService, s.logger)
	publicHandler := handler.NewPublicHandler(calendarService, validate, s.logger)
	adminHandler := handler.NewAdminHandler(calendarService, validate, s.logger)
	dashboardHandler, err := handler.NewDashboardHandler(
		s.config.TemplateDir, authService, calendarService, tokens, s.db, s.logger,
	)
	if err != nil {
		return fmt.Errorf("creating dashboard handler: %w", err)
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Token endpoint (no auth; credentials in the form body)
	s.router.Post("/token", tokenHandler.HandleToken)

	// Public read API
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/months", publicHandler.HandleListMonths)
		r.Get("/months/{id}", publicHandler.HandleGetMonth)
		r.Get("/months/{id}/days/{day}", publicHandler.HandleEventsByDate)
		r.Get("/search", publicHandler.HandleSearch)
	})

	// Admin write API — every route behind the strict Bearer gate
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.db))
		r.Post("/months", adminHandler.HandleCreateMonth)
		r.Put("/months/{id}", adminHandler.HandleUpdateMonth)
		r.Delete("/months/{id}", adminHandler.HandleDeleteMonth)
		r.Post("/months/{id}/events", adminHandler.HandleCreateEvent)
		r.Delete("/events/{id}", adminHandler.HandleDeleteEvent)
		r.Post("/events/{id}/details", adminHandler.HandleAddDetail)
		r.Delete("/details/{id}", adminHandler.HandleDeleteDetail)
	})

	// Dashboard — cookie session, browser navigation
	s.router.Get("/", dashboardHandler.HandleRoot)
	s.router.Get("/login", dashboardHandler.HandleLoginPage)
	s.router.Post("/login", dashboardHandler.HandleLoginSubmit)
	s.router.Get("/logout", dashboardHandler.HandleLogout)
	s.router.Get("/dashboard", dashboardHandler.HandleDashboard)
	s.router.Get("/dashboard/months/{id}", dashboardHandler.HandleMonthDetail)

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
