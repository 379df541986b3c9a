// EMA - Insurance Claims Demo Dashboard Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jaypatwe/EMA/internal/api"
	"github.com/jaypatwe/EMA/internal/assistant"
	"github.com/jaypatwe/EMA/internal/claims"
	"github.com/jaypatwe/EMA/internal/config"
	"github.com/jaypatwe/EMA/internal/identity"
	"github.com/jaypatwe/EMA/internal/middleware"
	"github.com/jaypatwe/EMA/internal/scenario"
	"github.com/jaypatwe/EMA/internal/session"
	"github.com/jaypatwe/EMA/internal/stream"
	"github.com/jaypatwe/EMA/web"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "scenario_pace", cfg.ScenarioPace)

	if names := scenario.List(); len(names) == 0 {
		slog.Error("No scenario timelines embedded")
		os.Exit(1)
	} else {
		slog.Info("Scenario timelines loaded", "scenarios", names)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services.
	sessions := session.NewManager()
	conns := stream.NewManager()
	// Swept visitors lose their live connections too, so open tabs
	// reconnect to the fresh session instead of a discarded one.
	sessions.OnRemove(conns.CloseVisitor)
	sessions.StartSweeper(ctx, cfg.SessionTTL)

	provider := assistant.NewScripted(claims.DefaultSettings())
	assist := assistant.NewService(provider, cfg.ScenarioPace)
	runner := scenario.NewRunner(cfg.ScenarioPace)

	// Initialize handlers.
	claimHandler := api.NewHandler(ctx, sessions, assist, runner)
	wsHandler := stream.NewHandler(sessions, conns, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	claimHandler.RegisterRoutes(r)

	// WebSocket endpoint for live claim updates.
	r.Get("/ws/claim", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
