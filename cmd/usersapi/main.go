package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tmrp/users-api/internal/config"
	"github.com/tmrp/users-api/internal/events"
	grpcserver "github.com/tmrp/users-api/internal/grpc"
	"github.com/tmrp/users-api/internal/logging"
	"github.com/tmrp/users-api/internal/metrics"
	"github.com/tmrp/users-api/internal/middleware"
	"github.com/tmrp/users-api/internal/server"
	"github.com/tmrp/users-api/internal/users"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(issueToken(os.Args[2:]))
	}

	// 1. Load configuration from the environment (and .env if present).
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Logger = logger
	logger.Info().
		Str("listen", cfg.ListenAddr).
		Str("grpc", cfg.GRPCAddr).
		Bool("auth", cfg.JWTSecret != "").
		Float64("rate_limit_rps", cfg.RateLimitRPS).
		Msg("config loaded")

	// 2. In-memory state, owned by this process.
	store := users.NewStore()
	hub := events.NewHub()

	// 3. Router with all handlers.
	handler := server.New(cfg, store, hub, metrics.New(), logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // websocket streams outlive a single write deadline
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 2)

	// 4. Optional gRPC health endpoint.
	var health *grpcserver.HealthServer
	if cfg.GRPCAddr != "" {
		health = grpcserver.NewHealthServer()
		go func() {
			logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc health listening")
			if err := health.ListenAndServe(cfg.GRPCAddr); err != nil {
				errCh <- err
			}
		}()
	}

	// 5. HTTP server.
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown on SIGINT / SIGTERM.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case sig := <-done:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error, shutting down")
	}

	if health != nil {
		health.SetServing(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	if health != nil {
		health.Stop()
	}

	logger.Info().Msg("server stopped")
}

// issueToken prints a signed JWT for the write routes, e.g.
//
//	usersapi token -sub ops -ttl 1h
func issueToken(args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "operator", "token subject")
	ttl := fs.Duration("ttl", middleware.TokenExpiry, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		return 1
	}
	token, err := middleware.GenerateToken(cfg.JWTSecret, *sub, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(token)
	return 0
}
