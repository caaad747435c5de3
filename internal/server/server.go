// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package server wires the application together and runs the HTTP
// server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"github.com/veilscan/veilscan/internal/config"
	"github.com/veilscan/veilscan/internal/database"
	"github.com/veilscan/veilscan/internal/handlers"
	"github.com/veilscan/veilscan/internal/middleware"
	"github.com/veilscan/veilscan/internal/providers"
	"github.com/veilscan/veilscan/internal/repository"
	"github.com/veilscan/veilscan/internal/services/auth"
	"github.com/veilscan/veilscan/internal/services/email"
	"github.com/veilscan/veilscan/internal/services/scan"
	"github.com/veilscan/veilscan/internal/services/token"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)

	emailService, err := email.NewService(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to create email service: %w", err)
	}
	tokenService, err := token.NewService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}
	authService := auth.NewService(repo, emailService, tokenService)

	providerCfg := providers.Config{
		BreachAPIBaseURL: cfg.Providers.BreachAPIBaseURL,
		BreachAPIKey:     cfg.Providers.BreachAPIKey,
		PhoneAPIBaseURL:  cfg.Providers.PhoneAPIBaseURL,
		RequestTimeout:   cfg.Providers.RequestTimeout,
	}
	scanService := scan.NewService(repo,
		providers.NewUsernameProber(providerCfg),
		providers.NewBreachClient(providerCfg),
		providers.NewPhoneExposureClient(providerCfg),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLogger(slog.Default()))

	setupRoutes(e, handlers.New(authService, scanService), tokenService, repo)

	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, tokens middleware.TokenVerifier, users middleware.UserLoader) {
	e.GET("/health", h.Health)

	requireAuth := middleware.RequireAuth(tokens, users)

	authGroup := e.Group("/api/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/verify-otp", h.VerifyCode)
	authGroup.POST("/resend-otp", h.ResendCode)
	authGroup.GET("/profile", h.Profile, requireAuth)
	authGroup.PUT("/profile", h.UpdateProfile, requireAuth)
	authGroup.PUT("/change-password", h.ChangePassword, requireAuth)
	authGroup.POST("/logout", h.Logout, requireAuth)

	scanGroup := e.Group("/api/scans", requireAuth)
	scanGroup.POST("/username", h.ScanUsername)
	scanGroup.POST("/email", h.ScanEmail)
	scanGroup.POST("/phone", h.ScanPhone)
	scanGroup.POST("/password-strength", h.PasswordStrength)
	scanGroup.GET("", h.ListScans)
	scanGroup.GET("/stats/overview", h.ScanStats)
	scanGroup.GET("/:scanId", h.GetScan)
	scanGroup.DELETE("/:scanId", h.DeleteScan)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
