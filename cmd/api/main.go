package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"procurement-hub/internal/adapters/auth/jwt"
	"procurement-hub/internal/adapters/auth/remote"
	"procurement-hub/internal/config"
	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/ports/auth"
	"procurement-hub/internal/router"
)

// @title       Procurement Hub API
// @version     1.0
// @description Projects, budgets, quotations, purchase orders, payments and inventory.
// @BasePath    /api
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.AppName,
		File:   cfg.Log.File,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := router.New(ctx, router.Options{
		AuthVerifier: verifier(cfg.Auth, log),
		Config:       cfg,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("close app", map[string]any{"err": err.Error()})
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":  srv.Addr,
			"store": cfg.Store.Driver,
			"blob":  cfg.Blob.Driver,
			"auth":  authMode(cfg.Auth),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// verifier: JWT local si hay secreto, introspección remota si hay URL, nil (dev) si no.
func verifier(cfg config.AuthConfig, log logger.Logger) auth.AuthVerifier {
	switch {
	case cfg.JWTSecret != "":
		return jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case cfg.IntrospectURL != "":
		return remote.NewVerifier(remote.Config{
			IntrospectURL: cfg.IntrospectURL,
			APIKey:        cfg.APIKey,
			Timeout:       cfg.Timeout,
		})
	}
	log.Warn("no auth verifier configured: accepting X-Debug-User-ID headers", nil)
	return nil
}

func authMode(cfg config.AuthConfig) string {
	switch {
	case cfg.DevMode():
		return "dev"
	case cfg.JWTSecret != "":
		return "jwt"
	}
	return "remote"
}
