package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/g-orlov/card-system/internal/codec"
	"github.com/g-orlov/card-system/internal/config"
	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/handler"
	"github.com/g-orlov/card-system/internal/logging"
	"github.com/g-orlov/card-system/internal/middleware"
	"github.com/g-orlov/card-system/internal/repository"
	"github.com/g-orlov/card-system/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("card-system", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cardCodec, err := codec.New(cfg.CardCodecKey)
	if err != nil {
		slog.Error("failed to initialize card number codec", "error", err)
		os.Exit(1)
	}

	cardRepo := repository.NewCardRepository(db)
	userRepo := repository.NewUserRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	cardSvc := service.NewCardService(cardRepo, userRepo, cardCodec)
	userSvc := service.NewUserService(userRepo)
	transferSvc := service.NewTransferService(cardRepo, transferRepo, db)

	authHandler := handler.NewAuthHandler(userRepo, userSvc, cfg.JWTSecret, cfg.JWTExpiry)
	cardHandler := handler.NewCardHandler(cardSvc, transferSvc)
	adminHandler := handler.NewAdminHandler(cardSvc, userSvc)
	healthHandler := handler.NewHealthHandler(db)

	authMW := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	idempotent := middleware.Idempotency(idempotencyRepo)

	public := func(h http.HandlerFunc) http.Handler {
		return middleware.Logging(h)
	}
	authed := func(h http.Handler) http.Handler {
		return authMW(middleware.Logging(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMW(adminOnly(middleware.Logging(h)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.Handle("POST /api/auth/login", public(authHandler.Login))
	mux.Handle("POST /api/auth/register", public(authHandler.Register))

	mux.Handle("GET /api/card/cards", authed(http.HandlerFunc(cardHandler.List)))
	mux.Handle("GET /api/card/cards/block/{card_id}", authed(http.HandlerFunc(cardHandler.Block)))
	mux.Handle("GET /api/card/cards/{card_id}/transactions", authed(http.HandlerFunc(cardHandler.History)))
	mux.Handle("POST /api/card/cards/transfer", authed(idempotent(http.HandlerFunc(cardHandler.Transfer))))

	mux.Handle("GET /api/admin/cards", admin(adminHandler.ListCards))
	mux.Handle("POST /api/admin/cards", admin(adminHandler.AddCard))
	mux.Handle("PUT /api/admin/cards", admin(adminHandler.UpdateCard))
	mux.Handle("DELETE /api/admin/cards/{id}", admin(adminHandler.DeleteCard))
	mux.Handle("GET /api/admin/users", admin(adminHandler.ListUsers))
	mux.Handle("POST /api/admin/users", admin(adminHandler.AddUser))
	mux.Handle("PUT /api/admin/users", admin(adminHandler.UpdateUser))
	mux.Handle("DELETE /api/admin/users/{username}", admin(adminHandler.DeleteUser))

	root := middleware.RequestID(middleware.Recovery(mux))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
