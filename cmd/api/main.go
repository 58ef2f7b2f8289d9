package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"postfeed/cmd/app"
	"postfeed/internal/config"
	handlers "postfeed/internal/handler"
	"postfeed/internal/middleware"

	"go.uber.org/zap"
)

func main() {
	// setting up config
	cfg := config.LoadConfig()

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	if cfg.JWTSecretKey == "" {
		logger.Fatal("JWT_SECRET_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.App(ctx, cfg, logger)
	defer application.Close()

	if application.Relay != nil {
		go func() {
			if err := application.Relay.Run(ctx); err != nil {
				logger.Sugar().Errorf("redis relay stopped: %s", err.Error())
			}
		}()
	}

	handler := handlers.NewHandlers(application.Services, application.Storage, cfg, logger)
	router := handler.Routes(middleware.AuthMiddleware(application.Services.Auth), application.Hub)

	handlerChain := middleware.Chain(
		router,
		middleware.CORSMiddleware(cfg.AllowedOrigin),
		middleware.LoggingMiddleware(logger),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Sugar().Infof("server listening on %s, database %s", srv.Addr, cfg.DB.DbNAME)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("failed to run http server: %s", err.Error())
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down")

	// Subscribers are hijacked connections; the server does not close them.
	if err := application.Hub.Close(); err != nil {
		logger.Sugar().Errorf("failed to close hub: %s", err.Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
}

func newLogger(level string) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	if atomicLevel, err := zap.ParseAtomicLevel(level); err == nil {
		zapConfig.Level = atomicLevel
	}

	logger, err := zapConfig.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
