package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"billing-service/internal/bootstrap"
	"billing-service/internal/config"
	infraconfig "billing-service/internal/infrastructure/config"
	"billing-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := logx.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	logger := logx.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		cleanup()
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:    addr,
		Handler: app.Handler(),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
