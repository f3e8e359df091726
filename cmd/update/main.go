// Command update upgrades the installation to the newest release.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"billing-service/internal/application"
	"billing-service/internal/bootstrap"
	"billing-service/internal/config"
	"billing-service/internal/infrastructure/console"
	"billing-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

func main() {
	yes := flag.Bool("y", false, "update without asking for confirmation")
	flag.Parse()

	cfg := config.Load()
	if err := logx.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	logger := logx.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, *yes, logger)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg config.Config, yes bool, logger *zap.Logger) int {
	app, cleanup, err := bootstrap.Build(ctx, cfg)
	defer cleanup()
	if err != nil {
		logger.Error("bootstrap", zap.Error(err))
		return 1
	}

	con := console.New(os.Stdin, os.Stdout, os.Stderr)
	outcome, err := app.UpdateCommand(con, yes).Run(ctx)
	switch {
	case application.IsLocked(err):
		return 2
	case err != nil:
		logger.Error("update", zap.Error(err))
		return 1
	case outcome == application.OutcomeFailed:
		return 1
	}
	return 0
}
