// Command dunning runs a single dunning pass and exits. It is meant for
// external cron triggers; a non-zero exit means the pass could not run or
// at least one subscription failed.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qalam-studio/qalam/internal/app"
	"github.com/qalam-studio/qalam/internal/config"
	"github.com/qalam-studio/qalam/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New().Error("invalid configuration", logger.Error(err))
		os.Exit(1)
	}
	log := app.NewLogger(cfg.App).With(logger.Component("dunning"))

	failed, err := run(ctx, cfg, log)
	if err != nil {
		log.Error("dunning pass failed", logger.Error(err))
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) (int, error) {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return 0, err
	}
	defer a.Close(context.WithoutCancel(ctx))

	sum, err := a.Dunning.RunOnce(ctx)
	if err != nil {
		return 0, err
	}
	if err := json.NewEncoder(os.Stdout).Encode(sum); err != nil {
		return 0, err
	}
	return sum.Failed, nil
}
