// Command server runs the qalam billing API and, unless DUNNING_SCHEDULE is
// "off", the periodic dunning pass.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qalam-studio/qalam/internal/app"
	"github.com/qalam-studio/qalam/internal/config"
	"github.com/qalam-studio/qalam/pkg/httpserver"
	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/schedule"
)

const shutdownGrace = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		logger.New().Error("invalid configuration", logger.Error(err))
		os.Exit(1)
	}
	log := app.NewLogger(cfg.App)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		a.Close(closeCtx)
	}()

	router, err := a.Router()
	if err != nil {
		return err
	}

	sched, err := a.Dunning.Schedule()
	if err != nil {
		return err
	}
	loc, err := cfg.Usage.Location()
	if err != nil {
		return err
	}
	runner := schedule.NewRunner(
		schedule.WithLogger(log),
		schedule.WithLocation(loc),
		schedule.WithJobTimeout(10*time.Minute),
	)
	if err := a.Dunning.Register(runner, sched); err != nil {
		return err
	}

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, router)
	})
	g.Go(func() error {
		err := runner.Start(gctx)
		switch {
		case errors.Is(err, schedule.ErrNoJobs):
			log.Info("dunning schedule disabled")
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		}
		return err
	})

	log.Info("qalam started", slog.String("addr", cfg.HTTP.Addr), slog.String("dunning_schedule", sched.String()))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
