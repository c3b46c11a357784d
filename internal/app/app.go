// Package app wires configuration, storage and services into the objects the
// qalam binaries run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/qalam-studio/qalam/internal/api"
	"github.com/qalam-studio/qalam/internal/config"
	"github.com/qalam-studio/qalam/internal/db"
	"github.com/qalam-studio/qalam/internal/repository"
	"github.com/qalam-studio/qalam/pkg/email"
	"github.com/qalam-studio/qalam/pkg/environment"
	"github.com/qalam-studio/qalam/pkg/httpserver"
	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/pg"
	"github.com/qalam-studio/qalam/pkg/redis"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/dunning"
	"github.com/qalam-studio/qalam/svc/notify"
	"github.com/qalam-studio/qalam/svc/plans"
	"github.com/qalam-studio/qalam/svc/redo"
	"github.com/qalam-studio/qalam/svc/usage"
)

// App holds the running dependencies of one process.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *goredis.Client // nil without REDIS_URL
	Catalog  *plans.Catalog
	Billing  *billing.Service
	Usage    *usage.Accumulator
	Redo     *redo.Gate
	Dunning  *dunning.Scheduler
	notifier *notify.Detached
}

// NewLogger builds the process logger. Request ids set by the router are
// attached to every record logged with the request context.
func NewLogger(cfg config.App) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(string(environment.Parse(cfg.Env)), cfg.ServiceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(logger.RequestIDExtractor(middleware.RequestIDKey)),
	)
}

// New connects storage and builds every service. Close releases what New opened.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if a.Pool, err = pg.Connect(ctx, cfg.PG); err != nil {
		return nil, err
	}
	if cfg.PG.AutoMigrate {
		if err = pg.Migrate(ctx, a.Pool, cfg.PG, db.Migrations, log); err != nil {
			return nil, err
		}
	}
	if cfg.Redis.Enabled() {
		if a.Redis, err = redis.Connect(ctx, cfg.Redis); err != nil {
			return nil, err
		}
	}

	repos := repository.New(a.Pool, cfg.PG.QueryTimeout)

	src, err := planSource(cfg.App, repos)
	if err != nil {
		return nil, err
	}
	a.Catalog, err = plans.NewCatalog(ctx, src,
		plans.WithSlugResolver(billing.EntitledPlanSlug(repos.Subscriptions, nil)),
		plans.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	sender, err := email.New(cfg.Email)
	if err != nil {
		return nil, err
	}
	dispatcher, err := notify.New(cfg.Notify, sender, repos.Profiles)
	if err != nil {
		return nil, err
	}
	a.notifier = notify.NewDetached(dispatcher, cfg.Notify.DetachedTimeout, log)

	loc, err := cfg.Usage.Location()
	if err != nil {
		return nil, err
	}

	var deduper billing.Deduper = billing.NewMemoryDeduper(cfg.Billing.DedupeTTL)
	if a.Redis != nil {
		deduper = billing.NewRedisDeduper(a.Redis, cfg.Billing.DedupeTTL)
	}

	a.Billing = billing.NewService(repos.Subscriptions, repos.Profiles, a.Catalog,
		billing.WithNotifier(a.notifier),
		billing.WithDeduper(deduper),
		billing.WithGracePeriod(cfg.Billing.GracePeriod),
		billing.WithLogger(log),
	)
	a.Usage = usage.NewAccumulator(repos.Usage, a.Catalog, usage.WithLocation(loc))
	a.Redo = redo.NewGate(repos.Projects, a.Catalog, redo.WithLogger(log))
	// Dunning notifications are sent synchronously so failures reach the summary.
	a.Dunning = dunning.New(repos.Subscriptions, a.Billing, dispatcher,
		dunning.WithConfig(cfg.Dunning),
		dunning.WithLogger(log),
	)
	return a, nil
}

func planSource(cfg config.App, repos *repository.Repositories) (plans.Source, error) {
	switch cfg.PlansSource {
	case config.PlansSourcePostgres:
		return repos.Plans, nil
	default:
		if cfg.PlansFile == "" {
			return plans.NewYAMLSource(plans.DefaultCatalog), nil
		}
		data, err := os.ReadFile(cfg.PlansFile)
		if err != nil {
			return nil, errors.Join(plans.ErrFailedToLoadPlans, fmt.Errorf("read %s: %w", cfg.PlansFile, err))
		}
		return plans.NewYAMLSource(data), nil
	}
}

// Router builds the HTTP API with the configured webhook providers.
func (a *App) Router() (http.Handler, error) {
	var providers []billing.Provider
	if a.Config.PayPal.Enabled() {
		v, err := billing.NewPayPalVerifier(a.Config.PayPal)
		if err != nil {
			return nil, err
		}
		providers = append(providers, billing.NewPayPalProvider(v))
	} else {
		a.Logger.Warn("paypal webhook disabled", logger.Provider(billing.ProviderPayPal))
	}
	if a.Config.Paddle.Enabled() {
		v, err := billing.NewPaddleVerifier(a.Config.Paddle)
		if err != nil {
			return nil, err
		}
		providers = append(providers, billing.NewPaddleProvider(v))
	}

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(a.Pool)}}
	if a.Redis != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(a.Redis)})
	}

	return api.NewRouter(a.Config.App.APIKey, api.Services{
		Plans:   a.Catalog,
		Usage:   a.Usage,
		Redo:    a.Redo,
		Billing: a.Billing,
		Dunning: a.Dunning,
	},
		api.WithLogger(a.Logger),
		api.WithEnvironment(environment.Parse(a.Config.App.Env)),
		api.WithCronSecret(a.Config.App.CronSecret),
		api.WithProviders(providers...),
		api.WithHealthChecks(checks...),
	)
}

// Close waits for in-flight notifications and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.notifier != nil {
		if err := a.notifier.Wait(ctx); err != nil {
			a.Logger.WarnContext(ctx, "pending notifications abandoned", logger.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.WarnContext(ctx, "failed to close redis", logger.Error(err))
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
