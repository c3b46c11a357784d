package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/binder"
	"github.com/qalam-studio/qalam/pkg/environment"
	"github.com/qalam-studio/qalam/pkg/handler"
	"github.com/qalam-studio/qalam/pkg/httpserver"
	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/dunning"
	"github.com/qalam-studio/qalam/svc/plans"
	"github.com/qalam-studio/qalam/svc/redo"
	"github.com/qalam-studio/qalam/svc/usage"
)

var ErrMissingAPIKey = errors.New("api key is required")

// envHeader echoes the environment outside production.
const envHeader = "X-App-Environment"

type PlanResolver interface {
	ResolveEffectivePlan(ctx context.Context, userID uuid.UUID) (plans.Plan, error)
}

type UsageService interface {
	Report(ctx context.Context, userID uuid.UUID) (usage.Report, error)
	Record(ctx context.Context, rec usage.TokenUsage) (usage.TokenUsage, error)
}

type RedoGate interface {
	CheckRedoAllowed(ctx context.Context, projectID uuid.UUID, tab redo.Tab) (redo.Decision, error)
	IncrementRunCount(ctx context.Context, projectID uuid.UUID, tab redo.Tab) (int, error)
}

type BillingService interface {
	HandleEvents(ctx context.Context, events []billing.Event) billing.Result
	GetSubscription(ctx context.Context, userID uuid.UUID) (billing.Subscription, error)
}

type DunningRunner interface {
	RunOnce(ctx context.Context) (dunning.Summary, error)
}

// Services are the domain services the router serves.
type Services struct {
	Plans   PlanResolver
	Usage   UsageService
	Redo    RedoGate
	Billing BillingService
	Dunning DunningRunner
}

type options struct {
	logger        *slog.Logger
	env           environment.Environment
	cronSecret    string
	providers     []billing.Provider
	checks        []httpserver.Check
	healthTimeout time.Duration
}

// Option configures the router.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEnvironment hides internal error messages in production.
func WithEnvironment(env environment.Environment) Option {
	return func(o *options) { o.env = env }
}

// WithCronSecret enables POST /v1/tasks/dunning.
func WithCronSecret(secret string) Option {
	return func(o *options) { o.cronSecret = secret }
}

// WithProviders mounts a webhook receiver at /v1/webhooks/{name} per provider.
func WithProviders(providers ...billing.Provider) Option {
	return func(o *options) { o.providers = append(o.providers, providers...) }
}

// WithHealthChecks adds readiness checks to GET /health.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(o *options) { o.checks = append(o.checks, checks...) }
}

// NewRouter builds the HTTP handler. apiKey guards every /v1 endpoint
// except webhooks and the cron trigger.
func NewRouter(apiKey string, svc Services, opts ...Option) (http.Handler, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	o := options{logger: logger.Discard(), env: environment.Development, healthTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	e := &endpoints{svc: svc, logger: o.logger}
	onError := handler.WithErrorHandler(handler.NewErrorHandler(o.logger, classify))
	path := handler.WithBinders(binder.Path(chi.URLParam))
	body := handler.WithBinders(binder.JSON())

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		environment.Middleware(o.env, environment.WithResponseHeader(envHeader)),
		accessLog(o.logger),
		middleware.Recoverer,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		reject(w, r, handler.ErrNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		reject(w, r, handler.ErrMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	r.Get("/health", httpserver.HealthCheckHandler(o.logger, o.healthTimeout, o.checks...))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			for _, p := range o.providers {
				r.Post("/"+p.Name(), handler.Wrap(e.webhook(p), onError))
			}
		})

		if o.cronSecret != "" {
			r.With(secretHeader(cronHeader, o.cronSecret)).Post("/tasks/dunning", handler.Wrap(e.runDunning, onError))
		}

		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(apiKey))

			r.Route("/projects/{projectID}/tabs/{tab}", func(r chi.Router) {
				r.Get("/redo", handler.Wrap(e.checkRedo, path, onError))
				r.Post("/runs", handler.Wrap(e.incrementRuns, path, onError))
			})
			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/plan", handler.Wrap(e.effectivePlan, path, onError))
				r.Get("/usage", handler.Wrap(e.usageReport, path, onError))
				r.Post("/token-usage", handler.Wrap(e.recordTokenUsage, path, body, onError))
				r.Get("/subscription", handler.Wrap(e.subscription, path, onError))
			})
		})
	})

	return r, nil
}
