// Package app wires configuration, the token store, the API client, the
// service clients and the session into one value the CLI works with.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/core/service"
	"github.com/smartretail/storefront/internal/infrastructure/apiclient"
	"github.com/smartretail/storefront/internal/infrastructure/config"
	"github.com/smartretail/storefront/internal/infrastructure/queue"
	"github.com/smartretail/storefront/internal/infrastructure/remote"
	"github.com/smartretail/storefront/internal/infrastructure/storage"
	"github.com/smartretail/storefront/internal/infrastructure/tokenstore"
)

// App holds every long-lived dependency of one process.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	Tokens  ports.TokenStore
	API     *apiclient.Client
	Refresh *queue.Dispatcher
	Session ports.SessionService

	Auth      *remote.AuthClient
	Products  *remote.ProductClient
	Orders    *remote.OrderClient
	Payments  *remote.PaymentClient
	Analytics *remote.AnalyticsClient

	closers []func() error
	cancel  context.CancelFunc
}

// Option customises New.
type Option func(*options)

type options struct {
	tokens ports.TokenStore
}

// WithTokenStore bypasses the configured token backend.
func WithTokenStore(ts ports.TokenStore) Option {
	return func(o *options) { o.tokens = ts }
}

// New builds the App. The session is left in the loading state; call
// Session.Bootstrap before relying on it.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Log: log}

	if o.tokens != nil {
		a.Tokens = o.tokens
	} else {
		ts, closeFn, err := tokenstore.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Tokens = ts
		a.closers = append(a.closers, closeFn)
	}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(log.With().Str("component", "apiclient").Logger()),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
	}
	if cfg.Client.RateLimit > 0 {
		clientOpts = append(clientOpts, apiclient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Client.RateLimit), cfg.Client.RateBurst)))
	}
	a.API = apiclient.New(a.Tokens, clientOpts...)

	a.Refresh = queue.NewDispatcher(cfg.Client.RefreshWorkers, log.With().Str("component", "refresh").Logger())
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.Refresh.Start(workerCtx)

	svc := cfg.Services
	a.Auth = remote.NewAuthClient(a.API, svc.AuthBase, a.Refresh)
	a.Products = remote.NewProductClient(a.API, svc.ProductBase, a.Refresh)
	a.Orders = remote.NewOrderClient(a.API, svc.OrderBase, a.Refresh)
	a.Payments = remote.NewPaymentClient(a.API, svc.PaymentBase, a.Refresh)
	a.Analytics = remote.NewAnalyticsClient(a.API, svc.AnalyticsBase, a.Refresh)

	a.Session = service.NewSessionService(a.Auth, a.Tokens,
		log.With().Str("component", "session").Logger(),
		service.WithKeepTokenOnTransportError(cfg.Client.KeepTokenOnNetworkError),
	)

	a.subscribe()
	return a, nil
}

// subscribe registers the process-wide refresh handlers. A user mutation may
// change the caller's own role, so the session is revalidated.
func (a *App) subscribe() {
	for _, res := range []domain.Resource{
		domain.ResourceUsers,
		domain.ResourceProducts,
		domain.ResourceOrders,
		domain.ResourcePayments,
		domain.ResourceAnalytics,
	} {
		a.Refresh.Subscribe(res, func(_ context.Context, inv domain.Invalidation) error {
			a.Log.Debug().
				Str("resource", string(inv.Resource)).
				Str("action", string(inv.Action)).
				Int("id", inv.ID).
				Msg("views stale")
			return nil
		})
	}
	a.Refresh.Subscribe(domain.ResourceUsers, func(ctx context.Context, _ domain.Invalidation) error {
		if !a.Session.Current().Authenticated() {
			return nil
		}
		a.Session.Revalidate(ctx)
		return nil
	})
}

// ReportExporter opens the configured archive backend and returns an
// exporter that reads from the analytics service.
func (a *App) ReportExporter() (*service.ReportExporter, error) {
	store, err := storage.Open(a.Config)
	if err != nil {
		return nil, err
	}
	return service.NewReportExporter(a.Analytics, store, a.Log.With().Str("component", "reports").Logger()), nil
}

// Close drains pending refresh events and releases backend connections.
func (a *App) Close() error {
	a.Refresh.Close()
	a.cancel()

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
