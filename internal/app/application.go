package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"feedsync/internal/alert"
	"feedsync/internal/domain"
	"feedsync/internal/feed"
	"feedsync/internal/infra/api"
	"feedsync/internal/infra/push"
	"feedsync/internal/infra/session"
	"feedsync/internal/infra/telemetry"
)

// Application wires the synchronization core and its collaborators.
type Application struct {
	ctx    context.Context
	config Config

	logger     *zap.Logger
	registry   *prometheus.Registry
	health     *telemetry.HealthTracker
	tokens     *session.Store
	client     *api.Client
	store      *feed.Store
	alert      *alert.Controller
	input      *alert.InputBus
	dispatcher *feed.Dispatcher
	channel    *push.Manager
	session    *Session
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context    context.Context
	Config     Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Health     *telemetry.HealthTracker
	Tokens     *session.Store
	Client     *api.Client
	Store      *feed.Store
	Alert      *alert.Controller
	Input      *alert.InputBus
	Dispatcher *feed.Dispatcher
	Channel    *push.Manager
	Session    *Session
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		ctx:        ctx,
		config:     opts.Config,
		logger:     logger.Named("app"),
		registry:   opts.Registry,
		health:     opts.Health,
		tokens:     opts.Tokens,
		client:     opts.Client,
		store:      opts.Store,
		alert:      opts.Alert,
		input:      opts.Input,
		dispatcher: opts.Dispatcher,
		channel:    opts.Channel,
		session:    opts.Session,
	}
}

// Run keeps the feed synchronized until the application context ends.
func (a *Application) Run() error {
	a.logger.Info("configuration loaded",
		zap.String("api", a.config.API.BaseURL),
		zap.String("push", a.config.Push.URL),
		zap.String("session_backend", a.config.Session.Backend),
	)

	if a.config.Observability.Enabled {
		go func() {
			err := telemetry.StartHTTPServer(a.ctx, telemetry.HTTPServerOptions{
				Addr:          a.config.Observability.ListenAddress,
				EnableMetrics: true,
				EnableHealthz: true,
				Health:        a.health,
				Registry:      a.registry,
			}, a.logger)
			if err != nil {
				a.logger.Warn("observability server failed", zap.Error(err))
			}
		}()
	}

	go a.trackHealth(a.channel.Watch(a.ctx))

	if err := a.tokens.WatchFile(a.ctx); err != nil {
		a.logger.Warn("token file watch failed", zap.Error(err))
	}
	if !a.alert.Probe() {
		a.alert.BindInput(a.input)
	}

	if err := a.session.Begin(a.ctx); err != nil && !errors.Is(err, domain.ErrNoToken) {
		a.logger.Warn("session start incomplete", zap.Error(err))
	}

	<-a.ctx.Done()
	a.session.End()
	a.logger.Info("shutdown complete")
	return nil
}

func (a *Application) trackHealth(changes <-chan domain.StateChange) {
	for {
		select {
		case <-a.ctx.Done():
			return
		case change := <-changes:
			a.health.Observe(change)
		}
	}
}

func (a *Application) Config() Config {
	return a.config
}

func (a *Application) Tokens() *session.Store {
	return a.tokens
}

func (a *Application) API() *api.Client {
	return a.client
}

func (a *Application) Store() *feed.Store {
	return a.store
}

func (a *Application) Alert() *alert.Controller {
	return a.alert
}

// Input is where front ends forward user interactions.
func (a *Application) Input() *alert.InputBus {
	return a.input
}

func (a *Application) Channel() *push.Manager {
	return a.channel
}

func (a *Application) Health() *telemetry.HealthTracker {
	return a.health
}
