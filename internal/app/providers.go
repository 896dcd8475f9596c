package app

import (
	"context"
	"errors"
	"os"

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

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewSessionBackend(cfg Config) (session.Backend, error) {
	switch cfg.Session.Backend {
	case SessionBackendMemory:
		return session.NewMemoryBackend(os.Getenv(envPrefix + "_TOKEN")), nil
	case SessionBackendFile:
		return session.NewFileBackend(cfg.Session.TokenFile)
	case SessionBackendKeyring:
		ring, err := session.OpenKeyring(cfg.Session.KeyringService, cfg.Session.KeyringDir)
		if err != nil {
			return nil, err
		}
		return session.NewKeyringBackend(ring), nil
	default:
		return nil, errors.New("unknown session backend " + cfg.Session.Backend)
	}
}

func NewSessionStore(backend session.Backend, logger *zap.Logger) (*session.Store, error) {
	return session.NewStore(backend, logger)
}

func NewAPIClient(cfg Config, tokens domain.TokenSource, metrics domain.Metrics, logger *zap.Logger) (*api.Client, func(), error) {
	client, err := api.NewClient(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  tokens,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func NewFeedStore(client domain.NotificationAPI, logger *zap.Logger) *feed.Store {
	return feed.NewStore(client, logger)
}

func NewAlertPlayer() alert.Player {
	return alert.NewBellPlayer(os.Stderr)
}

func NewAlertController(cfg Config, player alert.Player, metrics domain.Metrics, logger *zap.Logger) *alert.Controller {
	return alert.NewController(player, metrics, logger, alert.WithEnabled(cfg.Alert.Enabled))
}

func NewInputBus() *alert.InputBus {
	return alert.NewInputBus()
}

func NewDispatcher(store *feed.Store, controller *alert.Controller, metrics domain.Metrics, logger *zap.Logger) *feed.Dispatcher {
	return feed.NewDispatcher(store, controller, metrics, logger)
}

func NewPushManager(cfg Config, tokens domain.TokenSource, dispatcher *feed.Dispatcher, metrics domain.Metrics, logger *zap.Logger) (*push.Manager, func(), error) {
	manager, err := push.NewManager(push.Options{
		URL:               cfg.Push.URL,
		HeartbeatInterval: cfg.Push.Heartbeat,
		PongWait:          cfg.Push.PongWait,
		HandshakeTimeout:  cfg.Push.HandshakeTimeout,
		ReconnectDelay:    cfg.Push.ReconnectDelay,
		ReconnectMaxDelay: cfg.Push.ReconnectMaxDelay,
		Tokens:            tokens,
		Handler:           dispatcher,
		Metrics:           metrics,
		Logger:            logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return manager, manager.Close, nil
}

func NewSessionFromConfig(ctx context.Context, cfg Config, tokens domain.SessionProvider, store *feed.Store, manager *push.Manager, logger *zap.Logger) *Session {
	return NewSession(ctx, SessionOptions{
		Tokens:  tokens,
		Store:   store,
		Channel: manager,
		Filter:  domain.ListFilter{Limit: cfg.Feed.PageSize},
		Logger:  logger,
	})
}
