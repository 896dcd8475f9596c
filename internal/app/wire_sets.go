//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"feedsync/internal/domain"
	"feedsync/internal/infra/api"
	"feedsync/internal/infra/session"
)

var TelemetrySet = wire.NewSet(
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var SessionSet = wire.NewSet(
	NewSessionBackend,
	NewSessionStore,
	wire.Bind(new(domain.TokenSource), new(*session.Store)),
	wire.Bind(new(domain.SessionProvider), new(*session.Store)),
)

var FeedSet = wire.NewSet(
	NewAPIClient,
	wire.Bind(new(domain.NotificationAPI), new(*api.Client)),
	NewFeedStore,
	NewDispatcher,
)

var AlertSet = wire.NewSet(
	NewAlertPlayer,
	NewAlertController,
	NewInputBus,
)

var AppSet = wire.NewSet(
	NewLogging,
	NewLogger,
	TelemetrySet,
	SessionSet,
	FeedSet,
	AlertSet,
	NewPushManager,
	NewSessionFromConfig,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
