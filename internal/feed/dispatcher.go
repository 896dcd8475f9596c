package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"feedsync/internal/domain"
	"feedsync/internal/infra/telemetry"
)

// Alerter is the side effect triggered by a newly pushed notification.
type Alerter interface {
	Play()
}

type envelope struct {
	Event domain.EventKind `json:"event"`
	Data  json.RawMessage  `json:"data"`
}

type countPayload struct {
	UnreadCount *int `json:"unread_count"`
}

type readPayload struct {
	NotificationIDs []string `json:"notification_ids"`
}

// Dispatcher decodes push frames and applies them to the Store. Bad frames
// are dropped one at a time; they never affect the channel.
type Dispatcher struct {
	store   *Store
	alert   Alerter
	metrics domain.Metrics
	logger  *zap.Logger
}

func NewDispatcher(store *Store, alert Alerter, metrics domain.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Dispatcher{
		store:   store,
		alert:   alert,
		metrics: metrics,
		logger:  logger.Named("dispatcher"),
	}
}

func (d *Dispatcher) HandleFrame(raw []byte) {
	kind, err := d.apply(raw)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, domain.ErrUnknownEvent) {
			reason = "unknown_event"
		}
		d.metrics.ObserveFrameError(reason)
		d.logger.Error("discarding push frame",
			telemetry.EventField(telemetry.EventFrameDiscarded),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}
	d.metrics.ObserveFrame(string(kind))
}

func (d *Dispatcher) apply(raw []byte) (domain.EventKind, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	if env.Event == "" {
		return "", fmt.Errorf("%w: missing event", domain.ErrMalformedFrame)
	}

	switch env.Event {
	case domain.EventConnected, domain.EventNotificationCount:
		var payload countPayload
		if err := decodeData(env.Data, &payload); err != nil {
			return env.Event, err
		}
		count := 0
		if payload.UnreadCount != nil {
			count = *payload.UnreadCount
		}
		d.store.SetUnreadCount(count)

	case domain.EventNewNotification:
		var n domain.Notification
		if err := decodeData(env.Data, &n); err != nil {
			return env.Event, err
		}
		if n.ID == "" {
			return env.Event, fmt.Errorf("%w: notification without id", domain.ErrMalformedFrame)
		}
		d.store.Prepend(n)
		if d.alert != nil {
			d.alert.Play()
		}

	case domain.EventNotificationRead:
		var payload readPayload
		if err := decodeData(env.Data, &payload); err != nil {
			return env.Event, err
		}
		d.store.MarkReadLocal(payload.NotificationIDs)

	default:
		return env.Event, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, env.Event)
	}
	return env.Event, nil
}

func decodeData(data json.RawMessage, target any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	return nil
}
