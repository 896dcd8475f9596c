package alert

import (
	"sync"

	"go.uber.org/zap"

	"feedsync/internal/domain"
	"feedsync/internal/infra/telemetry"
)

// InputKind names a user interaction that may unlock playback.
type InputKind string

const (
	InputClick InputKind = "click"
	InputTouch InputKind = "touchstart"
	InputKey   InputKind = "keydown"
)

// InputSource delivers user interactions. Subscribe returns a function that
// removes the listener.
type InputSource interface {
	Subscribe(kind InputKind, fn func()) (unsubscribe func())
}

// Controller gates the audio cue behind a one-time unlock and a user
// preference. Playback problems are logged and never returned.
type Controller struct {
	player  Player
	volume  float64
	metrics domain.Metrics
	logger  *zap.Logger

	mu       sync.Mutex
	enabled  bool
	unlocked bool
	unbind   []func()
}

type Option func(*Controller)

func WithVolume(volume float64) Option {
	return func(c *Controller) {
		if volume > 0 && volume <= 1 {
			c.volume = volume
		}
	}
}

func WithEnabled(enabled bool) Option {
	return func(c *Controller) {
		c.enabled = enabled
	}
}

func NewController(player Player, metrics domain.Metrics, logger *zap.Logger, opts ...Option) *Controller {
	if player == nil {
		player = NopPlayer{}
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		player:  player,
		volume:  domain.DefaultAlertVolume,
		metrics: metrics,
		logger:  logger.Named("alert"),
		enabled: domain.DefaultAlertEnabled,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe attempts the unlock with a silent play. On success the input
// listeners are detached; on failure a later interaction retries.
func (c *Controller) Probe() bool {
	c.mu.Lock()
	if c.unlocked {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	if err := c.player.Play(0); err != nil {
		c.logger.Debug("audio unlock attempt failed", zap.Error(err))
		return false
	}
	c.player.Pause()
	c.player.Rewind()

	c.mu.Lock()
	c.unlocked = true
	unbind := c.unbind
	c.unbind = nil
	c.mu.Unlock()

	for _, fn := range unbind {
		fn()
	}
	c.logger.Debug("audio playback unlocked")
	return true
}

// BindInput listens for click, touch and key events on src until one of
// them unlocks playback.
func (c *Controller) BindInput(src InputSource) {
	if src == nil {
		return
	}
	c.mu.Lock()
	if c.unlocked {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	var unbind []func()
	for _, kind := range []InputKind{InputClick, InputTouch, InputKey} {
		unbind = append(unbind, src.Subscribe(kind, func() { c.Probe() }))
	}

	c.mu.Lock()
	if c.unlocked {
		c.mu.Unlock()
		for _, fn := range unbind {
			fn()
		}
		return
	}
	c.unbind = append(c.unbind, unbind...)
	c.mu.Unlock()
}

// Play emits the cue when enabled and unlocked.
func (c *Controller) Play() {
	c.mu.Lock()
	enabled, unlocked := c.enabled, c.unlocked
	c.mu.Unlock()

	switch {
	case !enabled:
		c.metrics.ObserveAlert(domain.AlertDisabled)
		return
	case !unlocked:
		c.metrics.ObserveAlert(domain.AlertLocked)
		c.logger.Debug("audio not unlocked yet, cue dropped")
		return
	}

	c.player.Rewind()
	if err := c.player.Play(c.volume); err != nil {
		c.metrics.ObserveAlert(domain.AlertFailed)
		c.logger.Debug("failed to play notification sound", zap.Error(err))
		return
	}
	c.metrics.ObserveAlert(domain.AlertPlayed)
}

func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()
}

// Toggle flips the preference and returns the new value.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = !c.enabled
	return c.enabled
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *Controller) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlocked
}
