package telemetry

import (
	"sync"
	"time"

	"feedsync/internal/domain"
)

// HealthReport is the JSON body served on /healthz.
type HealthReport struct {
	Status    string `json:"status"`
	Channel   string `json:"channel"`
	Since     string `json:"since,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// HealthTracker mirrors the push channel state for health reporting.
type HealthTracker struct {
	mu        sync.RWMutex
	state     domain.ChannelState
	since     time.Time
	lastError string
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		state: domain.ChannelDisconnected,
		since: time.Now(),
	}
}

func (h *HealthTracker) Observe(change domain.StateChange) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = change.To
	h.since = change.At
	if change.Err != nil {
		h.lastError = change.Err.Error()
	} else if change.To == domain.ChannelConnected {
		h.lastError = ""
	}
}

func (h *HealthTracker) Report() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "ok"
	if h.state != domain.ChannelConnected {
		status = "degraded"
	}
	report := HealthReport{
		Status:    status,
		Channel:   string(h.state),
		LastError: h.lastError,
	}
	if !h.since.IsZero() {
		report.Since = h.since.UTC().Format(time.RFC3339)
	}
	return report
}
