package telemetry

import (
	"time"

	"feedsync/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) SetChannelState(_ domain.ChannelState) {}

func (n *NoopMetrics) ObserveDial(_ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveReconnectScheduled(_ time.Duration) {}

func (n *NoopMetrics) ObserveClose(_ int) {}

func (n *NoopMetrics) ObserveFrame(_ string) {}

func (n *NoopMetrics) ObserveFrameError(_ string) {}

func (n *NoopMetrics) ObserveHeartbeat(_ error) {}

func (n *NoopMetrics) ObserveAPICall(_ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveAlert(_ domain.AlertOutcome) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
