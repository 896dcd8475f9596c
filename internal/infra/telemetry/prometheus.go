package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedsync/internal/domain"
)

var channelStates = []domain.ChannelState{
	domain.ChannelDisconnected,
	domain.ChannelConnecting,
	domain.ChannelConnected,
	domain.ChannelReconnectPending,
}

type PrometheusMetrics struct {
	channelState     *prometheus.GaugeVec
	dialDuration     *prometheus.HistogramVec
	reconnectsTotal  prometheus.Counter
	reconnectDelay   prometheus.Histogram
	closesTotal      *prometheus.CounterVec
	framesTotal      *prometheus.CounterVec
	frameErrorsTotal *prometheus.CounterVec
	heartbeatsTotal  *prometheus.CounterVec
	apiCallDuration  *prometheus.HistogramVec
	alertsTotal      *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		channelState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feedsync_channel_state",
				Help: "Current push channel state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		dialDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedsync_dial_duration_seconds",
				Help:    "Duration of push channel dial attempts in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"status"},
		),
		reconnectsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "feedsync_reconnects_scheduled_total",
				Help: "Total number of reconnect attempts scheduled",
			},
		),
		reconnectDelay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feedsync_reconnect_delay_seconds",
				Help:    "Delay applied before scheduled reconnect attempts",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
			},
		),
		closesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_channel_closes_total",
				Help: "Total number of push channel closes by close code",
			},
			[]string{"code"},
		),
		framesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_frames_total",
				Help: "Total number of applied push frames by event kind",
			},
			[]string{"event"},
		),
		frameErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_frame_errors_total",
				Help: "Total number of discarded push frames",
			},
			[]string{"reason"},
		),
		heartbeatsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_heartbeats_total",
				Help: "Total number of heartbeat frames sent",
			},
			[]string{"status"},
		),
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedsync_api_call_duration_seconds",
				Help:    "Duration of notification API calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op", "status"},
		),
		alertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_alerts_total",
				Help: "Total number of alert requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (p *PrometheusMetrics) SetChannelState(state domain.ChannelState) {
	for _, s := range channelStates {
		value := 0.0
		if s == state {
			value = 1
		}
		p.channelState.WithLabelValues(string(s)).Set(value)
	}
}

func (p *PrometheusMetrics) ObserveDial(duration time.Duration, err error) {
	p.dialDuration.WithLabelValues(statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveReconnectScheduled(delay time.Duration) {
	p.reconnectsTotal.Inc()
	p.reconnectDelay.Observe(delay.Seconds())
}

func (p *PrometheusMetrics) ObserveClose(code int) {
	p.closesTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (p *PrometheusMetrics) ObserveFrame(kind string) {
	p.framesTotal.WithLabelValues(kind).Inc()
}

func (p *PrometheusMetrics) ObserveFrameError(reason string) {
	p.frameErrorsTotal.WithLabelValues(reason).Inc()
}

func (p *PrometheusMetrics) ObserveHeartbeat(err error) {
	p.heartbeatsTotal.WithLabelValues(statusLabel(err)).Inc()
}

func (p *PrometheusMetrics) ObserveAPICall(op string, duration time.Duration, err error) {
	p.apiCallDuration.WithLabelValues(op, statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveAlert(outcome domain.AlertOutcome) {
	p.alertsTotal.WithLabelValues(string(outcome)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
