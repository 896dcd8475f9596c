package push

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"feedsync/internal/domain"
)

const maxFrameSize = 1 << 20

// Options configures a Manager. Zero durations fall back to the package
// defaults.
type Options struct {
	URL               string
	HeartbeatInterval time.Duration
	PongWait          time.Duration
	WriteWait         time.Duration
	HandshakeTimeout  time.Duration
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration

	Tokens  domain.TokenSource
	Handler domain.FrameHandler
	Dialer  *websocket.Dialer
	Metrics domain.Metrics
	Logger  *zap.Logger
}

func (o Options) withDefaults() Options {
	out := o
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = time.Duration(domain.DefaultHeartbeatSeconds) * time.Second
	}
	if out.PongWait <= 0 {
		out.PongWait = time.Duration(domain.DefaultPongWaitSeconds) * time.Second
	}
	if out.WriteWait <= 0 {
		out.WriteWait = time.Duration(domain.DefaultWriteWaitSeconds) * time.Second
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = time.Duration(domain.DefaultHandshakeTimeoutSeconds) * time.Second
	}
	if out.ReconnectDelay <= 0 {
		out.ReconnectDelay = time.Duration(domain.DefaultReconnectDelaySeconds) * time.Second
	}
	if out.ReconnectMaxDelay < out.ReconnectDelay {
		out.ReconnectMaxDelay = out.ReconnectDelay
	}
	if out.Dialer == nil {
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = out.HandshakeTimeout
		out.Dialer = &dialer
	}
	return out
}

func parseEndpoint(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("push url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, errors.New("push url must use ws or wss scheme")
	}
	return u, nil
}

// EndpointFromAPI derives the push endpoint from an http(s) API base URL by
// swapping the scheme and appending the push path.
func EndpointFromAPI(apiBase string) string {
	base := strings.TrimRight(apiBase, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + domain.DefaultPushPath
}
