package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"feedsync/internal/domain"
	"feedsync/internal/infra/telemetry"
)

const intentionalCloseReason = "Intentional disconnect"

// Manager owns the push channel: at most one live websocket whose validity
// follows the session token. None of its methods block on the network.
type Manager struct {
	opts     Options
	endpoint *url.URL
	tokens   domain.TokenSource
	handler  domain.FrameHandler
	dialer   *websocket.Dialer
	metrics  domain.Metrics
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// dispatchMu serializes frame delivery with Start/Stop/Close so no frame
	// of a superseded connection reaches the handler after they return.
	dispatchMu sync.Mutex

	mu           sync.Mutex
	state        domain.ChannelState
	gen          uint64
	conn         *connection
	reconnect    *time.Timer
	reconnectSeq uint64
	backoff      *backoff
	lastErr      error
	closed       bool

	subsMu sync.Mutex
	subs   map[chan domain.StateChange]struct{}
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Tokens == nil {
		return nil, errors.New("push: token source is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("push: frame handler is required")
	}
	endpoint, err := parseEndpoint(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	opts = opts.withDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:     opts,
		endpoint: endpoint,
		tokens:   opts.Tokens,
		handler:  opts.Handler,
		dialer:   opts.Dialer,
		metrics:  metrics,
		logger:   logger.Named("push"),
		ctx:      ctx,
		cancel:   cancel,
		state:    domain.ChannelDisconnected,
		backoff:  newBackoff(opts.ReconnectDelay, opts.ReconnectMaxDelay),
		subs:     make(map[chan domain.StateChange]struct{}),
	}
	metrics.SetChannelState(domain.ChannelDisconnected)
	return m, nil
}

// Start replaces any existing connection with a new one using the current
// token. Without a token it only records domain.ErrNoToken.
func (m *Manager) Start() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked()
}

// Stop closes the connection with a normal-closure code and cancels the
// heartbeat and any pending reconnect. Idempotent.
func (m *Manager) Stop() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Close stops the channel for good; later Start calls are ignored.
func (m *Manager) Close() {
	m.dispatchMu.Lock()
	m.mu.Lock()
	m.stopLocked()
	m.closed = true
	m.mu.Unlock()
	m.dispatchMu.Unlock()
	m.cancel()
}

func (m *Manager) State() domain.ChannelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Connected() bool {
	return m.State() == domain.ChannelConnected
}

// LastError returns the most recent failure signal, cleared on a successful
// open.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Watch streams state transitions until ctx is done. Slow readers miss
// transitions rather than stall the channel.
func (m *Manager) Watch(ctx context.Context) <-chan domain.StateChange {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan domain.StateChange, 16)
	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subsMu.Lock()
		delete(m.subs, ch)
		m.subsMu.Unlock()
	}()
	return ch
}

func (m *Manager) startLocked() {
	if m.closed {
		return
	}
	token := m.tokens.Token()
	if token == "" {
		m.lastErr = domain.ErrNoToken
		m.logger.Warn("push channel start skipped: no session token")
		return
	}

	m.teardownLocked()
	m.gen++
	gen := m.gen
	id := uuid.NewString()
	m.setStateLocked(domain.ChannelConnecting, id, nil)
	m.logger.Info("push channel connecting",
		telemetry.EventField(telemetry.EventDialAttempt),
		telemetry.ConnIDField(id),
	)
	go m.dial(gen, id, token)
}

func (m *Manager) stopLocked() {
	m.gen++
	m.teardownLocked()
	m.backoff.Reset()
	if m.state != domain.ChannelDisconnected {
		m.logger.Info("push channel stopped", telemetry.EventField(telemetry.EventStopRequested))
		m.setStateLocked(domain.ChannelDisconnected, "", nil)
	}
}

// teardownLocked cancels the pending reconnect and closes the live
// connection, leaving the state untouched.
func (m *Manager) teardownLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.reconnectSeq++

	if m.conn != nil {
		conn := m.conn
		m.conn = nil
		conn.stop()
		m.metrics.ObserveClose(domain.CloseNormal)
		go conn.closeWith(domain.CloseNormal, intentionalCloseReason, m.opts.WriteWait)
	}
}

func (m *Manager) dial(gen uint64, id, token string) {
	target := m.endpointWithToken(token)

	ctx, cancel := context.WithTimeout(m.ctx, m.opts.HandshakeTimeout)
	started := time.Now()
	ws, resp, err := m.dialer.DialContext(ctx, target, nil)
	cancel()
	m.metrics.ObserveDial(time.Since(started), err)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.closed {
		if ws != nil {
			_ = ws.Close()
		}
		m.logger.Debug("discarding superseded dial", telemetry.ConnIDField(id))
		return
	}

	if err != nil {
		code := domain.CloseAbnormal
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			code = domain.CloseAuthRejected
		}
		m.logger.Warn("push channel dial failed",
			telemetry.EventField(telemetry.EventDialFailure),
			telemetry.ConnIDField(id),
			telemetry.CloseCodeField(code),
			zap.Error(err),
		)
		m.handleClosedLocked(id, code, domain.E(domain.CodeUnavailable, "push.dial", "", err))
		return
	}

	conn := newConnection(id, gen, ws)
	m.conn = conn
	m.backoff.Reset()
	m.lastErr = nil
	m.setStateLocked(domain.ChannelConnected, id, nil)
	m.logger.Info("push channel connected",
		telemetry.EventField(telemetry.EventDialSuccess),
		telemetry.ConnIDField(id),
	)

	go m.readLoop(conn)
	go m.heartbeat(conn)
}

func (m *Manager) readLoop(conn *connection) {
	conn.ws.SetReadLimit(maxFrameSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(m.opts.PongWait))

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			m.onClosed(conn, closeCodeOf(err), err)
			return
		}
		_ = conn.ws.SetReadDeadline(time.Now().Add(m.opts.PongWait))

		if string(data) == domain.HeartbeatAckFrame {
			continue
		}
		m.deliver(conn, data)
	}
}

// deliver hands data to the frame handler unless conn has been superseded.
func (m *Manager) deliver(conn *connection, data []byte) bool {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	if !m.isCurrent(conn) {
		return false
	}
	m.handler.HandleFrame(data)
	return true
}

func (m *Manager) heartbeat(conn *connection) {
	ticker := time.NewTicker(m.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			err := conn.writeText(domain.HeartbeatFrame, m.opts.WriteWait)
			m.metrics.ObserveHeartbeat(err)
			if err != nil {
				m.logger.Warn("heartbeat failed",
					telemetry.EventField(telemetry.EventHeartbeatFailure),
					telemetry.ConnIDField(conn.id),
					zap.Error(err),
				)
				// Unblocks the read loop, which runs the close path.
				conn.abort()
				return
			}
		}
	}
}

func (m *Manager) isCurrent(conn *connection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn == conn
}

func (m *Manager) onClosed(conn *connection, code int, cause error) {
	conn.abort()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != conn {
		return
	}
	m.conn = nil
	m.metrics.ObserveClose(code)
	m.logger.Info("push channel closed",
		telemetry.EventField(telemetry.EventChannelClosed),
		telemetry.ConnIDField(conn.id),
		telemetry.CloseCodeField(code),
		zap.Error(cause),
	)
	m.handleClosedLocked(conn.id, code, domain.E(domain.CodeUnavailable, "push.read", "", cause))
}

// handleClosedLocked applies the close policy: intentional codes settle in
// Disconnected, anything else leaves exactly one reconnect pending.
func (m *Manager) handleClosedLocked(id string, code int, cause error) {
	if code == domain.CloseAuthRejected {
		cause = domain.E(domain.CodeUnauthenticated, "push", "session rejected by server", cause)
	}
	if cause != nil {
		m.lastErr = cause
	}
	if m.reconnect != nil {
		return
	}
	m.setStateLocked(domain.ChannelDisconnected, id, cause)

	if domain.IsIntentionalClose(code) {
		return
	}
	m.scheduleReconnectLocked(id)
}

func (m *Manager) scheduleReconnectLocked(id string) {
	if m.closed || m.reconnect != nil {
		return
	}
	delay := m.backoff.Next()
	m.reconnectSeq++
	seq := m.reconnectSeq
	m.reconnect = time.AfterFunc(delay, func() {
		m.fireReconnect(seq)
	})
	m.metrics.ObserveReconnectScheduled(delay)
	m.logger.Info("push channel reconnect scheduled",
		telemetry.EventField(telemetry.EventReconnectSchedule),
		telemetry.ConnIDField(id),
		telemetry.DelayField(delay),
	)
	m.setStateLocked(domain.ChannelReconnectPending, id, nil)
}

func (m *Manager) fireReconnect(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reconnect == nil || seq != m.reconnectSeq || m.closed {
		return
	}
	m.reconnect = nil

	if m.tokens.Token() == "" {
		m.lastErr = domain.ErrNoToken
		m.logger.Info("push channel reconnect skipped: no session token",
			telemetry.EventField(telemetry.EventReconnectSkipped),
		)
		m.setStateLocked(domain.ChannelDisconnected, "", domain.ErrNoToken)
		return
	}
	m.startLocked()
}

func (m *Manager) setStateLocked(next domain.ChannelState, id string, cause error) {
	prev := m.state
	if prev == next && cause == nil {
		return
	}
	m.state = next
	m.metrics.SetChannelState(next)
	m.logger.Debug("push channel state",
		telemetry.PrevStateField(string(prev)),
		telemetry.StateField(string(next)),
		telemetry.ConnIDField(id),
	)
	m.broadcast(domain.StateChange{
		From:   prev,
		To:     next,
		ConnID: id,
		Err:    cause,
		At:     time.Now(),
	})
}

func (m *Manager) broadcast(change domain.StateChange) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

func (m *Manager) endpointWithToken(token string) string {
	u := *m.endpoint
	q := u.Query()
	q.Set(domain.TokenQueryParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}

func closeCodeOf(err error) int {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code
	}
	return domain.CloseAbnormal
}
