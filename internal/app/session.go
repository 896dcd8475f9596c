package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"feedsync/internal/domain"
)

// Channel is the push side of a session.
type Channel interface {
	Start()
	Stop()
}

// Baseline is the request/response side of a session.
type Baseline interface {
	LoadBaseline(ctx context.Context, filter domain.ListFilter) error
	Reset()
}

type SessionOptions struct {
	Tokens  domain.SessionProvider
	Store   Baseline
	Channel Channel
	Filter  domain.ListFilter
	Logger  *zap.Logger
}

// Session ties the push channel and the feed to the token lifecycle: a
// login loads the baseline and opens the channel, a logout closes the
// channel and clears the feed.
type Session struct {
	ctx     context.Context
	tokens  domain.SessionProvider
	store   Baseline
	channel Channel
	filter  domain.ListFilter
	logger  *zap.Logger

	mu     sync.Mutex
	active bool
	unsub  []func()
}

func NewSession(ctx context.Context, opts SessionOptions) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ctx:     ctx,
		tokens:  opts.Tokens,
		store:   opts.Store,
		channel: opts.Channel,
		filter:  opts.Filter,
		logger:  logger.Named("session"),
	}
}

// Begin subscribes to session boundaries and, when a token is already
// present, loads the baseline and starts the channel. A failed baseline
// load is returned but the channel is started anyway.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = true
	s.unsub = append(s.unsub,
		s.tokens.OnLogin(func(string) { s.handleLogin() }),
		s.tokens.OnLogout(s.handleLogout),
	)
	s.mu.Unlock()

	if s.tokens.Token() == "" {
		s.logger.Warn("no session token; waiting for login")
		return domain.ErrNoToken
	}
	return s.open(ctx)
}

// End detaches from the token provider and stops the channel. The feed is
// kept so callers can still read the last snapshot.
func (s *Session) End() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	for _, fn := range unsub {
		fn()
	}
	s.channel.Stop()
}

func (s *Session) open(ctx context.Context) error {
	err := s.store.LoadBaseline(ctx, s.filter)
	if err != nil {
		s.logger.Warn("baseline load failed", zap.Error(err))
	}
	s.channel.Start()
	return err
}

func (s *Session) handleLogin() {
	s.logger.Info("login observed; opening session")
	_ = s.open(s.ctx)
}

func (s *Session) handleLogout() {
	s.logger.Info("logout observed; closing session")
	s.channel.Stop()
	s.store.Reset()
}
