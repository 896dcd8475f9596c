package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"feedsync/internal/domain"
)

const defaultReloadDebounce = 200 * time.Millisecond

// Store is the session token provider. It caches the backend value and
// notifies listeners when a session starts or ends.
type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	token  string
	nextID int
	login  map[int]func(string)
	logout map[int]func()

	watchOnce sync.Once
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore loads the current token from backend.
func NewStore(backend Backend, logger *zap.Logger, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("session backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		logger:  logger.Named("session"),
		now:     time.Now,
		login:   make(map[int]func(string)),
		logout:  make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	token, err := backend.Load()
	if err != nil {
		return nil, err
	}
	s.token = token
	return s, nil
}

// Token returns the current token, or "" when there is none or it has
// expired.
func (s *Store) Token() string {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return ""
	}
	if tokenExpired(token, s.now()) {
		s.logger.Debug("session token expired")
		return ""
	}
	return token
}

// Valid reports whether a usable token is present, with ErrTokenExpired when
// the stored token is past its expiry.
func (s *Store) Valid() error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	switch {
	case token == "":
		return domain.ErrNoToken
	case tokenExpired(token, s.now()):
		return domain.ErrTokenExpired
	default:
		return nil
	}
}

func (s *Store) Login(token string) error {
	if token == "" {
		return domain.E(domain.CodeInvalidArgument, "session.login", "token is empty", nil)
	}
	if err := s.backend.Save(token); err != nil {
		return domain.Wrap(domain.CodeInternal, "session.login", err)
	}
	s.apply(token)
	return nil
}

func (s *Store) Logout() error {
	if err := s.backend.Clear(); err != nil {
		return domain.Wrap(domain.CodeInternal, "session.logout", err)
	}
	s.apply("")
	return nil
}

// Reload re-reads the backend and fires listeners for any transition.
func (s *Store) Reload() error {
	token, err := s.backend.Load()
	if err != nil {
		return err
	}
	s.apply(token)
	return nil
}

func (s *Store) OnLogin(fn func(token string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.login[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.login, id)
		s.mu.Unlock()
	}
}

func (s *Store) OnLogout(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.logout[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.logout, id)
		s.mu.Unlock()
	}
}

func (s *Store) apply(token string) {
	s.mu.Lock()
	prev := s.token
	if prev == token {
		s.mu.Unlock()
		return
	}
	s.token = token
	var loginFns []func(string)
	var logoutFns []func()
	if token == "" {
		for _, fn := range s.logout {
			logoutFns = append(logoutFns, fn)
		}
	} else {
		for _, fn := range s.login {
			loginFns = append(loginFns, fn)
		}
	}
	s.mu.Unlock()

	if token == "" {
		s.logger.Info("session ended")
		for _, fn := range logoutFns {
			fn()
		}
		return
	}
	s.logger.Info("session started")
	for _, fn := range loginFns {
		fn(token)
	}
}

// WatchFile follows the token file of a FileBackend until ctx is done.
// Removing the file ends the session; writing it starts a new one.
func (s *Store) WatchFile(ctx context.Context) error {
	fb, ok := s.backend.(*FileBackend)
	if !ok {
		return nil
	}
	var err error
	s.watchOnce.Do(func() {
		var watcher *fsnotify.Watcher
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return
		}
		if err = watcher.Add(filepath.Dir(fb.Path())); err != nil {
			_ = watcher.Close()
			return
		}
		go s.runWatcher(ctx, watcher, fb.Path())
	})
	return err
}

func (s *Store) runWatcher(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer watcher.Close()

	target := filepath.Clean(path)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("token watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(defaultReloadDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(defaultReloadDebounce)
		case <-timerChan(timer):
			timer = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("token reload failed", zap.Error(err))
			}
		}
	}
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}

var _ domain.SessionProvider = (*Store)(nil)
