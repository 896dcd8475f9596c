package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"feedsync/internal/domain"
	"feedsync/internal/infra/telemetry"
)

// LoadFailedMessage is the user-visible error set when a baseline load fails.
const LoadFailedMessage = "Failed to load notifications"

// Store is the single source of truth for the feed. Bulk replacement comes
// from the request/response path, incremental changes from push events.
type Store struct {
	fetcher *Fetcher
	api     domain.NotificationAPI
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	state domain.Collection

	subsMu sync.Mutex
	subs   map[chan domain.Collection]struct{}
}

type StoreOption func(*Store)

// WithClock overrides the clock used to stamp read times.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(api domain.NotificationAPI, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		fetcher: NewFetcher(api, logger),
		api:     api,
		logger:  logger.Named("store"),
		now:     time.Now,
		state:   domain.Collection{Items: []domain.Notification{}},
		subs:    make(map[chan domain.Collection]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadBaseline replaces the collection with an authoritative page. On
// failure the previous contents stay and the error flag is raised.
func (s *Store) LoadBaseline(ctx context.Context, filter domain.ListFilter) error {
	s.update(func(c *domain.Collection) bool {
		c.Loading = true
		c.Error = ""
		return true
	})

	result, err := s.fetcher.List(ctx, filter)
	if err != nil {
		s.logger.Error("baseline load failed", zap.Error(err))
		s.update(func(c *domain.Collection) bool {
			c.Loading = false
			c.Error = LoadFailedMessage
			return true
		})
		return err
	}

	items := make([]domain.Notification, 0, len(result.Notifications))
	for _, n := range result.Notifications {
		items = append(items, n.Clone())
	}
	s.update(func(c *domain.Collection) bool {
		c.Items = items
		c.UnreadCount = clampCount(result.UnreadCount)
		c.Total = result.Total
		c.Loading = false
		return true
	})
	s.logger.Debug("baseline loaded", telemetry.CountField(len(items)))
	return nil
}

// RefreshUnreadCount overwrites the unread count from the backend. Failures
// leave the state untouched.
func (s *Store) RefreshUnreadCount(ctx context.Context) error {
	count, err := s.fetcher.UnreadCount(ctx)
	if err != nil {
		s.logger.Error("unread count refresh failed", zap.Error(err))
		return err
	}
	s.SetUnreadCount(count)
	return nil
}

// MarkRead acknowledges ids with the backend, then flips them locally and
// adopts the server's unread count. Nothing changes locally on failure.
func (s *Store) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if s.api == nil {
		return domain.E(domain.CodeFailedPrecond, "feed.mark_read", "notification api not configured", nil)
	}
	result, err := s.api.MarkRead(ctx, ids)
	if err != nil {
		s.logger.Error("mark read failed", telemetry.CountField(len(ids)), zap.Error(err))
		return err
	}
	if result == nil {
		return errors.New("feed.mark_read: empty response")
	}

	stamp := s.now()
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	s.update(func(c *domain.Collection) bool {
		for i := range c.Items {
			if _, ok := wanted[c.Items[i].ID]; ok {
				c.Items[i].MarkRead(&stamp)
			}
		}
		c.UnreadCount = clampCount(result.UnreadCount)
		return true
	})
	return nil
}

// MarkAllRead is MarkRead over the whole collection. Existing read times are
// kept.
func (s *Store) MarkAllRead(ctx context.Context) error {
	if s.api == nil {
		return domain.E(domain.CodeFailedPrecond, "feed.mark_all_read", "notification api not configured", nil)
	}
	result, err := s.api.MarkAllRead(ctx)
	if err != nil {
		s.logger.Error("mark all read failed", zap.Error(err))
		return err
	}
	if result == nil {
		return errors.New("feed.mark_all_read: empty response")
	}

	stamp := s.now()
	s.update(func(c *domain.Collection) bool {
		for i := range c.Items {
			c.Items[i].MarkRead(&stamp)
		}
		c.UnreadCount = clampCount(result.UnreadCount)
		return true
	})
	return nil
}

// Reset drops everything held for the current session.
func (s *Store) Reset() {
	s.update(func(c *domain.Collection) bool {
		*c = domain.Collection{Items: []domain.Notification{}}
		return true
	})
}

// SetUnreadCount adopts a server-provided count, clamped at zero.
func (s *Store) SetUnreadCount(count int) {
	s.update(func(c *domain.Collection) bool {
		next := clampCount(count)
		if c.UnreadCount == next {
			return false
		}
		c.UnreadCount = next
		return true
	})
}

// Prepend inserts a newly pushed notification at the head of the list and
// bumps both counters.
func (s *Store) Prepend(n domain.Notification) {
	item := n.Clone()
	s.update(func(c *domain.Collection) bool {
		items := make([]domain.Notification, 0, len(c.Items)+1)
		items = append(items, item)
		items = append(items, c.Items...)
		c.Items = items
		c.UnreadCount++
		c.Total++
		return true
	})
}

// MarkReadLocal applies a read acknowledgement that happened elsewhere. The
// read time is not invented and the unread count is left alone.
func (s *Store) MarkReadLocal(ids []string) int {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	changed := 0
	s.update(func(c *domain.Collection) bool {
		for i := range c.Items {
			if _, ok := wanted[c.Items[i].ID]; ok && c.Items[i].MarkRead(nil) {
				changed++
			}
		}
		return changed > 0
	})
	return changed
}

// Snapshot returns a deep copy of the current collection.
func (s *Store) Snapshot() domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCollection(s.state)
}

// Watch streams a snapshot after every change until ctx is done. Slow
// readers miss intermediate snapshots.
func (s *Store) Watch(ctx context.Context) <-chan domain.Collection {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan domain.Collection, 16)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, ch)
		s.subsMu.Unlock()
	}()
	return ch
}

func (s *Store) update(mutate func(c *domain.Collection) bool) {
	s.mu.Lock()
	if !mutate(&s.state) {
		s.mu.Unlock()
		return
	}
	snapshot := copyCollection(s.state)
	s.mu.Unlock()
	s.broadcast(snapshot)
}

func (s *Store) broadcast(snapshot domain.Collection) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func copyCollection(c domain.Collection) domain.Collection {
	out := c
	out.Items = make([]domain.Notification, len(c.Items))
	for i, n := range c.Items {
		out.Items[i] = n.Clone()
	}
	return out
}

func clampCount(count int) int {
	if count < 0 {
		return 0
	}
	return count
}
