package feed

import (
	"context"
	"sync"

	"feedsync/internal/domain"
)

type fakeAPI struct {
	mu sync.Mutex

	list      *domain.ListResult
	listErr   error
	count     int
	countErr  error
	markRead  *domain.MarkReadResult
	markErr   error
	markAll   *domain.MarkReadResult
	markAllEr error

	lastFilter  domain.ListFilter
	listCalls   int
	markedIDs   [][]string
	markAllHits int
}

func (f *fakeAPI) ListNotifications(_ context.Context, filter domain.ListFilter) (*domain.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeAPI) UnreadCount(context.Context) (*domain.CountResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return nil, f.countErr
	}
	return &domain.CountResult{UnreadCount: f.count}, nil
}

func (f *fakeAPI) MarkRead(_ context.Context, ids []string) (*domain.MarkReadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedIDs = append(f.markedIDs, append([]string(nil), ids...))
	if f.markErr != nil {
		return nil, f.markErr
	}
	return f.markRead, nil
}

func (f *fakeAPI) MarkAllRead(context.Context) (*domain.MarkReadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAllHits++
	if f.markAllEr != nil {
		return nil, f.markAllEr
	}
	return f.markAll, nil
}

type countingAlert struct {
	mu    sync.Mutex
	plays int
}

func (c *countingAlert) Play() {
	c.mu.Lock()
	c.plays++
	c.mu.Unlock()
}

func (c *countingAlert) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays
}
