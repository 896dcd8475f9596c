package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"feedsync/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func notification(id string, read bool) domain.Notification {
	return domain.Notification{
		ID:        id,
		Category:  domain.CategoryInfo,
		Title:     "title " + id,
		Read:      read,
		CreatedAt: fixedNow.Add(-time.Hour),
	}
}

func ids(c domain.Collection) []string {
	out := make([]string, 0, len(c.Items))
	for _, n := range c.Items {
		out = append(out, n.ID)
	}
	return out
}

func newTestStore(api *fakeAPI) *Store {
	return NewStore(api, nil, WithClock(func() time.Time { return fixedNow }))
}

func TestStore_LoadBaselineReplacesState(t *testing.T) {
	api := &fakeAPI{list: &domain.ListResult{
		Notifications: []domain.Notification{notification("A", false), notification("B", true)},
		UnreadCount:   1,
		Total:         2,
	}}
	s := newTestStore(api)

	require.NoError(t, s.LoadBaseline(context.Background(), domain.ListFilter{}))

	snap := s.Snapshot()
	require.Equal(t, []string{"A", "B"}, ids(snap))
	require.Equal(t, 1, snap.UnreadCount)
	require.Equal(t, 2, snap.Total)
	require.False(t, snap.Loading)
	require.Empty(t, snap.Error)
}

func TestStore_LoadBaselineFailureKeepsState(t *testing.T) {
	api := &fakeAPI{list: &domain.ListResult{
		Notifications: []domain.Notification{notification("A", false)},
		UnreadCount:   1,
		Total:         1,
	}}
	s := newTestStore(api)
	require.NoError(t, s.LoadBaseline(context.Background(), domain.ListFilter{}))

	api.listErr = errors.New("offline")
	err := s.LoadBaseline(context.Background(), domain.ListFilter{})
	require.Error(t, err)

	snap := s.Snapshot()
	require.Equal(t, []string{"A"}, ids(snap))
	require.Equal(t, 1, snap.UnreadCount)
	require.Equal(t, LoadFailedMessage, snap.Error)
	require.False(t, snap.Loading)
}

func TestStore_MarkReadStampsAndAdoptsServerCount(t *testing.T) {
	api := &fakeAPI{
		list: &domain.ListResult{
			Notifications: []domain.Notification{notification("A", false), notification("B", false)},
			UnreadCount:   2,
			Total:         2,
		},
		markRead: &domain.MarkReadResult{Updated: 1, UnreadCount: 7},
	}
	s := newTestStore(api)
	require.NoError(t, s.LoadBaseline(context.Background(), domain.ListFilter{}))

	require.NoError(t, s.MarkRead(context.Background(), []string{"A"}))

	snap := s.Snapshot()
	require.True(t, snap.Items[0].Read)
	require.NotNil(t, snap.Items[0].ReadAt)
	require.True(t, snap.Items[0].ReadAt.Equal(fixedNow))
	require.False(t, snap.Items[1].Read)
	require.Equal(t, 7, snap.UnreadCount)
	require.Equal(t, [][]string{{"A"}}, api.markedIDs)
}

func TestStore_MarkReadFailureChangesNothing(t *testing.T) {
	api := &fakeAPI{
		list: &domain.ListResult{
			Notifications: []domain.Notification{notification("A", false)},
			UnreadCount:   1,
			Total:         1,
		},
		markErr: errors.New("503"),
	}
	s := newTestStore(api)
	require.NoError(t, s.LoadBaseline(context.Background(), domain.ListFilter{}))
	before := s.Snapshot()

	require.Error(t, s.MarkRead(context.Background(), []string{"A"}))
	require.Empty(t, cmp.Diff(before, s.Snapshot()))
}

func TestStore_MarkAllReadKeepsExistingReadAt(t *testing.T) {
	earlier := fixedNow.Add(-24 * time.Hour)
	readB := notification("B", true)
	readB.ReadAt = &earlier
	api := &fakeAPI{
		list: &domain.ListResult{
			Notifications: []domain.Notification{notification("A", false), readB},
			UnreadCount:   1,
			Total:         2,
		},
		markAll: &domain.MarkReadResult{Updated: 1, UnreadCount: 0},
	}
	s := newTestStore(api)
	require.NoError(t, s.LoadBaseline(context.Background(), domain.ListFilter{}))

	require.NoError(t, s.MarkAllRead(context.Background()))

	snap := s.Snapshot()
	require.Zero(t, snap.UnreadCount)
	require.True(t, snap.Items[0].Read)
	require.True(t, snap.Items[0].ReadAt.Equal(fixedNow))
	require.True(t, snap.Items[1].ReadAt.Equal(earlier))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := s.Watch(ctx)

	d := NewDispatcher(s, nil, nil, nil)
	d.HandleFrame([]byte(`{"event":"notification_read","data":{"notification_ids":["A","B"]}}`))

	require.Empty(t, cmp.Diff(snap, s.Snapshot()))
	select {
	case got := <-updates:
		t.Fatalf("unexpected snapshot after repeated read event: %+v", got)
	default:
	}
}

func TestStore_SetUnreadCountClampsNegative(t *testing.T) {
	s := newTestStore(&fakeAPI{})
	s.SetUnreadCount(-3)
	require.Zero(t, s.Snapshot().UnreadCount)
}

func TestStore_ResetClearsEverything(t *testing.T) {
	api := &fakeAPI{list: &domain.ListResult{
		Notifications: []domain.Notification{notification("A", false)},
		UnreadCount:   1,
		Total:         1,
	}}
	s := newTestStore(api)
	require.NoError(t, s.LoadBaseline(context.Background(), domain.ListFilter{}))

	s.Reset()

	require.Empty(t, cmp.Diff(domain.Collection{Items: []domain.Notification{}}, s.Snapshot()))
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := newTestStore(&fakeAPI{})
	s.Prepend(notification("A", false))

	snap := s.Snapshot()
	snap.Items[0].Read = true
	snap.Items[0].Title = "changed"

	fresh := s.Snapshot()
	require.False(t, fresh.Items[0].Read)
	require.Equal(t, "title A", fresh.Items[0].Title)
}

func TestStore_WatchReceivesChanges(t *testing.T) {
	s := newTestStore(&fakeAPI{})
	updates := s.Watch(t.Context())

	s.SetUnreadCount(4)

	select {
	case snap := <-updates:
		require.Equal(t, 4, snap.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}
