package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"feedsync/internal/domain"
	"feedsync/internal/infra/session"
)

type recordingChannel struct {
	mu    sync.Mutex
	calls []string
}

func (c *recordingChannel) Start() { c.record("start") }

func (c *recordingChannel) Stop() { c.record("stop") }

func (c *recordingChannel) record(call string) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

type recordingBaseline struct {
	recordingChannel
	err     error
	filters []domain.ListFilter
}

func (b *recordingBaseline) LoadBaseline(_ context.Context, filter domain.ListFilter) error {
	b.record("load")
	b.mu.Lock()
	b.filters = append(b.filters, filter)
	b.mu.Unlock()
	return b.err
}

func (b *recordingBaseline) Reset() { b.record("reset") }

func newSessionFixture(t *testing.T, token string) (*Session, *session.Store, *recordingBaseline, *recordingChannel) {
	t.Helper()
	tokens, err := session.NewStore(session.NewMemoryBackend(token), nil)
	require.NoError(t, err)
	store := &recordingBaseline{}
	channel := &recordingChannel{}
	s := NewSession(context.Background(), SessionOptions{
		Tokens:  tokens,
		Store:   store,
		Channel: channel,
		Filter:  domain.ListFilter{Limit: 50},
	})
	return s, tokens, store, channel
}

func TestSession_BeginWithTokenLoadsThenStarts(t *testing.T) {
	s, _, store, channel := newSessionFixture(t, "tok")

	require.NoError(t, s.Begin(context.Background()))

	require.Equal(t, []string{"load"}, store.calls)
	require.Equal(t, []domain.ListFilter{{Limit: 50}}, store.filters)
	require.Equal(t, []string{"start"}, channel.calls)
}

func TestSession_BeginWithoutTokenWaitsForLogin(t *testing.T) {
	s, tokens, store, channel := newSessionFixture(t, "")

	require.ErrorIs(t, s.Begin(context.Background()), domain.ErrNoToken)
	require.Empty(t, store.calls)
	require.Empty(t, channel.calls)

	require.NoError(t, tokens.Login("tok"))
	require.Equal(t, []string{"load"}, store.calls)
	require.Equal(t, []string{"start"}, channel.calls)
}

func TestSession_LogoutStopsChannelAndResetsStore(t *testing.T) {
	s, tokens, store, channel := newSessionFixture(t, "tok")
	require.NoError(t, s.Begin(context.Background()))

	require.NoError(t, tokens.Logout())

	require.Equal(t, []string{"start", "stop"}, channel.calls)
	require.Equal(t, []string{"load", "reset"}, store.calls)
}

func TestSession_BaselineFailureStillStartsChannel(t *testing.T) {
	s, _, store, channel := newSessionFixture(t, "tok")
	store.err = errors.New("offline")

	require.Error(t, s.Begin(context.Background()))
	require.Equal(t, []string{"start"}, channel.calls)
}

func TestSession_EndDetachesListeners(t *testing.T) {
	s, tokens, store, channel := newSessionFixture(t, "tok")
	require.NoError(t, s.Begin(context.Background()))

	s.End()
	s.End()
	require.NoError(t, tokens.Logout())

	require.Equal(t, []string{"start", "stop"}, channel.calls)
	require.Equal(t, []string{"load"}, store.calls)
}
