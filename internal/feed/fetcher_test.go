package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"feedsync/internal/domain"
)

func TestFetcher_ListAppliesDefaultLimit(t *testing.T) {
	api := &fakeAPI{list: &domain.ListResult{Total: 0}}
	f := NewFetcher(api, nil)

	_, err := f.List(context.Background(), domain.ListFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Equal(t, domain.ListFilter{Limit: 20, UnreadOnly: true}, api.lastFilter)
}

func TestFetcher_ListRejectsInvalidFilter(t *testing.T) {
	api := &fakeAPI{list: &domain.ListResult{}}
	f := NewFetcher(api, nil)

	for _, filter := range []domain.ListFilter{
		{Limit: 101},
		{Limit: -1},
		{Limit: 10, Offset: -5},
	} {
		_, err := f.List(context.Background(), filter)
		require.ErrorIs(t, err, domain.ErrInvalidFilter)
		code, ok := domain.CodeFrom(err)
		require.True(t, ok)
		require.Equal(t, domain.CodeInvalidArgument, code)
	}
	require.Zero(t, api.listCalls)
}

func TestFetcher_UnreadCountPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	f := NewFetcher(&fakeAPI{countErr: boom}, nil)

	_, err := f.UnreadCount(context.Background())
	require.ErrorIs(t, err, boom)
}
