package feed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"feedsync/internal/domain"
	"feedsync/internal/infra/telemetry"
)

// Fetcher performs paged request/response retrieval of the feed.
type Fetcher struct {
	api    domain.NotificationAPI
	logger *zap.Logger
}

func NewFetcher(api domain.NotificationAPI, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		api:    api,
		logger: logger.Named("fetcher"),
	}
}

// List returns one page of notifications. The filter is normalized first;
// an out-of-range filter fails without calling the backend.
func (f *Fetcher) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult, error) {
	normalized, err := filter.Normalize()
	if err != nil {
		return nil, domain.Wrap(domain.CodeInvalidArgument, "feed.list", err)
	}
	if f.api == nil {
		return nil, domain.E(domain.CodeFailedPrecond, "feed.list", "notification api not configured", nil)
	}
	result, err := f.api.ListNotifications(ctx, normalized)
	if err != nil {
		f.logger.Warn("list notifications failed", telemetry.OpField("list"), zap.Error(err))
		return nil, err
	}
	if result == nil {
		return nil, domain.E(domain.CodeInternal, "feed.list", "empty response", nil)
	}
	return result, nil
}

func (f *Fetcher) UnreadCount(ctx context.Context) (int, error) {
	if f.api == nil {
		return 0, domain.E(domain.CodeFailedPrecond, "feed.count", "notification api not configured", nil)
	}
	result, err := f.api.UnreadCount(ctx)
	if err != nil {
		f.logger.Warn("fetch unread count failed", telemetry.OpField("unread_count"), zap.Error(err))
		return 0, err
	}
	if result == nil {
		return 0, errors.New("feed.count: empty response")
	}
	return result.UnreadCount, nil
}
