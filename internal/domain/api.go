package domain

import "context"

// NotificationAPI is the request/response surface of the notification
// backend.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, filter ListFilter) (*ListResult, error)
	UnreadCount(ctx context.Context) (*CountResult, error)
	MarkRead(ctx context.Context, ids []string) (*MarkReadResult, error)
	MarkAllRead(ctx context.Context) (*MarkReadResult, error)
}
