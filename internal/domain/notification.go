package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Category classifies a notification for presentation.
type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryError   Category = "error"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryInfo, CategorySuccess, CategoryWarning, CategoryError:
		return true
	default:
		return false
	}
}

// Notification is a single feed entry. Only Read and ReadAt ever change, and
// only in the false→true / unset→set direction.
type Notification struct {
	ID        string         `json:"id" yaml:"id"`
	Category  Category       `json:"type" yaml:"type"`
	Title     string         `json:"title" yaml:"title"`
	Message   *string        `json:"message" yaml:"message,omitempty"`
	Link      *string        `json:"link" yaml:"link,omitempty"`
	Read      bool           `json:"is_read" yaml:"is_read"`
	Metadata  map[string]any `json:"extra_data" yaml:"extra_data,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	ReadAt    *time.Time     `json:"read_at" yaml:"read_at,omitempty"`
}

// MarkRead flips the read flag. When stamp is non-nil and no read time is
// recorded yet, it becomes the read time. It returns true if anything changed.
func (n *Notification) MarkRead(stamp *time.Time) bool {
	changed := false
	if !n.Read {
		n.Read = true
		changed = true
	}
	if stamp != nil && n.ReadAt == nil {
		at := *stamp
		n.ReadAt = &at
		changed = true
	}
	return changed
}

// Clone returns a copy that shares no pointers with n.
func (n Notification) Clone() Notification {
	out := n
	if n.Message != nil {
		msg := *n.Message
		out.Message = &msg
	}
	if n.Link != nil {
		link := *n.Link
		out.Link = &link
	}
	if n.ReadAt != nil {
		at := *n.ReadAt
		out.ReadAt = &at
	}
	if n.Metadata != nil {
		out.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Collection is a point-in-time view of the notification feed.
type Collection struct {
	Items       []Notification `json:"notifications" yaml:"notifications"`
	UnreadCount int            `json:"unread_count" yaml:"unread_count"`
	Total       int            `json:"total" yaml:"total"`
	Loading     bool           `json:"-" yaml:"-"`
	Error       string         `json:"-" yaml:"-"`
}

func (c Collection) HasUnread() bool {
	return c.UnreadCount > 0
}

// DisplayCount renders the unread badge, capped at "99+".
func (c Collection) DisplayCount() string {
	if c.UnreadCount > DisplayCountCap {
		return strconv.Itoa(DisplayCountCap) + "+"
	}
	return strconv.Itoa(c.UnreadCount)
}

// ListFilter selects a page of notifications.
type ListFilter struct {
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
	UnreadOnly bool `json:"unread_only,omitempty"`
}

// Normalize applies the default page size and validates bounds.
func (f ListFilter) Normalize() (ListFilter, error) {
	out := f
	if out.Limit == 0 {
		out.Limit = DefaultPageSize
	}
	if out.Limit < 1 || out.Limit > MaxPageSize {
		return ListFilter{}, fmt.Errorf("%w: limit %d outside 1..%d", ErrInvalidFilter, f.Limit, MaxPageSize)
	}
	if out.Offset < 0 {
		return ListFilter{}, fmt.Errorf("%w: negative offset %d", ErrInvalidFilter, f.Offset)
	}
	return out, nil
}

type ListResult struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	Total         int            `json:"total"`
}

type CountResult struct {
	UnreadCount int `json:"unread_count"`
}

type MarkReadResult struct {
	Updated     int `json:"updated"`
	UnreadCount int `json:"unread_count"`
}
