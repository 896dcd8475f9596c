package domain

import "time"

// ChannelState is the lifecycle state of the push channel.
type ChannelState string

const (
	ChannelDisconnected     ChannelState = "disconnected"
	ChannelConnecting       ChannelState = "connecting"
	ChannelConnected        ChannelState = "connected"
	ChannelReconnectPending ChannelState = "reconnect_pending"
)

// StateChange is published to channel watchers on every transition.
type StateChange struct {
	From   ChannelState
	To     ChannelState
	ConnID string
	Err    error
	At     time.Time
}

// EventKind names a server-to-client push event.
type EventKind string

const (
	EventConnected         EventKind = "connected"
	EventNewNotification   EventKind = "new_notification"
	EventNotificationCount EventKind = "notification_count"
	EventNotificationRead  EventKind = "notification_read"
)

// FrameHandler consumes raw inbound frames from the push channel. Frames are
// delivered one at a time, in receipt order.
type FrameHandler interface {
	HandleFrame(raw []byte)
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(raw []byte)

func (f FrameHandlerFunc) HandleFrame(raw []byte) {
	f(raw)
}
