package domain

import "errors"

var ErrNoToken = errors.New("no session token available")
var ErrTokenExpired = errors.New("session token expired")
var ErrInvalidFilter = errors.New("invalid notification filter")
var ErrMalformedFrame = errors.New("malformed push frame")
var ErrUnknownEvent = errors.New("unknown push event")
var ErrConnectionClosed = errors.New("connection closed")
var ErrPlaybackUnavailable = errors.New("playback unavailable")
