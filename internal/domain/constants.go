package domain

const (
	DefaultAPIBaseURL                 = "http://localhost:8001"
	DefaultAPITimeoutSeconds          = 30
	DefaultPushPath                   = "/notifications/ws"
	DefaultHeartbeatSeconds           = 30
	DefaultPongWaitSeconds            = 90
	DefaultReconnectDelaySeconds      = 5
	DefaultReconnectMaxDelaySeconds   = 5
	DefaultHandshakeTimeoutSeconds    = 10
	DefaultWriteWaitSeconds           = 10
	DefaultPageSize                   = 20
	MaxPageSize                       = 100
	DefaultSessionBackend             = "file"
	DefaultKeyringService             = "feedsync"
	DefaultAlertEnabled               = true
	DefaultAlertVolume                = 0.5
	DefaultObservabilityListenAddress = "127.0.0.1:9090"
	DefaultObservabilityEnabled       = false
	DisplayCountCap                   = 99
)

// Push protocol literals.
const (
	HeartbeatFrame    = "ping"
	HeartbeatAckFrame = "pong"
	TokenQueryParam   = "token"
)

// Close codes with a defined meaning on the push channel.
const (
	CloseNormal       = 1000
	CloseAbnormal     = 1006
	CloseAuthRejected = 4001
)

// IsIntentionalClose reports whether a close code must suppress reconnects.
func IsIntentionalClose(code int) bool {
	return code == CloseNormal || code == CloseAuthRejected
}
