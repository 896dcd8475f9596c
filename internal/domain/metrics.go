package domain

import "time"

// Metrics records client-side synchronization telemetry.
type Metrics interface {
	SetChannelState(state ChannelState)
	ObserveDial(duration time.Duration, err error)
	ObserveReconnectScheduled(delay time.Duration)
	ObserveClose(code int)
	ObserveFrame(kind string)
	ObserveFrameError(reason string)
	ObserveHeartbeat(err error)
	ObserveAPICall(op string, duration time.Duration, err error)
	ObserveAlert(outcome AlertOutcome)
}

// AlertOutcome labels what happened to a play request.
type AlertOutcome string

const (
	// AlertPlayed means the cue was handed to the player.
	AlertPlayed AlertOutcome = "played"
	// AlertDisabled means the user preference suppressed the cue.
	AlertDisabled AlertOutcome = "disabled"
	// AlertLocked means playback had not been unlocked yet.
	AlertLocked AlertOutcome = "locked"
	// AlertFailed means the player rejected the request.
	AlertFailed AlertOutcome = "failed"
)
