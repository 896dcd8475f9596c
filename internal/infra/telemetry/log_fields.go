package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldState      = "state"
	FieldPrevState  = "prev_state"
	FieldConnID     = "conn_id"
	FieldCloseCode  = "close_code"
	FieldDurationMs = "duration_ms"
	FieldDelayMs    = "delay_ms"
	FieldOp         = "op"
	FieldCount      = "count"
	FieldLogSource  = "log_source"
)

const (
	EventDialAttempt       = "dial_attempt"
	EventDialSuccess       = "dial_success"
	EventDialFailure       = "dial_failure"
	EventChannelClosed     = "channel_closed"
	EventReconnectSchedule = "reconnect_scheduled"
	EventReconnectSkipped  = "reconnect_skipped"
	EventHeartbeatFailure  = "heartbeat_failure"
	EventFrameDiscarded    = "frame_discarded"
	EventStopRequested     = "stop_requested"
)

const (
	LogSourceCore = "core"
	LogSourceCLI  = "cli"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func StateField(state string) zap.Field {
	return zap.String(FieldState, state)
}

func PrevStateField(state string) zap.Field {
	return zap.String(FieldPrevState, state)
}

func ConnIDField(id string) zap.Field {
	return zap.String(FieldConnID, id)
}

func CloseCodeField(code int) zap.Field {
	return zap.Int(FieldCloseCode, code)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func DelayField(delay time.Duration) zap.Field {
	return zap.Int64(FieldDelayMs, delay.Milliseconds())
}

func OpField(op string) zap.Field {
	return zap.String(FieldOp, op)
}

func CountField(count int) zap.Field {
	return zap.Int(FieldCount, count)
}
