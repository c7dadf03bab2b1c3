package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard HTTP fields.

func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

func Method(v string) zap.Field {
	return zap.String("method", v)
}

func Path(v string) zap.Field {
	return zap.String("path", v)
}

func Status(v int) zap.Field {
	return zap.Int("status", v)
}

func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// Domain fields.

// Subject is the partner's stable identifier for the user.
func Subject(v string) zap.Field {
	return zap.String("sub", v)
}

func Issuer(v string) zap.Field {
	return zap.String("iss", v)
}

func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Email should carry a masked address in prod paths (util.MaskEmail).
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// Kind is the error-taxonomy classification of a failed exchange.
func Kind(v string) zap.Field {
	return zap.String("error_kind", v)
}

// Outcome names the provisioning branch taken (session-reuse, signin,
// created, signin-after-create).
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// System fields.

func Component(v string) zap.Field {
	return zap.String("component", v)
}

func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer identifies the architectural layer (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

// Generic fields.

func ID(v string) zap.Field {
	return zap.String("id", v)
}

func String(key, v string) zap.Field {
	return zap.String(key, v)
}

func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
