package security

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SecurityEventType names a security-relevant occurrence.
type SecurityEventType string

const (
	EventUnauthenticated    SecurityEventType = "unauthenticated"
	EventInvalidToken       SecurityEventType = "invalid_token"
	EventUnauthorizedAccess SecurityEventType = "unauthorized_access"
	EventRateLimitExceeded  SecurityEventType = "rate_limit_exceeded"
	EventWebhookRejected    SecurityEventType = "webhook_rejected"
	EventWebhookApplied     SecurityEventType = "webhook_applied"
	EventGroupDeleted       SecurityEventType = "group_deleted"
	EventAlert              SecurityEventType = "security_alert"
)

// Logger wraps a zap logger with the application's event vocabulary.
type Logger struct {
	z *zap.Logger
}

// NewLogger builds a JSON production logger, or a console logger when env is
// "development".
//
// Parameters:
//   - level: zap level name (debug, info, warn, error)
//   - env: application environment
//
// Returns:
//   - *Logger: ready to use
//   - error: if level is not a valid zap level
func NewLogger(level, env string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{z: z}, nil
}

// NewLoggerFrom wraps an existing zap logger.
func NewLoggerFrom(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// Zap exposes the underlying logger for packages that log plain events.
func (l *Logger) Zap() *zap.Logger { return l.z }

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.z.Sync() }

func (l *Logger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }

func (l *Logger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }

// Error logs msg with err attached.
func (l *Logger) Error(msg string, err error, fields ...zap.Field) {
	l.z.Error(msg, append(fields, zap.Error(err))...)
}

// Critical logs a failure that needs an operator, such as losing the database.
func (l *Logger) Critical(msg string, err error, fields ...zap.Field) {
	l.z.Error(msg, append(fields, zap.Error(err), zap.Bool("critical", true))...)
}

// HTTPRequest logs one served request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMS int64, ip, userAgent string) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Int64("latency_ms", latencyMS),
		zap.String("ip", ip),
		zap.String("user_agent", userAgent),
	}
	msg := fmt.Sprintf("%s %s %d", method, path, status)

	switch {
	case status >= 500:
		l.z.Error(msg, fields...)
	case status >= 400:
		l.z.Warn(msg, fields...)
	default:
		l.z.Info(msg, fields...)
	}
}

// SecurityEvent logs a security-relevant event. actorID is the internal user
// id when known, empty otherwise.
func (l *Logger) SecurityEvent(event SecurityEventType, actorID, ip, userAgent string, extra map[string]interface{}) {
	fields := []zap.Field{
		zap.String("event_type", string(event)),
		zap.String("ip", ip),
		zap.String("user_agent", userAgent),
	}
	if actorID != "" {
		fields = append(fields, zap.String("actor_id", actorID))
	}
	if len(extra) > 0 {
		fields = append(fields, zap.Any("extra", extra))
	}
	l.z.Warn("security event", fields...)
}
