// Package logging provides the structured logger used across the service.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the key/value logging surface the service depends on.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Zap adapts a zap SugaredLogger to Logger.
type Zap struct {
	SugaredLogger *zap.SugaredLogger
}

// NewZap builds a production (JSON) or development (console) logger at level.
// An empty level keeps the config default (info for production, debug for development).
func NewZap(mode, level string) (*Zap, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Zap{SugaredLogger: z.Sugar()}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Zap { return &Zap{SugaredLogger: z.Sugar()} }

// Sync flushes buffered entries.
func (l *Zap) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Zap) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, redact(kv)...) }
func (l *Zap) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, redact(kv)...) }
func (l *Zap) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, redact(kv)...) }
func (l *Zap) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, redact(kv)...) }

// With returns a child logger carrying kv on every entry.
func (l *Zap) With(kv ...any) *Zap {
	return &Zap{SugaredLogger: l.SugaredLogger.With(redact(kv)...)}
}

var redactKeys = []string{"dsn", "password", "secret", "token"}

// redact masks values whose key names a credential. Postgres DSNs carry passwords.
func redact(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := strings.ToLower(fmt.Sprint(kv[i]))
		val := kv[i+1]
		for _, k := range redactKeys {
			if strings.Contains(key, k) {
				val = "[REDACTED]"
				break
			}
		}
		out = append(out, kv[i], val)
	}
	return out
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }
