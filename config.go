package authsession

import (
	"log/slog"

	"github.com/MrEthical07/authsession/clock"
	"github.com/MrEthical07/authsession/jwt"
	"github.com/MrEthical07/authsession/store"
)

// DefaultKey is the Token Store key the manager persists its token under.
const DefaultKey = "__jwt"

// absentMarker is what some stores write when asked to persist a null value.
const absentMarker = "null"

// Decoder maps a raw token to its claims. It is called on every read and must
// not block. Its failure behavior (error vs. unusable claims) is its own
// contract; the manager passes errors through untouched.
type Decoder func(token string) (*jwt.Claims, error)

// Config carries the two collaborators supplied to Setup.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Storage store.Store
	Decoder Decoder
}

// MetricsConfig defines a public type used by authsession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AuditConfig defines a public type used by authsession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Option customizes a Manager at construction.
type Option func(*Manager)

// WithKey overrides DefaultKey. An empty key is ignored.
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithClock sets the time source used for expiry checks and the watchdog.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger for best-effort diagnostics (watchdog reactions).
// Errors returned to callers are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics enables in-process counters.
func WithMetrics(cfg MetricsConfig) Option {
	return func(m *Manager) {
		m.metrics = NewMetrics(cfg)
	}
}

// WithAuditSink forwards session events to sink through a buffered
// dispatcher. A zero cfg enables a 1024-event drop-if-full buffer.
// Call Manager.Close to flush it.
func WithAuditSink(sink AuditSink, cfg AuditConfig) Option {
	return func(m *Manager) {
		if cfg == (AuditConfig{}) {
			cfg = defaultAuditConfig()
		}
		m.audit.Close()
		m.audit = newAuditDispatcher(cfg, sink, m.auditEvent)
	}
}

func defaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:    true,
		BufferSize: 1024,
		DropIfFull: true,
	}
}
