package authsession

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/authsession/clock"
)

// ExpiryHandler reacts to a held token that no longer yields claims.
type ExpiryHandler func(ctx context.Context) error

// Watchdog periodically checks the held token and calls its handler once the
// token has expired or can no longer be decoded.
//
// A Watchdog replaced by a later EnableCheckExp still fires the tick it had
// already scheduled, using its own interval and handler, and then stops.
type Watchdog struct {
	m        *Manager
	ctx      context.Context
	interval time.Duration
	handler  ExpiryHandler

	mu         sync.Mutex
	timer      *clock.Timer
	stopped    bool
	superseded bool
	releaseCtx func() bool
}

// EnableCheckExp checks the session immediately and then every interval on
// the manager's clock. When a token is held but Info yields nothing, fn runs;
// a nil fn signs out. Handler errors are logged and counted and the loop
// keeps going.
//
// The loop ends on Watchdog.Stop, DisableCheckExp, Close, or when ctx is
// canceled. A second call replaces the current watchdog.
func (m *Manager) EnableCheckExp(ctx context.Context, interval time.Duration, fn ExpiryHandler) (*Watchdog, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if _, err := m.configured(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fn == nil {
		fn = m.Signout
	}

	w := &Watchdog{
		m:        m,
		ctx:      ctx,
		interval: interval,
		handler:  fn,
	}

	m.mu.Lock()
	prev := m.watchdog
	m.watchdog = w
	m.retired = slices.DeleteFunc(m.retired, (*Watchdog).Stopped)
	if prev != nil {
		m.retired = append(m.retired, prev)
	}
	m.mu.Unlock()
	prev.supersede()

	w.mu.Lock()
	w.releaseCtx = context.AfterFunc(ctx, w.Stop)
	w.mu.Unlock()

	w.tick()
	return w, nil
}

// DisableCheckExp stops the current watchdog along with any stale tick a
// replaced watchdog still had pending. It is a no-op when none is armed.
func (m *Manager) DisableCheckExp() {
	m.mu.Lock()
	current := m.watchdog
	retired := m.retired
	m.watchdog = nil
	m.retired = nil
	m.mu.Unlock()

	current.Stop()
	for _, w := range retired {
		w.Stop()
	}
}

// Interval returns the period between checks.
func (w *Watchdog) Interval() time.Duration {
	return w.interval
}

// Stopped reports whether the watchdog will never check again.
func (w *Watchdog) Stopped() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// Stop cancels any pending check. Calling Stop more than once is harmless.
func (w *Watchdog) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	timer, release := w.timer, w.releaseCtx
	w.timer = nil
	w.mu.Unlock()

	timer.Stop()
	if release != nil {
		release()
	}

	w.m.mu.Lock()
	if w.m.watchdog == w {
		w.m.watchdog = nil
	}
	w.m.mu.Unlock()
}

func (w *Watchdog) supersede() {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.superseded = true
	pending := w.timer != nil
	w.mu.Unlock()
	if !pending {
		w.Stop()
	}
}

func (w *Watchdog) tick() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	w.check()

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if w.superseded {
		w.mu.Unlock()
		w.Stop()
		return
	}
	w.timer = w.m.clock.AfterFunc(w.interval, w.tick)
	w.mu.Unlock()
}

func (w *Watchdog) check() {
	m := w.m
	m.metrics.Inc(MetricWatchdogTick)
	if !m.HasToken() {
		return
	}

	info, err := m.Info()
	if err == nil && info != nil {
		return
	}

	m.metrics.Inc(MetricWatchdogExpired)
	if err != nil {
		m.logger.Debug("authsession: held token failed to decode", "key", m.key, "error", err)
	}
	m.emitAudit(w.ctx, AuditExpired, m.JWT(), err)

	if err := w.handler(w.ctx); err != nil {
		m.metrics.Inc(MetricWatchdogHandlerFailure)
		m.logger.Warn("authsession: expiry handler failed", "key", m.key, "error", err)
	}
}
