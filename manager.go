package authsession

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/authsession/clock"
	"github.com/MrEthical07/authsession/jwt"
	"github.com/MrEthical07/authsession/store"
	"github.com/google/uuid"
)

// Manager holds one bearer token and derives the authenticated state from it
// on every read.
//
// Field access is guarded, but SignJWT and Signout are not serialized
// against each other: when they overlap, whichever finishes last decides
// the in-memory and persisted state. Hosts that may call them concurrently
// must coordinate externally.
type Manager struct {
	key     string
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
	audit   *auditDispatcher

	mu       sync.RWMutex
	storage  store.Store
	decoder  Decoder
	token    string
	hasToken bool
	// writes counts SignJWT/Signout calls so a slow restore never clobbers
	// a token set after Setup.
	writes   uint64
	ready    chan struct{}
	readyErr error
	watchdog *Watchdog
	retired  []*Watchdog

	signJWTListeners listenerRegistry
	signoutListeners listenerRegistry
}

// New returns an unconfigured Manager with an empty session.
func New(opts ...Option) *Manager {
	m := &Manager{
		key:     DefaultKey,
		clock:   clock.Real(),
		logger:  slog.New(slog.DiscardHandler),
		metrics: NewMetrics(MetricsConfig{}),
	}
	m.signJWTListeners.name = "sign-in"
	m.signoutListeners.name = "sign-out"
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Key returns the Token Store key the token is persisted under.
func (m *Manager) Key() string {
	return m.key
}

// Setup installs the collaborators and starts restoring the persisted token
// in the background. Await Ready before relying on any other operation.
//
// The restored token is taken as is: expiry is only ever evaluated on read.
func (m *Manager) Setup(ctx context.Context, cfg Config) error {
	if cfg.Storage == nil {
		return ErrNilStore
	}
	if cfg.Decoder == nil {
		return ErrNilDecoder
	}

	m.mu.Lock()
	if m.ready != nil {
		m.mu.Unlock()
		return ErrAlreadyConfigured
	}
	m.storage = cfg.Storage
	m.decoder = cfg.Decoder
	m.ready = make(chan struct{})
	writes := m.writes
	m.mu.Unlock()

	go m.restore(ctx, cfg.Storage, writes)
	return nil
}

func (m *Manager) restore(ctx context.Context, storage store.Store, writesAtSetup uint64) {
	start := time.Now()
	value, ok, err := storage.Get(ctx, m.key)
	m.metrics.Observe(MetricStoreLatency, time.Since(start))

	var restoreErr error
	if err != nil {
		restoreErr = fmt.Errorf("%w: restore: %w", ErrStorage, err)
		m.metrics.Inc(MetricRestoreFailure)
	} else {
		m.metrics.Inc(MetricRestoreSuccess)
	}
	m.emitAudit(ctx, AuditRestore, value, restoreErr)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyErr = restoreErr
	if restoreErr == nil && ok && value != "" && value != absentMarker && m.writes == writesAtSetup {
		m.token = value
		m.hasToken = true
	}
	close(m.ready)
}

// Ready blocks until the restore started by Setup completes and returns its
// error. Every caller observes the same outcome.
func (m *Manager) Ready(ctx context.Context) error {
	m.mu.RLock()
	ready := m.ready
	m.mu.RUnlock()
	if ready == nil {
		return ErrNotConfigured
	}

	select {
	case <-ready:
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) configured() (store.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil, ErrNotConfigured
	}
	return m.storage, nil
}

// SignJWT holds token, persists it, then runs the sign-in listeners in
// registration order. No format check is made: an invalid token is accepted
// and simply reads as unauthenticated.
//
// A store failure is returned and no listener runs. The in-memory token is
// already set at that point.
func (m *Manager) SignJWT(ctx context.Context, token string) error {
	storage, err := m.configured()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	m.hasToken = true
	m.writes++
	m.mu.Unlock()

	start := time.Now()
	err = storage.Set(ctx, m.key, token)
	m.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		err = fmt.Errorf("%w: set %q: %w", ErrStorage, m.key, err)
		m.metrics.Inc(MetricSignInFailure)
		m.emitAudit(ctx, AuditSignIn, token, err)
		return err
	}

	if err := m.signJWTListeners.dispatch(ctx); err != nil {
		m.metrics.Inc(MetricListenerFailure)
		m.metrics.Inc(MetricSignInFailure)
		m.emitAudit(ctx, AuditSignIn, token, err)
		return err
	}

	m.metrics.Inc(MetricSignInSuccess)
	m.emitAudit(ctx, AuditSignIn, token, nil)
	return nil
}

// Signout drops the token, deletes it from the store, then runs the sign-out
// listeners in registration order. Signing out twice is harmless.
func (m *Manager) Signout(ctx context.Context) error {
	storage, err := m.configured()
	if err != nil {
		return err
	}

	m.mu.Lock()
	previous := m.token
	m.token = ""
	m.hasToken = false
	m.writes++
	m.mu.Unlock()

	start := time.Now()
	err = storage.Delete(ctx, m.key)
	m.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		err = fmt.Errorf("%w: delete %q: %w", ErrStorage, m.key, err)
		m.metrics.Inc(MetricSignoutFailure)
		m.emitAudit(ctx, AuditSignout, previous, err)
		return err
	}

	if err := m.signoutListeners.dispatch(ctx); err != nil {
		m.metrics.Inc(MetricListenerFailure)
		m.metrics.Inc(MetricSignoutFailure)
		m.emitAudit(ctx, AuditSignout, previous, err)
		return err
	}

	m.metrics.Inc(MetricSignoutSuccess)
	m.emitAudit(ctx, AuditSignout, previous, nil)
	return nil
}

// JWT returns the raw token held in memory, or "" when there is none.
func (m *Manager) JWT() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// HasToken reports whether a non-empty token is held, valid or not.
func (m *Manager) HasToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasToken && m.token != ""
}

// Info decodes the held token and returns its claims while they are valid:
// the current time in milliseconds must be below exp*1000. It returns nil
// when no token is held, when the token has expired, or when it carries no
// exp. Nothing is cached; every call decodes again.
//
// Decoder errors are returned unchanged.
func (m *Manager) Info() (*jwt.Claims, error) {
	m.mu.RLock()
	token, has, decoder := m.token, m.hasToken, m.decoder
	m.mu.RUnlock()
	if !has || token == "" {
		return nil, nil
	}
	if decoder == nil {
		return nil, ErrNotConfigured
	}

	claims, err := decoder(token)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, ErrInvalidClaims
	}

	exp, ok := claims.ExpiresAtMillis()
	if !ok || m.clock.Now().UnixMilli() >= exp {
		return nil, nil
	}
	return claims, nil
}

// IsAuthenticated reports whether Info currently yields claims.
func (m *Manager) IsAuthenticated() (bool, error) {
	info, err := m.Info()
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// HasRoles reports whether the session is authenticated and every name
// appears in the claims' roles.
func (m *Manager) HasRoles(names ...string) (bool, error) {
	info, err := m.Info()
	if err != nil || info == nil {
		return false, err
	}
	for _, name := range names {
		if !slices.Contains(info.Roles, name) {
			return false, nil
		}
	}
	return true, nil
}

// MetricsSnapshot returns the manager's counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// Close stops the watchdog and flushes pending audit events. The session
// itself is left as is.
func (m *Manager) Close() {
	m.DisableCheckExp()
	m.audit.Close()
}

func (m *Manager) emitAudit(ctx context.Context, eventType, token string, err error) {
	if m.audit == nil {
		return
	}
	m.audit.enqueue(ctx, auditRecord{eventType: eventType, token: token, err: err, at: m.clock.Now()})
}

// auditEvent runs on the audit worker.
func (m *Manager) auditEvent(rec auditRecord) AuditEvent {
	event := baseAuditEvent(rec)
	event.ID = uuid.NewString()
	event.UserID = m.subject(rec.token)
	event.Metadata = map[string]string{"key": m.key}
	return event
}

// subject extracts the identity for audit records, ignoring decode errors.
func (m *Manager) subject(token string) string {
	m.mu.RLock()
	decoder := m.decoder
	m.mu.RUnlock()
	if token == "" || token == absentMarker || decoder == nil {
		return ""
	}
	claims, err := decoder(token)
	if err != nil || claims == nil {
		return ""
	}
	if claims.ID != "" {
		return claims.ID
	}
	return claims.Subject
}
