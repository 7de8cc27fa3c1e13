package authsession

import (
	"context"
	"fmt"
	"sync"
)

// Listener is notified after a sign-in or sign-out has been persisted.
// A returned error stops the dispatch and is reported to the caller of
// SignJWT or Signout.
type Listener func(ctx context.Context) error

// Subscription is the handle for one listener registration. Registering the
// same function twice yields two handles; each fires and unsubscribes
// independently.
type Subscription struct {
	fn       Listener
	registry *listenerRegistry
}

// Unsubscribe removes this registration. Later calls are no-ops.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.remove(s)
}

// listenerRegistry is an ordered list of registrations; insertion order is
// dispatch order.
type listenerRegistry struct {
	name    string
	mu      sync.Mutex
	entries []*Subscription
}

func (r *listenerRegistry) add(fn Listener) *Subscription {
	sub := &Subscription{fn: fn, registry: r}
	r.mu.Lock()
	r.entries = append(r.entries, sub)
	r.mu.Unlock()
	return sub
}

// remove drops the first entry matching sub.
func (r *listenerRegistry) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e == sub {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// dispatch calls every listener registered when dispatch starts, one after
// another, each finishing before the next begins.
func (r *listenerRegistry) dispatch(ctx context.Context) error {
	r.mu.Lock()
	snapshot := make([]*Subscription, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	for i, sub := range snapshot {
		if sub.fn == nil {
			continue
		}
		if err := sub.fn(ctx); err != nil {
			return fmt.Errorf("%w: %s listener %d: %w", ErrListener, r.name, i, err)
		}
	}
	return nil
}

// OnSignJWT registers fn to run after every successful SignJWT persist.
func (m *Manager) OnSignJWT(fn Listener) *Subscription {
	return m.signJWTListeners.add(fn)
}

// OnSignout registers fn to run after every successful Signout persist.
func (m *Manager) OnSignout(fn Listener) *Subscription {
	return m.signoutListeners.add(fn)
}

// OffSignJWT removes the sign-in registration sub. Handles that are nil,
// already removed, or belong to the sign-out list are ignored.
func (m *Manager) OffSignJWT(sub *Subscription) {
	if sub == nil || sub.registry != &m.signJWTListeners {
		return
	}
	sub.Unsubscribe()
}

// OffSignout removes the sign-out registration sub. Handles that are nil,
// already removed, or belong to the sign-in list are ignored.
func (m *Manager) OffSignout(sub *Subscription) {
	if sub == nil || sub.registry != &m.signoutListeners {
		return
	}
	sub.Unsubscribe()
}
