package authsession

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	sessionjwt "github.com/MrEthical07/authsession/jwt"
	"github.com/MrEthical07/authsession/store"
)

func TestListenersRunInRegistrationOrder(t *testing.T) {
	m, _ := newReadyManager(t, store.NewMemory(nil))
	ctx := context.Background()

	var order []string
	record := func(name string) Listener {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	m.OnSignJWT(record("a"))
	m.OnSignJWT(record("b"))
	m.OnSignout(record("out"))
	m.OnSignJWT(record("c"))

	if err := m.SignJWT(ctx, "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}

	order = nil
	if err := m.Signout(ctx); err != nil {
		t.Fatalf("Signout failed: %v", err)
	}
	if want := []string{"out"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
}

func TestListenerSeesPersistedState(t *testing.T) {
	s := store.NewMemory(nil)
	m, _ := newReadyManager(t, s)
	ctx := context.Background()
	token := signTestToken(t, sessionjwt.Claims{ID: "u-1"}, testEpoch.Add(time.Hour))

	m.OnSignJWT(func(ctx context.Context) error {
		if ok, _ := m.IsAuthenticated(); !ok {
			t.Errorf("listener ran before the session was authenticated")
		}
		if v, found, _ := s.Get(ctx, DefaultKey); !found || v != token {
			t.Errorf("listener ran before the token was persisted")
		}
		return nil
	})
	if err := m.SignJWT(ctx, token); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
}

func TestOffRemovesOneRegistration(t *testing.T) {
	m, _ := newReadyManager(t, store.NewMemory(nil))
	ctx := context.Background()

	var calls int
	fn := func(context.Context) error {
		calls++
		return nil
	}
	first := m.OnSignJWT(fn)
	m.OnSignJWT(fn)

	m.OffSignJWT(first)
	if err := m.SignJWT(ctx, "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected remaining registration to fire once, got %d", calls)
	}

	m.OffSignJWT(first)
	m.OffSignJWT(nil)
	calls = 0
	if err := m.SignJWT(ctx, "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("repeated Off must be a no-op, got %d calls", calls)
	}
}

func TestOffIgnoresHandleFromOtherEvent(t *testing.T) {
	m, _ := newReadyManager(t, store.NewMemory(nil))

	var calls int
	sub := m.OnSignJWT(func(context.Context) error {
		calls++
		return nil
	})
	m.OffSignout(sub)

	if err := m.SignJWT(context.Background(), "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("sign-in listener removed through sign-out list, calls=%d", calls)
	}

	m.OffSignJWT(sub)
	if err := m.SignJWT(context.Background(), "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the handle to still remove its own listener, calls=%d", calls)
	}
}

func TestListenerAddedDuringDispatchWaitsForNextEvent(t *testing.T) {
	m, _ := newReadyManager(t, store.NewMemory(nil))
	ctx := context.Background()

	var late int
	m.OnSignJWT(func(context.Context) error {
		m.OnSignJWT(func(context.Context) error {
			late++
			return nil
		})
		return nil
	})

	if err := m.SignJWT(ctx, "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if late != 0 {
		t.Fatalf("listener added mid-dispatch must not fire in that dispatch")
	}
	if err := m.SignJWT(ctx, "t"); err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}
	if late != 1 {
		t.Fatalf("expected late listener to fire on next event, got %d", late)
	}
}

func TestStorageFailureSkipsListeners(t *testing.T) {
	setErr := errors.New("quota exceeded")
	s := &faultStore{setErr: setErr}
	m, _ := newReadyManager(t, s)

	var calls int
	m.OnSignJWT(func(context.Context) error {
		calls++
		return nil
	})

	err := m.SignJWT(context.Background(), "t")
	if !errors.Is(err, ErrStorage) || !errors.Is(err, setErr) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("listeners ran after a storage failure")
	}
	if m.JWT() != "t" {
		t.Fatalf("in-memory token should be set before persisting")
	}

	s.deleteErr = errors.New("locked")
	m.OnSignout(func(context.Context) error {
		calls++
		return nil
	})
	if err := m.Signout(context.Background()); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage error from Signout, got %v", err)
	}
	if calls != 0 || m.HasToken() {
		t.Fatalf("expected cleared memory and no notification, calls=%d", calls)
	}
}

func TestListenerErrorStopsDispatch(t *testing.T) {
	m, _ := newReadyManager(t, store.NewMemory(nil), WithMetrics(MetricsConfig{Enabled: true}))
	boom := errors.New("boom")

	var after int
	m.OnSignout(func(context.Context) error { return boom })
	m.OnSignout(func(context.Context) error {
		after++
		return nil
	})

	err := m.Signout(context.Background())
	if !errors.Is(err, ErrListener) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped listener error, got %v", err)
	}
	if after != 0 {
		t.Fatalf("later listener ran after a failure")
	}
	if got := m.MetricsSnapshot().Counters[MetricListenerFailure]; got != 1 {
		t.Fatalf("expected 1 listener failure, got %d", got)
	}
}

func TestUnsubscribeOnHandle(t *testing.T) {
	m, _ := newReadyManager(t, store.NewMemory(nil))

	var calls int
	sub := m.OnSignout(func(context.Context) error {
		calls++
		return nil
	})
	sub.Unsubscribe()
	sub.Unsubscribe()

	if err := m.Signout(context.Background()); err != nil {
		t.Fatalf("Signout failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("unsubscribed listener fired")
	}

	var nilSub *Subscription
	nilSub.Unsubscribe()
}
