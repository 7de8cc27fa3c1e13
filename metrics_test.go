package authsession

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSignInSuccess)

	if got := m.Value(MetricSignInSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricSignInSuccess)
	m.Observe(MetricStoreLatency, time.Millisecond)
	if m.Enabled() || m.Value(MetricSignInSuccess) != 0 {
		t.Fatal("nil metrics must read as disabled")
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSignInSuccess)
	m.Inc(MetricSignInSuccess)
	m.Inc(MetricSignInSuccess)

	if got := m.Value(MetricSignInSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricWatchdogTick)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricWatchdogTick); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricStoreLatency, d)
	}
	m.Observe(MetricSignInSuccess, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricStoreLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if len(snap.Histograms) != 1 {
		t.Fatalf("only store latency has a histogram, got %d", len(snap.Histograms))
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSignoutSuccess)
	m.Inc(MetricSignoutFailure)
	m.Inc(MetricSignoutFailure)
	m.Observe(MetricStoreLatency, 2*time.Millisecond)

	snap := m.Snapshot()
	if snap.Counters[MetricSignoutSuccess] != 1 {
		t.Fatalf("expected MetricSignoutSuccess=1 got %d", snap.Counters[MetricSignoutSuccess])
	}
	if snap.Counters[MetricSignoutFailure] != 2 {
		t.Fatalf("expected MetricSignoutFailure=2 got %d", snap.Counters[MetricSignoutFailure])
	}
	if _, ok := snap.Counters[MetricStoreLatency]; ok {
		t.Fatal("histogram id must not appear among counters")
	}
	if _, ok := snap.Histograms[MetricStoreLatency]; ok {
		t.Fatal("expected no histogram without EnableLatencyHistograms")
	}
}
