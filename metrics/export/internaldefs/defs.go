package internaldefs

import (
	"github.com/MrEthical07/authsession"
)

// CounterDef names one session counter for exporters.
type CounterDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// HistogramDef names one session histogram for exporters.
type HistogramDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: authsession.MetricSignInSuccess, Name: "authsession_sign_in_success_total", Help: "SignJWT calls that persisted and notified listeners."},
	{ID: authsession.MetricSignInFailure, Name: "authsession_sign_in_failure_total", Help: "SignJWT calls that returned an error."},
	{ID: authsession.MetricSignoutSuccess, Name: "authsession_sign_out_success_total", Help: "Signout calls that persisted and notified listeners."},
	{ID: authsession.MetricSignoutFailure, Name: "authsession_sign_out_failure_total", Help: "Signout calls that returned an error."},
	{ID: authsession.MetricRestoreSuccess, Name: "authsession_restore_success_total", Help: "Completed token restores."},
	{ID: authsession.MetricRestoreFailure, Name: "authsession_restore_failure_total", Help: "Token restores that failed to read the store."},
	{ID: authsession.MetricListenerFailure, Name: "authsession_listener_failure_total", Help: "Listener errors that stopped a dispatch."},
	{ID: authsession.MetricWatchdogTick, Name: "authsession_watchdog_tick_total", Help: "Expiry watchdog checks."},
	{ID: authsession.MetricWatchdogExpired, Name: "authsession_watchdog_expired_total", Help: "Watchdog checks that found an expired or undecodable token."},
	{ID: authsession.MetricWatchdogHandlerFailure, Name: "authsession_watchdog_handler_failure_total", Help: "Expiry handler calls that returned an error."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authsession.MetricStoreLatency, Name: "authsession_store_latency_seconds", Help: "Token store round-trip latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the eight buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds in a form usable in
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with
// zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
