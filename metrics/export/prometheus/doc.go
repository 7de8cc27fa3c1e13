// Package prometheus renders session manager metrics in Prometheus text
// exposition format.
//
// [NewExporter] reads from an [authsession.Manager] and exposes an
// [http.Handler]. Counter names are prefixed authsession_*_total; the single
// histogram is authsession_store_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate manager state.
package prometheus
