// Package authsession keeps the client side of a bearer-token session: one
// JWT held in memory, persisted through a pluggable [store.Store], with the
// authenticated state derived from it on every read.
//
// A [Manager] is created with [New], given its collaborators with
// [Manager.Setup], and becomes usable once [Manager.Ready] returns. Claims are
// never cached: [Manager.Info] decodes the held token on each call and yields
// nothing once the token's exp has passed.
//
// # Lifecycle events
//
// [Manager.SignJWT] and [Manager.Signout] update memory, then the store, then
// notify listeners registered with [Manager.OnSignJWT] / [Manager.OnSignout]
// strictly in registration order. A store or listener failure is returned to
// the caller and stops the remaining notifications.
//
// # Expiry watchdog
//
// [Manager.EnableCheckExp] runs a periodic check on the manager's
// [clock.Clock] and signs out (or calls a custom handler) when the held token
// stops yielding claims. Tests drive it with [clock.Fake].
//
// # What this package must NOT do
//
//   - Verify signatures itself. Trust is the decoder's contract; see package jwt.
//   - Refresh tokens or talk to an auth server.
//   - Log errors it returns to the caller.
package authsession
