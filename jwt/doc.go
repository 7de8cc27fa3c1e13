// Package jwt provides the claims model consumed by the session manager and
// claims decoders built on github.com/golang-jwt/jwt/v5.
//
// # Decoders
//
// [Decode] reads the payload without verifying the signature, the same way a
// browser-side client inspects a token it was handed by its login flow.
// [Manager.Decoder] verifies the signature, issuer and audience but leaves
// expiry alone: the session manager evaluates expiry itself on every read.
//
// # What this package must NOT do
//
//   - Import the root authsession package (no upward imports).
//   - Cache decoded claims.
package jwt
