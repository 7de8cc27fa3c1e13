package authsession

import "errors"

var (
	// ErrNotConfigured is returned by operations invoked before Setup.
	ErrNotConfigured = errors.New("session manager not configured")
	// ErrAlreadyConfigured is returned by a second Setup call.
	ErrAlreadyConfigured = errors.New("session manager already configured")
	// ErrNilStore is returned by Setup when Config.Storage is nil.
	ErrNilStore = errors.New("token store is required")
	// ErrNilDecoder is returned by Setup when Config.Decoder is nil.
	ErrNilDecoder = errors.New("claims decoder is required")
	// ErrStorage wraps Token Store failures from Ready, SignJWT and Signout.
	ErrStorage = errors.New("token store operation failed")
	// ErrListener wraps the error of the listener that stopped an event dispatch.
	ErrListener = errors.New("session listener failed")
	// ErrInvalidClaims is returned when the decoder yields no claims and no error.
	ErrInvalidClaims = errors.New("decoder returned no claims")
	// ErrInvalidInterval is returned by EnableCheckExp for a non-positive interval.
	ErrInvalidInterval = errors.New("watchdog interval must be positive")
)
