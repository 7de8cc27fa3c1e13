package store

import "context"

// Store is an asynchronous key/value persistence service.
//
// Get reports ok=false when nothing is stored under key. Delete of a missing
// key is not an error. Clear removes every key the store owns.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
