// Package lock serializes writers per ticket id. Readers never lock.
package lock

import "context"

// Release gives up a held lock. Calling it more than once is a no-op.
type Release func(ctx context.Context) error

// Locker grants exclusive access to a key until the returned Release is
// called or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
