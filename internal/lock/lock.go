// Package lock serialises work per key. The reservation service takes one
// lock per venue id around every check-then-act sequence on that venue.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a lock could not be acquired before the
// caller's deadline or the locker's wait bound.
var ErrTimeout = errors.New("lock: timed out waiting for lock")

// Locker acquires an exclusive lock on key. The returned unlock function
// releases it and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
