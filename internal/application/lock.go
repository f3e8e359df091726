package application

import "context"

// UpdateLock guards against two update runs overlapping on one installation.
type UpdateLock interface {
	// TryAcquire returns true if the lock was free and is now held.
	TryAcquire(ctx context.Context) (bool, error)
	// Refresh resets the lock TTL. It fails with ErrLockLost when the lock
	// expired and is no longer ours.
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

// NoopLock always succeeds; used when no lock backend is configured.
type NoopLock struct{}

func (NoopLock) TryAcquire(context.Context) (bool, error) { return true, nil }
func (NoopLock) Refresh(context.Context) error            { return nil }
func (NoopLock) Release(context.Context) error            { return nil }
