package core

import (
	"context"
	"sync"
)

// CommitLock serializes the read-existing, dedup and insert section of
// imports that target the same catalog key. Lock blocks until the key is
// free or ctx is done, and returns a function that releases it.
type CommitLock interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLock is an in-process CommitLock keyed by string.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]chan struct{})}
}

func (l *LocalLock) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			released = make(chan struct{})
			l.held[key] = released
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(released)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
