package lock

import (
	"context"
	"strings"
	"sync"
)

// MemoryLocker is an in-process keyed mutex. Keys without holders or
// waiters are dropped.
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{keys: make(map[string]*keyLock)}
}

// Acquire blocks until key is free or ctx is done. The key is copied before
// it is tracked.
func (m *MemoryLocker) Acquire(ctx context.Context, key string) (Release, error) {
	key = strings.Clone(key)
	m.mu.Lock()
	kl, ok := m.keys[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		m.keys[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		m.drop(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-kl.sem
			m.drop(key, kl)
		})
		return nil
	}, nil
}

func (m *MemoryLocker) drop(key string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(m.keys, key)
	}
}

// held returns the number of keys currently tracked.
func (m *MemoryLocker) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
