// cartservice/kvstore/local_kvstore.go

package kvstore

import (
	"bytes"
	"context"
	"sync"
)

// LocalStore keeps values in process memory. It is used when no Redis address
// is configured and throughout the tests. Values are copied on the way in and
// out so callers cannot alias the stored bytes.
type LocalStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewLocalStore constructor.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		data: make(map[string][]byte),
	}
}

// Initialize does nothing for the in-memory store.
func (l *LocalStore) Initialize(ctx context.Context) error {
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	val, ok := l.data[key]
	if !ok {
		return nil, ErrKeyAbsent
	}
	return append([]byte(nil), val...), nil
}

func (l *LocalStore) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.data[key] = append([]byte(nil), value...)
	return nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.data, key)
	return nil
}

// CompareAndSet overwrites the key only while it still holds the expected
// bytes; a nil expected value requires the key to be absent.
func (l *LocalStore) CompareAndSet(ctx context.Context, key string, expected, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.data[key]
	if expected == nil {
		if ok {
			return ErrCASMismatch
		}
	} else if !ok || !bytes.Equal(cur, expected) {
		return ErrCASMismatch
	}

	l.data[key] = append([]byte(nil), value...)
	return nil
}

// Ping always succeeds for the in-memory store.
func (l *LocalStore) Ping(ctx context.Context) bool {
	return true
}
