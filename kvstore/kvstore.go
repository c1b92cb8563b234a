// cartservice/kvstore/kvstore.go

package kvstore

import (
	"context"
	"errors"
)

var (
	// ErrKeyAbsent is returned by Get when the key holds no value.
	ErrKeyAbsent = errors.New("key absent")

	// ErrCASMismatch is returned by CompareAndSet when the stored value no
	// longer matches the expected prior value.
	ErrCASMismatch = errors.New("compare-and-set mismatch")
)

// KeyValueStore is the contract the cart core requires from its backing
// store: per-key get/set/delete with no atomicity across keys.
type KeyValueStore interface {
	Initialize(ctx context.Context) error

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) bool
}

// ConditionalStore is an optional capability: a conditional write that only
// succeeds when the key still holds the expected bytes. A nil expected value
// demands that the key be absent, making the write a create. Both outcomes of
// a race are reported as ErrCASMismatch so callers can re-read and retry.
type ConditionalStore interface {
	KeyValueStore

	CompareAndSet(ctx context.Context, key string, expected, value []byte) error
}
