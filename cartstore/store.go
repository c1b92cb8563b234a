// cartservice/cartstore/store.go

package cartstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	pb "github.com/hipstershop/cartservice/genproto/hipstershop"
	"github.com/hipstershop/cartservice/kvstore"
)

const keyPrefix = "cart:"

// Conflicting writers re-read and re-merge, so each retry is safe; the bound
// covers the worst case of every other contender committing in between.
const (
	casMaxAttempts = 10
	casBackoffBase = 10 * time.Millisecond
)

// CartStore maps each owner to one backend key and carries the
// read-merge-write protocol for cart updates.
//
// AddItem reads the current record and writes the merged result back as two
// separate backend operations. When the backend only offers unconditional
// writes, two concurrent AddItem calls for the same owner can both read the
// same prior state and the second write overwrites the first, losing its
// increment. That window matches the backend's single-key guarantee and is
// not papered over with an in-process lock, which would stop working the
// moment a second replica runs. Backends that implement
// kvstore.ConditionalStore close the window: the write lands only if the key
// still holds the exact bytes that were read. Carts of different owners never
// share state, so operations for different owners proceed fully in parallel.
type CartStore struct {
	kv    kvstore.KeyValueStore
	ckv   kvstore.ConditionalStore // nil when the backend is unconditional
	codec Codec
	log   logrus.FieldLogger
}

// New builds a store over the given backend, detecting the optional
// compare-and-set capability once.
func New(kv kvstore.KeyValueStore, log logrus.FieldLogger) *CartStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &CartStore{kv: kv, log: log}
	if ckv, ok := kv.(kvstore.ConditionalStore); ok {
		s.ckv = ckv
	}
	return s
}

func ownerKey(userID string) string {
	return keyPrefix + userID
}

// Initialize prepares the underlying backend.
func (s *CartStore) Initialize(ctx context.Context) error {
	return s.kv.Initialize(ctx)
}

// AddItem merges a product line into the owner's cart: an existing line has
// its quantity incremented, a new product is appended after all current
// items.
func (s *CartStore) AddItem(ctx context.Context, userID, productID string, quantity int32) error {
	if userID == "" {
		return fmt.Errorf("%w: owner must not be empty", ErrInvalidArgument)
	}
	if productID == "" {
		return fmt.Errorf("%w: product id must not be empty", ErrInvalidArgument)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, quantity)
	}
	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}).Debug("CartStore: AddItem")

	key := ownerKey(userID)
	for attempt := 1; ; attempt++ {
		prior, err := s.kv.Get(ctx, key)
		if errors.Is(err, kvstore.ErrKeyAbsent) {
			prior = nil
		} else if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}

		cart := &pb.Cart{UserId: userID}
		if prior != nil {
			// Never discard an existing cart because it is unreadable.
			if cart, err = s.codec.Decode(prior); err != nil {
				return err
			}
		}
		mergeItem(cart, productID, quantity)

		data, err := s.codec.Encode(cart)
		if err != nil {
			return err
		}

		if s.ckv == nil {
			// Base design: unconditional overwrite, documented lost-update
			// window for same-owner writers.
			if err := s.kv.Set(ctx, key, data); err != nil {
				return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}
			return nil
		}

		err = s.ckv.CompareAndSet(ctx, key, prior, data)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kvstore.ErrCASMismatch) {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		if attempt >= casMaxAttempts {
			return fmt.Errorf("%w: gave up after %d conflicting writes for owner %s", ErrBackendUnavailable, attempt, userID)
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}
}

// GetCart returns the owner's cart, synthesizing an empty one when no record
// exists. The synthesized cart is not written back.
func (s *CartStore) GetCart(ctx context.Context, userID string) (*pb.Cart, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: owner must not be empty", ErrInvalidArgument)
	}
	s.log.WithField("user_id", userID).Debug("CartStore: GetCart")

	data, err := s.kv.Get(ctx, ownerKey(userID))
	if errors.Is(err, kvstore.ErrKeyAbsent) {
		return &pb.Cart{UserId: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return s.codec.Decode(data)
}

// EmptyCart removes the owner's record entirely. Deleting an absent key
// succeeds, so the call is idempotent.
func (s *CartStore) EmptyCart(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: owner must not be empty", ErrInvalidArgument)
	}
	s.log.WithField("user_id", userID).Debug("CartStore: EmptyCart")

	if err := s.kv.Delete(ctx, ownerKey(userID)); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Ping reports backend liveness.
func (s *CartStore) Ping(ctx context.Context) bool {
	return s.kv.Ping(ctx)
}

func mergeItem(cart *pb.Cart, productID string, quantity int32) {
	for _, item := range cart.Items {
		if item.ProductId == productID {
			item.Quantity += quantity
			return
		}
	}
	cart.Items = append(cart.Items, &pb.CartItem{
		ProductId: productID,
		Quantity:  quantity,
	})
}

func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := casBackoffBase << uint(attempt-1)
	backoff += time.Duration(rand.Int63n(int64(backoff)/2 + 1))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}
