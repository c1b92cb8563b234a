// cartservice/cartstore/codec.go

package cartstore

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	pb "github.com/hipstershop/cartservice/genproto/hipstershop"
)

// Codec converts between a Cart and the bytes stored under its key. The wire
// form is the proto binary encoding, which preserves item order exactly.
type Codec struct{}

// Encode serializes a well-formed cart. It does not validate; the store only
// ever encodes carts it built itself.
func (Codec) Encode(cart *pb.Cart) ([]byte, error) {
	data, err := proto.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %v", err)
	}
	return data, nil
}

// Decode parses stored bytes and checks the record invariants: an owner is
// present, every item names a product, quantities are positive and no product
// appears twice. Any violation is a corrupt record, never an empty cart.
func (Codec) Decode(data []byte) (*pb.Cart, error) {
	var cart pb.Cart
	if err := proto.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if cart.UserId == "" {
		return nil, fmt.Errorf("%w: record has no owner", ErrCorruptRecord)
	}

	seen := make(map[string]struct{}, len(cart.Items))
	for _, item := range cart.Items {
		if item.GetProductId() == "" {
			return nil, fmt.Errorf("%w: item without product id", ErrCorruptRecord)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %s has quantity %d", ErrCorruptRecord, item.ProductId, item.Quantity)
		}
		if _, dup := seen[item.ProductId]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for product %s", ErrCorruptRecord, item.ProductId)
		}
		seen[item.ProductId] = struct{}{}
	}
	return &cart, nil
}
