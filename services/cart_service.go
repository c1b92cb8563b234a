// cartservice/services/cart_service.go

package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hipstershop/cartservice/cartstore"
	pb "github.com/hipstershop/cartservice/genproto/hipstershop"
)

// CartServiceServer implements the generated CartServiceServer interface.
type CartServiceServer struct {
	store  cartstore.ICartStore
	tracer trace.Tracer
	pb.UnimplementedCartServiceServer
}

// NewCartServiceServer creates a server instance with a store and tracer injected.
func NewCartServiceServer(store cartstore.ICartStore) *CartServiceServer {
	return &CartServiceServer{
		store:  store,
		tracer: otel.Tracer("cartservice"),
	}
}

// AddItem RPC implementation.
func (s *CartServiceServer) AddItem(ctx context.Context, req *pb.AddItemRequest) (*pb.Empty, error) {
	ctx, span := s.tracer.Start(ctx, "AddItem")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.user_id", req.GetUserId()),
		attribute.String("app.product_id", req.GetItem().GetProductId()),
		attribute.Int64("app.quantity", int64(req.GetItem().GetQuantity())),
	)

	if req.GetItem() == nil {
		return nil, status.Error(codes.InvalidArgument, "AddItem: item is required")
	}
	if err := s.store.AddItem(ctx, req.GetUserId(), req.GetItem().GetProductId(), req.GetItem().GetQuantity()); err != nil {
		return nil, rpcError("AddItem", err)
	}
	return &pb.Empty{}, nil
}

// GetCart RPC implementation.
func (s *CartServiceServer) GetCart(ctx context.Context, req *pb.GetCartRequest) (*pb.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "GetCart")
	defer span.End()
	span.SetAttributes(attribute.String("app.user_id", req.GetUserId()))

	cart, err := s.store.GetCart(ctx, req.GetUserId())
	if err != nil {
		return nil, rpcError("GetCart", err)
	}
	return cart, nil
}

// EmptyCart RPC implementation.
func (s *CartServiceServer) EmptyCart(ctx context.Context, req *pb.EmptyCartRequest) (*pb.Empty, error) {
	ctx, span := s.tracer.Start(ctx, "EmptyCart")
	defer span.End()
	span.SetAttributes(attribute.String("app.user_id", req.GetUserId()))

	if err := s.store.EmptyCart(ctx, req.GetUserId()); err != nil {
		return nil, rpcError("EmptyCart", err)
	}
	return &pb.Empty{}, nil
}

// rpcError translates store errors into transport status codes without
// changing their kind.
func rpcError(op string, err error) error {
	switch {
	case errors.Is(err, cartstore.ErrInvalidArgument):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, cartstore.ErrCorruptRecord):
		return status.Errorf(codes.DataLoss, "%s: %v", op, err)
	case errors.Is(err, cartstore.ErrBackendUnavailable):
		return status.Errorf(codes.Unavailable, "%s: %v", op, err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: %v", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: %v", op, err)
	default:
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}
