// cartservice/services/cart_service_test.go

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/hipstershop/cartservice/cartstore"
	pb "github.com/hipstershop/cartservice/genproto/hipstershop"
	"github.com/hipstershop/cartservice/kvstore"
	"github.com/hipstershop/cartservice/services"
)

func newServer(t *testing.T) *services.CartServiceServer {
	t.Helper()
	return services.NewCartServiceServer(cartstore.New(kvstore.NewLocalStore(), nil))
}

func TestAddItemThenGetCartRPC(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	_, err := srv.AddItem(ctx, &pb.AddItemRequest{
		UserId: "alice",
		Item:   &pb.CartItem{ProductId: "OLJCESPC7Z", Quantity: 2},
	})
	require.NoError(t, err)

	cart, err := srv.GetCart(ctx, &pb.GetCartRequest{UserId: "alice"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "OLJCESPC7Z", cart.Items[0].ProductId)
	assert.Equal(t, int32(2), cart.Items[0].Quantity)
}

func TestGetCartUnknownUserRPC(t *testing.T) {
	srv := newServer(t)

	cart, err := srv.GetCart(context.Background(), &pb.GetCartRequest{UserId: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "ghost", cart.UserId)
	assert.Empty(t, cart.Items)
}

func TestEmptyCartRPC(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	_, err := srv.AddItem(ctx, &pb.AddItemRequest{
		UserId: "alice",
		Item:   &pb.CartItem{ProductId: "a", Quantity: 1},
	})
	require.NoError(t, err)

	_, err = srv.EmptyCart(ctx, &pb.EmptyCartRequest{UserId: "alice"})
	require.NoError(t, err)

	cart, err := srv.GetCart(ctx, &pb.GetCartRequest{UserId: "alice"})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Emptying again is fine.
	_, err = srv.EmptyCart(ctx, &pb.EmptyCartRequest{UserId: "alice"})
	require.NoError(t, err)
}

func TestRPCStatusCodes(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{
			name: "missing item",
			call: func() error {
				_, err := srv.AddItem(ctx, &pb.AddItemRequest{UserId: "alice"})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "empty user",
			call: func() error {
				_, err := srv.AddItem(ctx, &pb.AddItemRequest{
					Item: &pb.CartItem{ProductId: "a", Quantity: 1},
				})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "non-positive quantity",
			call: func() error {
				_, err := srv.AddItem(ctx, &pb.AddItemRequest{
					UserId: "alice",
					Item:   &pb.CartItem{ProductId: "a", Quantity: 0},
				})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "empty user on get",
			call: func() error {
				_, err := srv.GetCart(ctx, &pb.GetCartRequest{})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "empty user on empty",
			call: func() error {
				_, err := srv.EmptyCart(ctx, &pb.EmptyCartRequest{})
				return err
			},
			want: codes.InvalidArgument,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.Equal(t, tc.want, status.Code(err))
		})
	}
}

func TestCorruptRecordMapsToDataLoss(t *testing.T) {
	kv := kvstore.NewLocalStore()
	srv := services.NewCartServiceServer(cartstore.New(kv, nil))
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "cart:alice", []byte{0xff, 0xfe}))

	_, err := srv.GetCart(ctx, &pb.GetCartRequest{UserId: "alice"})
	require.Error(t, err)
	assert.Equal(t, codes.DataLoss, status.Code(err))
}

func TestHealthCheck(t *testing.T) {
	store := cartstore.New(kvstore.NewLocalStore(), nil)
	health := services.NewHealthCheckService(store)

	resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
