package interceptors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestMetadata_RoundTrip(t *testing.T) {
	ctx := WithMetadata(context.Background(), Metadata{
		RequestID:      "req-1",
		IdempotencyKey: "idem-1",
		Authorization:  "Bearer abc",
	})

	md := FromContext(ctx)
	assert.Equal(t, "req-1", md.RequestID)

	h := http.Header{}
	md.Inject(h)
	assert.Equal(t, "req-1", h.Get("X-Request-Id"))
	assert.Equal(t, "idem-1", h.Get("X-Idempotency-Key"))
	assert.Equal(t, "Bearer abc", h.Get("Authorization"))
}

func TestMetadata_EmptyFieldsAreNotInjected(t *testing.T) {
	h := http.Header{}
	FromContext(context.Background()).Inject(h)
	assert.Empty(t, h)
}

func TestTraceServerInterceptor(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "rid-9"))

	var seen Metadata
	_, err := TraceServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req any) (any, error) {
			seen = FromContext(ctx)
			return nil, nil
		})

	require.NoError(t, err)
	assert.Equal(t, "rid-9", seen.RequestID)
	assert.Empty(t, seen.IdempotencyKey)
}
