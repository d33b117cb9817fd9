package interceptors

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors/constants"
)

// TraceServerInterceptor lifts request metadata from incoming gRPC metadata
// into the handler context and logs the call.
func TraceServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		var md Metadata
		if in, ok := metadata.FromIncomingContext(ctx); ok {
			md.RequestID = first(in.Get(constants.HeaderXRequestId))
			md.IdempotencyKey = first(in.Get(constants.HeaderXIdempotencyKey))
		}
		ctx = WithMetadata(ctx, md)

		slog.DebugContext(ctx, "grpc call", "method", info.FullMethod, "request_id", md.RequestID)

		return handler(ctx, req)
	}
}

func first(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
