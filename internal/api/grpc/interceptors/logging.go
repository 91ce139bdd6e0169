// Package interceptors provides gRPC server middleware for the control API.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Logf is the logging function used by interceptors.
type Logf func(format string, args ...any)

// CommandLog logs every control RPC with its status code and duration.
// Commands are rare and mutate process memory, so each one is worth a
// log line.
func CommandLog(logf Logf) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		logf("%s: %s in %s", info.FullMethod, status.Code(err), time.Since(started).Round(time.Microsecond))
		return resp, err
	}
}
