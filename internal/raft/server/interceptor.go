package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"raftcore/internal"
)

// requestIDKey is a type-safe context key (internal.CtxKey) carrying a
// per-RPC correlation id through every handler, adapted from the
// teacher's internal/utils.go generic context-key helper.
var requestIDKey = internal.NewCtxKey[string]("request_id")

// RequestID extracts the correlation id stamped on ctx by the logging
// interceptor, or "" if none is present (e.g. in tests that call a
// handler directly).
func RequestID(ctx context.Context) string {
	id, _ := internal.GetCtxKey(ctx, requestIDKey)
	return id
}

// loggingInterceptor stamps every inbound RPC with a correlation id and
// logs its method and duration at debug level.
func (s *Server) loggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := uuid.New().String()
		ctx = internal.SetCtxKey(ctx, requestIDKey, id)
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := s.logger.WithFields(logrus.Fields{
			"method":      info.FullMethod,
			"request_id":  id,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Debug("rpc failed")
		} else {
			entry.Debug("rpc handled")
		}
		return resp, err
	}
}
