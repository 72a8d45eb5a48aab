package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitgroup/internal/metrics"
)

// ObserveInterceptor logs every RPC and records it in the Prometheus collectors.
// It logs the procedure name, user ID, duration, and any error codes/messages.
// It must run after the auth interceptor so the user ID is available.
type ObserveInterceptor struct {
	metrics *metrics.Metrics
}

var _ connect.Interceptor = (*ObserveInterceptor)(nil)

// Observe returns an ObserveInterceptor. m may be nil to disable metrics.
func Observe(m *metrics.Metrics) *ObserveInterceptor {
	return &ObserveInterceptor{metrics: m}
}

func (o *ObserveInterceptor) record(ctx context.Context, procedure string, start time.Time, err error) {
	userID := GetUserID(ctx) // empty if public procedure
	duration := time.Since(start)
	code := "ok"

	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			code = connectErr.Code().String()
			slog.Warn("RPC error",
				"procedure", procedure,
				"code", connectErr.Code(),
				"error", connectErr.Message(),
				"user_id", userID,
				"duration_ms", duration.Milliseconds(),
			)
		} else {
			code = connect.CodeUnknown.String()
			slog.Error("RPC error",
				"procedure", procedure,
				"error", err,
				"user_id", userID,
				"duration_ms", duration.Milliseconds(),
			)
		}
	} else {
		slog.Info("RPC ok",
			"procedure", procedure,
			"user_id", userID,
			"duration_ms", duration.Milliseconds(),
		)
	}

	if o.metrics != nil {
		o.metrics.RPCRequests.WithLabelValues(procedure, code).Inc()
		o.metrics.RPCDuration.WithLabelValues(procedure).Observe(duration.Seconds())
	}
}

// WrapUnary implements connect.Interceptor.
func (o *ObserveInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		start := time.Now()
		resp, err := next(ctx, req)
		o.record(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (o *ObserveInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (o *ObserveInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		slog.Info("Stream opened",
			"procedure", conn.Spec().Procedure,
			"user_id", GetUserID(ctx),
		)
		err := next(ctx, conn)
		o.record(ctx, conn.Spec().Procedure, start, err)
		return err
	}
}
