// Package ctxutil provides context helpers shared by the transport and
// stabilizer layers: timeout construction, trace-ID propagation, hop
// counting, and context-error-to-gRPC-status translation.
package ctxutil

import (
	"context"
	"errors"
	"time"

	"chordring/internal/ringid"
	"chordring/internal/trace"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type traceKey struct{}
type hopsKey struct{}

// ContextOption configures NewContext. Multiple options compose.
type ContextOption func(*ctxConfig)

type ctxConfig struct {
	withTrace bool
	withHops  bool
	nodeID    ringid.ID
	timeout   time.Duration
}

// WithTrace attaches a fresh trace ID derived from nodeID.
func WithTrace(nodeID ringid.ID) ContextOption {
	return func(cfg *ctxConfig) {
		cfg.withTrace = true
		cfg.nodeID = nodeID
	}
}

// WithTimeout applies a timeout to the created context. The caller
// must defer the returned cancel function.
func WithTimeout(d time.Duration) ContextOption {
	return func(cfg *ctxConfig) {
		cfg.timeout = d
	}
}

// WithHops initializes the hop counter at 0.
func WithHops() ContextOption {
	return func(cfg *ctxConfig) {
		cfg.withHops = true
	}
}

// NewContext builds a context.Context configured according to opts.
func NewContext(opts ...ContextOption) (context.Context, context.CancelFunc) {
	cfg := &ctxConfig{}
	for _, o := range opts {
		o(cfg)
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if cfg.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), cfg.timeout)
	} else {
		ctx = context.Background()
	}
	if cfg.withTrace {
		ctx, _ = trace.AttachTraceID(ctx, cfg.nodeID)
	}
	if cfg.withHops {
		ctx = context.WithValue(ctx, hopsKey{}, 0)
	}

	return ctx, cancel
}

// TraceIDFromContext extracts the trace ID, or "" if absent.
func TraceIDFromContext(ctx context.Context) string {
	return trace.GetTraceID(ctx)
}

// EnsureTraceID attaches a trace ID derived from nodeID if ctx does
// not already carry one.
func EnsureTraceID(ctx context.Context, nodeID ringid.ID) context.Context {
	if id := trace.GetTraceID(ctx); id == "" {
		ctx, _ = trace.AttachTraceID(ctx, nodeID)
	}
	return ctx
}

// HopsFromContext returns the hop counter, or -1 if not set.
func HopsFromContext(ctx context.Context) int {
	if hops, ok := ctx.Value(hopsKey{}).(int); ok {
		return hops
	}
	return -1
}

// IncHops increments the hop counter if present; a counter of -1
// ("don't count") is left unchanged.
func IncHops(ctx context.Context) context.Context {
	if hops, ok := ctx.Value(hopsKey{}).(int); ok {
		if hops == -1 {
			return ctx
		}
		return context.WithValue(ctx, hopsKey{}, hops+1)
	}
	return ctx
}

// CheckContext maps a canceled or expired context to the matching
// gRPC status error, or nil if the context is still live. RPC handlers
// call this before doing any work.
func CheckContext(ctx context.Context) error {
	switch err := ctx.Err(); {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled by client")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request deadline exceeded")
	default:
		return nil
	}
}
