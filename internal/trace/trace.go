// Package trace attaches a per-lookup trace identifier to a context,
// for correlation with the OTel spans internal/telemetry emits.
package trace

import (
	"context"
	"fmt"

	"chordring/internal/ringid"

	"github.com/google/uuid"
)

type traceKey struct{}

// GenerateTraceID builds a globally unique trace ID in the form
// "<nodeID>-<uuid>".
func GenerateTraceID(nodeID string) string {
	return fmt.Sprintf("%s-%s", nodeID, uuid.NewString())
}

// AttachTraceID generates a trace ID derived from nodeID and stores it
// in ctx, returning the new context and the trace ID.
func AttachTraceID(ctx context.Context, nodeID ringid.ID) (context.Context, string) {
	traceID := GenerateTraceID(nodeID.ToHexString(false))
	return context.WithValue(ctx, traceKey{}, traceID), traceID
}

// GetTraceID retrieves the trace ID from ctx, or "" if absent.
func GetTraceID(ctx context.Context) string {
	if v := ctx.Value(traceKey{}); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return ""
}
