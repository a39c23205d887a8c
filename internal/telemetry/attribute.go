package telemetry

import (
	"chordring/internal/ringid"

	"go.opentelemetry.io/otel/attribute"
)

// IDAttributes renders a ring identifier as a set of OTel span
// attributes in hex and decimal form, for readable traces.
func IDAttributes(prefix string, id ringid.ID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(prefix+".dec", id.ToBigInt().String()),
		attribute.String(prefix+".hex", id.ToHexString(true)),
	}
}
