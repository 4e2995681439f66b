package observe

import "go.opentelemetry.io/otel/attribute"

// Meta identifies a store operation for telemetry purposes.
type Meta struct {
	Store string // Store name, e.g. "issuecache" or "tags" (required)
	Op    string // Operation, e.g. "save", "reset", "fetch" (optional)
	Key   string // Short query digest (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: liststore.<store>.<op> or liststore.<store>
func (m Meta) SpanName() string {
	if m.Op != "" {
		return "liststore." + m.Store + "." + m.Op
	}
	return "liststore." + m.Store
}

// Validate reports whether m names a store.
func (m Meta) Validate() error {
	if m.Store == "" {
		return ErrMissingStore
	}
	return nil
}

// WithOp returns a copy of m for another operation on the same store.
func (m Meta) WithOp(op string) Meta {
	m.Op = op
	return m
}

// WithKey returns a copy of m carrying the given query digest.
func (m Meta) WithKey(key string) Meta {
	m.Key = key
	return m
}

func (m Meta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("store.name", m.Store),
	}
	if m.Op != "" {
		attrs = append(attrs, attribute.String("store.op", m.Op))
	}
	return attrs
}
