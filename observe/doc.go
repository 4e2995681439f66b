// Package observe provides logging, metrics and tracing for the list stores
// and the loaders that fill them.
//
// It is a pure instrumentation library. Stores and loaders accept the
// Logger, Metrics and Tracer interfaces; NewObserver wires them to
// OpenTelemetry providers and the configured exporters.
package observe
