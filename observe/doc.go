// Package observe provides observability primitives for resource loads.
//
// It is a pure instrumentation library: tracing spans, metrics, and
// structured logs around every fetch a resource performs. Resources receive a
// Middleware and wrap their loader with it; nothing here touches cache state.
package observe
