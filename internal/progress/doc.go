// Package progress provides the per-jam event primitives, the non-blocking
// hub, and the emitter interface the crawler uses to report a run. Events
// fan out from a background goroutine to pluggable sinks such as structured
// logging or Prometheus counters.
package progress
