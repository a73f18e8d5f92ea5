// Package trace records what seedfix does while it rewrites seed files.
//
// # Usage
//
//	seedfix --trace=- --trace-level=detail migrations/
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped when a run fails
//   - MultiTracer: combines several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only the ring dump after a failure
//   - LevelPhase: driver boundaries
//   - LevelDetail: one span per file
//   - LevelDebug: every ARRAY literal
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeFile, "normalize:"+path, parentID)
//	defer span.End("")
package trace
