package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seedfix/internal/trace"
)

// tracing owns the tracer of one command run.
type tracing struct {
	cmd    *cobra.Command
	tracer trace.Tracer
}

// setupTracing inspects trace-related flags and initializes the tracer.
// The tracer is attached to the command context.
func setupTracing(cmd *cobra.Command) (*tracing, error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает phase
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return &tracing{cmd: cmd, tracer: trace.Nop}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	if traceOutput == "" {
		traceOutput = "-"
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	return &tracing{cmd: cmd, tracer: tracer}, nil
}

// dumpRing writes the ring buffer, if any, to stderr.
func (t *tracing) dumpRing(reason string) {
	ring := trace.RingOf(t.tracer)
	if ring == nil {
		return
	}
	w := t.cmd.ErrOrStderr()
	fmt.Fprintf(w, "trace: last events before %s\n", reason)
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}

// close flushes and closes the tracer. A failed run dumps the ring first.
func (t *tracing) close(failed bool) {
	if failed {
		t.dumpRing("failure")
	}
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(t.cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(t.cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}
