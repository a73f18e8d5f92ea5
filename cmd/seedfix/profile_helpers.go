package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seedfix/internal/prof"
)

// setupProfiling inspects persistent profiling flags and enables the
// corresponding profilers. The returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	stop, err := prof.Start(prof.Options{CPU: cpuProfile, Mem: memProfile, Runtime: tracePath})
	if err != nil {
		return nil, err
	}

	cleaned := false
	return func() {
		if cleaned {
			return
		}
		cleaned = true
		if err := stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "seedfix: %v\n", err)
		}
	}, nil
}
