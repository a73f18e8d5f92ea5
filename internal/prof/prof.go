package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

var (
	cpuFile   *os.File
	traceFile *os.File
)

// Options lists the profiles a run should write. Empty paths are skipped.
type Options struct {
	CPU     string
	Mem     string
	Runtime string
}

// Start enables the requested profiles and returns a function that stops
// them and writes the heap profile. The returned function is never nil.
func Start(opts Options) (func() error, error) {
	stops := make([]func(), 0, 2)
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if opts.CPU != "" {
		if err := StartCPU(opts.CPU); err != nil {
			return func() error { return nil }, fmt.Errorf("cpu profile: %w", err)
		}
		stops = append(stops, StopCPU)
	}
	if opts.Runtime != "" {
		if err := StartTrace(opts.Runtime); err != nil {
			stopAll()
			return func() error { return nil }, fmt.Errorf("runtime trace: %w", err)
		}
		stops = append(stops, StopTrace)
	}

	return func() error {
		stopAll()
		if opts.Mem != "" {
			if err := WriteMem(opts.Mem); err != nil {
				return fmt.Errorf("heap profile: %w", err)
			}
		}
		return nil
	}, nil
}

// StartCPU enables CPU profiling and writes samples to the provided path.
func StartCPU(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	cpuFile = f
	return nil
}

// StopCPU stops an active CPU profile and closes the underlying file.
func StopCPU() {
	pprof.StopCPUProfile()
	if cpuFile != nil {
		_ = cpuFile.Close()
		cpuFile = nil
	}
}

// WriteMem captures a heap profile to the supplied file path.
func WriteMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

// StartTrace writes runtime trace data to the provided path.
func StartTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return err
	}
	traceFile = f
	return nil
}

// StopTrace ends an active runtime trace and closes the file.
func StopTrace() {
	trace.Stop()
	if traceFile != nil {
		_ = traceFile.Close()
		traceFile = nil
	}
}
