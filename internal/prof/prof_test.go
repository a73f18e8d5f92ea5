package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWritesRequestedProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU: filepath.Join(dir, "cpu.out"),
		Mem: filepath.Join(dir, "mem.out"),
	}
	stop, err := Start(opts)
	require.NoError(t, err)
	require.NoError(t, stop())

	for _, p := range []string{opts.CPU, opts.Mem} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), p)
	}
}

func TestStartNothing(t *testing.T) {
	stop, err := Start(Options{})
	require.NoError(t, err)
	assert.NoError(t, stop())
}

func TestStartBadPath(t *testing.T) {
	stop, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.out")})
	require.Error(t, err)
	assert.NoError(t, stop())
}
