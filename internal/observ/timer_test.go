package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	done := tm.Track("collect")
	time.Sleep(2 * time.Millisecond)
	done("3 files")

	idx := tm.Begin("normalize")
	tm.End(idx, "")
	tm.End(42, "ignored")

	rep := tm.Report()
	require.Len(t, rep.Phases, 2)
	assert.Equal(t, "collect", rep.Phases[0].Name)
	assert.Equal(t, "3 files", rep.Phases[0].Note)
	assert.GreaterOrEqual(t, rep.Phases[0].DurationMS, 2.0)
	assert.GreaterOrEqual(t, rep.TotalMS, rep.Phases[0].DurationMS)
}

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	tm.Track("write")("changed")
	out := tm.Summary()
	assert.True(t, strings.HasPrefix(out, "timings:\n"))
	assert.Contains(t, out, "// changed")
	assert.Contains(t, out, "total")
}

func TestTimerEmpty(t *testing.T) {
	assert.Equal(t, Report{}, NewTimer().Report())
}
