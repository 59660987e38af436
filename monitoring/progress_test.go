package monitoring

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestProgressTrackerMetrics(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	pt := newProgressTracker(2500, 3, clock.now)
	pt.SetCurrentTable("raw_key_value")

	clock.t = clock.t.Add(2 * time.Second)
	pt.CompletedChunk(1000)

	m := pt.GetMetrics()
	assert.Equal(t, int64(2500), m.TotalRows)
	assert.Equal(t, int64(1000), m.ProcessedRows)
	assert.Equal(t, 1, m.ProcessedChunks)
	assert.Equal(t, 3, m.TotalChunks)
	assert.Equal(t, "raw_key_value", m.CurrentTable)
	assert.InDelta(t, 40.0, m.ProgressPercent, 0.001)
	assert.InDelta(t, 500.0, m.RowsPerSecond, 0.001)
	assert.Equal(t, 3*time.Second, m.EstimatedTimeLeft)
	assert.Equal(t, 2*time.Second, m.ElapsedTime)
}

func TestProgressTrackerZeroRows(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	pt := newProgressTracker(0, 0, clock.now)

	m := pt.GetMetrics()
	assert.Zero(t, m.ProgressPercent)
	assert.Zero(t, m.RowsPerSecond)
	assert.Zero(t, m.EstimatedTimeLeft)
}

func TestProgressTrackerRecentErrors(t *testing.T) {
	pt := NewProgressTracker(10, 1)
	for _, e := range []string{"a", "b", "c"} {
		pt.AddError(e)
	}

	recent := pt.GetRecentErrors(2)
	assert.Len(t, recent, 2)
	assert.Contains(t, recent[0], "b")
	assert.Contains(t, recent[1], "c")
	assert.Len(t, pt.GetRecentErrors(10), 3)
	assert.Equal(t, 3, pt.GetMetrics().ErrorCount)
}

func TestPrintFinalSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LogLevelInfo, &buf)

	pt := NewProgressTracker(7, 1)
	pt.SetCurrentTable("raw_key_value")
	pt.CompletedChunk(7)
	pt.AddError("boom")
	pt.PrintFinalSummary(logger)

	out := buf.String()
	assert.Contains(t, out, "Commit to raw_key_value finished")
	assert.Contains(t, out, "7/7 rows")
	assert.Contains(t, out, "Errors encountered: 1")
	assert.Contains(t, out, "boom")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2*time.Minute + 5*time.Second, "2m5s"},
		{time.Hour + 3*time.Minute + 9*time.Second, "1h3m9s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
