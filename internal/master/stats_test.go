package master

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsSummary(t *testing.T) {
	stats := NewStats()
	stats.RecordRow("a", 10*time.Millisecond)
	stats.RecordRow("a", 20*time.Millisecond)
	stats.RecordRow("b", 30*time.Millisecond)
	stats.RecordRow("b", 0)

	s := stats.Summary()
	assert.Equal(t, int64(4), s.Rows)
	assert.Equal(t, map[string]int{"a": 2, "b": 2}, s.PerWorker)
	assert.InDelta(t, float64(30*time.Millisecond), float64(s.Max), float64(100*time.Microsecond))
	assert.LessOrEqual(t, s.P50, s.P99)
	assert.Len(t, s.Fields(), 7)
}

func TestStatsClampsLatency(t *testing.T) {
	stats := NewStats()
	stats.RecordRow("slow", 2*maxTrackedLatency)
	assert.Equal(t, int64(1), stats.Summary().Rows)
}
