package master

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"
)

// maxTrackedLatency caps the histogram range; slower rows are clamped.
const maxTrackedLatency = time.Hour

// Stats records per-row round-trip latency and rows completed per worker.
type Stats struct {
	mu        sync.Mutex
	latency   *hdrhistogram.Histogram
	perWorker map[string]int
}

// NewStats creates empty run statistics.
func NewStats() *Stats {
	return &Stats{
		latency:   hdrhistogram.New(1, maxTrackedLatency.Microseconds(), 3),
		perWorker: make(map[string]int),
	}
}

// RecordRow records one row returned by workerID after d.
func (s *Stats) RecordRow(workerID string, d time.Duration) {
	us := d.Microseconds()
	us = max(us, 1)
	us = min(us, maxTrackedLatency.Microseconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.latency.RecordValue(us)
	s.perWorker[workerID]++
}

// Summary is a point-in-time view of Stats.
type Summary struct {
	Rows      int64
	P50       time.Duration
	P99       time.Duration
	Max       time.Duration
	Mean      time.Duration
	PerWorker map[string]int
}

// Summary returns the current statistics.
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	perWorker := make(map[string]int, len(s.perWorker))
	for id, n := range s.perWorker {
		perWorker[id] = n
	}

	return Summary{
		Rows:      s.latency.TotalCount(),
		P50:       time.Duration(s.latency.ValueAtQuantile(50)) * time.Microsecond,
		P99:       time.Duration(s.latency.ValueAtQuantile(99)) * time.Microsecond,
		Max:       time.Duration(s.latency.Max()) * time.Microsecond,
		Mean:      time.Duration(s.latency.Mean() * float64(time.Microsecond)),
		PerWorker: perWorker,
	}
}

// Fields renders the summary as log fields, workers in ID order.
func (s Summary) Fields() []zap.Field {
	ids := make([]string, 0, len(s.PerWorker))
	for id := range s.PerWorker {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]int, len(ids))
	for i, id := range ids {
		rows[i] = s.PerWorker[id]
	}

	return []zap.Field{
		zap.Int64("rows", s.Rows),
		zap.Duration("p50", s.P50),
		zap.Duration("p99", s.P99),
		zap.Duration("max", s.Max),
		zap.Duration("mean", s.Mean),
		zap.Strings("workers", ids),
		zap.Ints("rows_per_worker", rows),
	}
}
