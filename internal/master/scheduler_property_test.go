package master

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"yqhp/fractal-engine/internal/baseline"
	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/transport/local"
)

// For any grid shape and worker count the distributed grid equals the
// sequential one, every row is assigned exactly once and every worker is
// terminated exactly once.
func TestSchedulerDistributionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("grid matches baseline with unique assignments", prop.ForAll(
		func(width, height, workers int) bool {
			geometry := unitGeometry(t, width, height)
			ev := sumEvaluator()

			want, err := baseline.Compute(context.Background(), geometry, ev)
			if err != nil {
				return false
			}

			ids := workerIDs(workers)
			hub, err := local.NewHub(ids)
			if err != nil {
				return false
			}
			evaluators := make(map[string]evaluator.PointEvaluator, len(ids))
			for i, id := range ids {
				evaluators[id] = delayedEvaluator{PointEvaluator: ev, delay: time.Duration(i%3) * time.Microsecond}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			wait := startLocalWorkers(ctx, t, hub, geometry, evaluators)
			transport := &recordingTransport{Transport: hub}
			s := NewScheduler(geometry, "", transport)

			got, _, err := s.Run(ctx)
			if err != nil || wait() != nil {
				return false
			}
			if !want.Equal(got) || s.NextRow() != height || s.Active() != 0 {
				return false
			}

			rowsSeen := make(map[int]int)
			terminated := make(map[string]int)
			for _, rec := range transport.snapshot() {
				if rec.a.IsTerminate() {
					terminated[rec.worker]++
					continue
				}
				rowsSeen[rec.a.Work.Row]++
			}
			if len(rowsSeen) != height {
				return false
			}
			for _, n := range rowsSeen {
				if n != 1 {
					return false
				}
			}
			if len(terminated) != workers {
				return false
			}
			for _, n := range terminated {
				if n != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.IntRange(1, 20),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
