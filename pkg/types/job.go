package types

import "time"

// Point is a coordinate in the complex plane.
type Point struct {
	Re float64 `json:"re" yaml:"re"`
	Im float64 `json:"im" yaml:"im"`
}

// Window is the rectangular region of the complex plane mapped onto the grid.
type Window struct {
	XMin float64 `json:"x_min" yaml:"x_min"`
	XMax float64 `json:"x_max" yaml:"x_max"`
	YMin float64 `json:"y_min" yaml:"y_min"`
	YMax float64 `json:"y_max" yaml:"y_max"`
}

// UnitMode selects the shape of the work units sent to workers.
type UnitMode string

const (
	// UnitModeLightweight sends the row index only; workers rebuild coordinates.
	UnitModeLightweight UnitMode = "lightweight"
	// UnitModePrecomputed sends the coordinate of every column along with the row.
	UnitModePrecomputed UnitMode = "precomputed"
)

// FractalSpec names the point evaluator and its parameters.
type FractalSpec struct {
	Kind    string  `json:"kind" yaml:"kind"`
	MaxIter int     `json:"max_iter" yaml:"max_iter"`
	Epsilon float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
}

// JobSpec is everything a worker needs to evaluate rows of one run.
// The master hands it to remote workers when they register.
type JobSpec struct {
	ID      string      `json:"id"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Window  Window      `json:"window"`
	Fractal FractalSpec `json:"fractal"`
	Mode    UnitMode    `json:"mode"`
}

// RunMetadata describes a finished run for the output writer.
type RunMetadata struct {
	Width   int
	Height  int
	Window  Window
	Elapsed time.Duration
}
