package types

// WorkUnit is one row of the grid handed to a worker.
// Coordinates is empty for lightweight units and holds one point per column
// for precomputed units.
type WorkUnit struct {
	Row         int     `json:"row"`
	Coordinates []Point `json:"coordinates,omitempty"`
}

// Precomputed reports whether the unit carries its own coordinates.
func (u WorkUnit) Precomputed() bool {
	return len(u.Coordinates) > 0
}

// ResultUnit carries the iteration counts of one row, column by column.
type ResultUnit struct {
	WorkerID string `json:"worker_id,omitempty"`
	Row      int    `json:"row"`
	Values   []int  `json:"values"`
}

// AssignmentKind tags a message sent from the master to a worker.
type AssignmentKind string

const (
	// AssignmentWork carries a work unit.
	AssignmentWork AssignmentKind = "work"
	// AssignmentTerminate tells the worker to stop.
	AssignmentTerminate AssignmentKind = "terminate"
)

// Assignment is the tagged message a worker receives from the master.
// Work is nil unless Kind is AssignmentWork.
type Assignment struct {
	Kind AssignmentKind
	Work *WorkUnit
}

// WorkAssignment wraps a unit into a work assignment.
func WorkAssignment(unit WorkUnit) Assignment {
	return Assignment{Kind: AssignmentWork, Work: &unit}
}

// TerminateAssignment returns the termination signal.
func TerminateAssignment() Assignment {
	return Assignment{Kind: AssignmentTerminate}
}

// IsTerminate reports whether the assignment is the termination signal.
func (a Assignment) IsTerminate() bool {
	return a.Kind == AssignmentTerminate
}
