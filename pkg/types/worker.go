package types

import "time"

// WorkerInfo contains worker registration information.
type WorkerInfo struct {
	ID           string
	Hostname     string
	Address      string
	RegisteredAt time.Time
}

// WorkerState represents the state of a worker as seen by the master.
type WorkerState string

const (
	// WorkerStateIdle indicates the worker holds no row.
	WorkerStateIdle WorkerState = "idle"
	// WorkerStateBusy indicates the worker holds a row.
	WorkerStateBusy WorkerState = "busy"
	// WorkerStateTerminated indicates the worker was sent the termination signal.
	WorkerStateTerminated WorkerState = "terminated"
)

// WorkerStatus represents the current status of a worker.
type WorkerStatus struct {
	State    WorkerState
	Row      int // row in flight, -1 when idle
	Rows     int // rows completed so far
	LastSeen time.Time
}

// WorkerEvent represents a worker lifecycle event.
type WorkerEvent struct {
	Type     WorkerEventType
	WorkerID string
	Worker   *WorkerInfo
	Status   *WorkerStatus // set for updated events
}

// WorkerEventType defines the type of worker event.
type WorkerEventType string

const (
	// WorkerEventRegistered indicates a worker was registered.
	WorkerEventRegistered WorkerEventType = "registered"
	// WorkerEventUnregistered indicates a worker was unregistered.
	WorkerEventUnregistered WorkerEventType = "unregistered"
	// WorkerEventUpdated indicates a worker status changed.
	WorkerEventUpdated WorkerEventType = "updated"
)
