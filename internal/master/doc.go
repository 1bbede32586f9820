// Package master implements the row-distributing side of a run.
//
// The Scheduler owns the output grid. It seeds one row per known worker,
// then hands the next unassigned row to whichever worker replies, and sends
// the termination signal once rows run out. The run is done when every
// worker has been terminated and every row has been inserted.
package master
