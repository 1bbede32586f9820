// Package worker implements the row-evaluating side of a run.
//
// A Worker waits on its connection for an assignment, evaluates every column of
// the assigned row, replies with the result and waits again until it receives
// the termination signal. Workers share no state with each other.
package worker
