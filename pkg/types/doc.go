// Package types defines the core data structures for the fractal engine.
//
// This package contains the types shared by the master, the workers and the
// transports, including:
//   - Points, viewing windows and job specifications
//   - Work units, result units and worker assignments
//   - The WebSocket envelope exchanged between master and workers
package types
