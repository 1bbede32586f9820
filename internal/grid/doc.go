// Package grid holds the pixel geometry of a run and the output grid the
// master assembles row by row.
package grid
