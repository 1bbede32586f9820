// Package output persists grids in the plain text result format and reads them back.
//
// Line 1 holds width, height, elapsed seconds (%.4f) and the window bounds
// x_min, x_max, y_min, y_max (%.17f). Each following line holds one row,
// top to bottom, as width space-separated integers.
package output
