// Package resolution converts weighted-intensity grids between native and
// coarse resolution.
//
// Downsample averages (intensity, weight) pairs over rectangular blocks so
// statistics can be computed cheaply on a coarse grid; Upsample replicates
// a coarse boolean mask back to native resolution. Block sizes must divide
// the grid exactly.
package resolution
