// Package core holds the data types shared by every stage of a weighted
// intensity pipeline: strided 2D grids, boolean masks, and the chunk
// buffer protocol (chunk geometry, padding, and stream metadata).
//
// A Grid is a frequency × time view over a row-major float64 slice with an
// explicit row stride. Views created with Sub share memory with their
// parent, which is how a chunk's core region and its padded region refer
// to the same driver-owned buffer:
//
//	pp := core.NewGrid(nfreq, prepad+ntChunk+postpad)
//	c := pp.Sub(prepad, prepad+ntChunk) // core window, same backing array
//
// Stages receive a *Chunk for the duration of one call. They may read the
// padded grids and write only the core grids.
package core
