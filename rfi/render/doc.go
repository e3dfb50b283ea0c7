// Package render turns cleaned arrays into pictures.
//
// Image maps an intensity array, optionally shaded by weights, to a
// red/blue raster, and WritePNG encodes it. PlotSeries draws a time
// series classified against a threshold, Heatmap a colour-mapped grid,
// and MaskFractionChart an interactive HTML chart of mask-count
// measurements. Plotter is a pipeline stage that writes one image per
// group of chunks.
//
// Rendering is optional. Callers resolve a Capability once at startup
// and pass it to whatever needs to render; a disabled Plotter passes
// chunks through untouched.
package render
