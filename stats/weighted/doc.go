// Package weighted computes weighted means and RMS deviations of
// frequency × time arrays, reduced along one axis or over the whole array,
// with optional iterative sigma clipping.
//
// Positions whose total weight is zero produce RMS 0 and mean 0. An RMS of
// zero means "statistic unavailable", never "perfectly uniform data": a
// variance smaller than VarianceFloor·mean² is treated as exactly zero so
// near-constant data never reports a spurious spread.
//
//	res, err := weighted.MeanRMS(intensity, weights, core.AxisTime, 3, 3.0)
//	// res.Mean[f], res.RMS[f] for every channel f
package weighted
