// Package clip implements the standard-deviation clipper, a stage that
// masks whole slices of a chunk whose spread is unusual compared with the
// other slices.
//
// With AxisTime the clipper computes one standard deviation per channel
// across time; channels whose value lies at least Threshold standard
// deviations from the mean over channels lose their weight for the whole
// chunk. AxisFreq does the same per time sample across frequency.
//
// Statistics may be computed on a coarse grid (WithDownsample); the
// resulting mask is replicated back to native resolution before weights
// are zeroed. Slices with no usable statistic, and chunks where the spread
// of spreads is zero, are never masked.
package clip
