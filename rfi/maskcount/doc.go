// Package maskcount measures how much of the stream is masked.
//
// The Counter stage is read-only: for every chunk it counts zero-weight
// samples in total, per channel and per time sample, and hands the
// resulting Measurement to its sinks. MakeBitmask packs a weight array
// into one bit per sample for compact export.
package maskcount
