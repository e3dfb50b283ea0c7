// Package maskfill replaces untrusted samples with synthetic noise drawn
// from a per-channel variance profile.
//
// A Profile holds one variance per channel and time bucket, each bucket
// summarizing NVarSamples consecutive samples counted from the start of the
// stream. Where the profile variance is zero the Filler masks the sample
// for good. Elsewhere it gives every sample above the weight cutoff the
// trusted weight and leaves its intensity alone, and replaces every other
// sample by Gaussian noise with the profile variance and trusts it.
//
// The Estimator stage builds a Profile from a stream so it can be saved
// and used by a later Filler run.
package maskfill
