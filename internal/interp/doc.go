// Package interp evaluates uniformly spaced samples at fractional
// positions.
//
// Available methods, from cheapest to smoothest:
//
//   - [Nearest]: the sample whose cell contains the position
//   - [Linear]:  2-point linear interpolation
//   - [Cubic]:   4-point cubic Hermite
//
// Positions outside the sampled range clamp to the end samples.
package interp
