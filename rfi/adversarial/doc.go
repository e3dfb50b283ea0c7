// Package adversarial provides a test-pattern stage that masks known
// rectangular regions of the stream.
//
// By default the Masker places 8 full-band gaps whose lengths halve from
// nt_reset down to nt_reset/128 samples, separated by nt_reset samples of
// untouched data and starting nt_reset samples into every substream.
// Stages downstream should leave the data around the gaps alone.
package adversarial
