// Package stream supplies weighted-intensity data to the pipeline driver.
//
// A Stream yields time-ordered Blocks of fixed channel count. Blocks that
// follow each other without a time gap belong to one substream; a gap
// starts a new one.
package stream
