// Package snapshot provides a Saver/Reverter pair of stages.
//
// A Saver copies the core of every chunk it sees. A Reverter placed
// further down the chain, with the same chunk length, overwrites its
// chunk with the saved copy, undoing whatever the stages between them
// did to the intensity, the weights, or both. One Saver may feed several
// Reverters; a snapshot is released once every Reverter has consumed it.
package snapshot
