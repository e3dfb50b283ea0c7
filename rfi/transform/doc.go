// Package transform defines the stage contract of the cleaning pipeline and
// a registry that builds stages from named parameter sets.
//
// A Transform declares its chunking needs through ChunkSpec and is driven
// through Attach, StartSubstream, ProcessChunk and EndSubstream in that
// order. ProcessChunk may mutate the chunk's core intensity and weights in
// place; it must not retain the chunk after returning.
package transform
