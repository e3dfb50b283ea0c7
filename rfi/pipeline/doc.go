// Package pipeline drives a stream through an ordered list of transforms.
//
// The driver owns a sliding window per substream. Each stage advances in
// steps of its own chunk length and is handed a chunk only when the
// preceding stage has finished every sample the chunk needs, including
// its postpad. Prepad is taken from samples the stage has already
// processed. At a substream boundary pads are shortened, and the final
// chunk of every stage is completed with zero-weight samples, which are
// never emitted.
//
// Processed samples are emitted to a Sink in time order once the last
// stage is done with them.
package pipeline
