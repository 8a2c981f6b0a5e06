// Package soundparams provides the types used to describe PCM audio
// layout across the playback engine: decoders, the output buffer, and
// the output device all agree on a stream's shape through Params.
//
// Key types:
//   - Params: the (encoding, sample rate, channels) triple
//   - Chunk: interface for self-describing audio data spans
//   - DataChunk: a Chunk backed by an in-memory buffer
//   - SilenceChunk: a Chunk that produces silence of a given duration
//   - DecoderError: the Ok/Stream/Fatal error variant decoders report
//
// Example usage:
//
//	p := soundparams.Params{Encoding: soundparams.S16LE, SampleRate: 44100, Channels: 2}
//	n := p.BytesInDuration(20 * time.Millisecond)
//	chunk := soundparams.NewDataChunk(buf, p)
package soundparams
