// Package audio is an umbrella for the playback engine's audio-format and
// device sub-packages:
//
//   - soundparams: PCM layout (encoding, sample rate, channels) and chunks
//   - codec/ogg, codec/opus: Ogg demuxer and Opus decoder used by the oggopus plugin
//   - portaudio: the output device binding
package audio
