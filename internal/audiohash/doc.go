// Package audiohash computes content signatures from decoded audio.
//
// A signature is derived from the waveform rather than the file bytes:
// audio is decoded to mono at a canonical rate, leading and trailing
// silence is trimmed, amplitude is peak-normalized, the result is reduced
// to a low comparison rate and coarsely quantized, and the quantized
// bytes are hashed. Re-encoded but perceptually identical recordings
// therefore collide, while different content does not.
package audiohash
