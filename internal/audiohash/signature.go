package audiohash

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// envelopeBuckets is the fixed size of the coarse amplitude envelope kept
// alongside the hash for distance-based comparison.
const envelopeBuckets = 64

// Params controls signature computation. Identical params and input bytes
// always produce identical signatures.
type Params struct {
	// SampleRate is the mono decode rate.
	SampleRate int
	// TrimThresholdDB trims edge samples quieter than this many dB below
	// the peak before hashing.
	TrimThresholdDB float64
	// HashSampleRate is the reduced rate the normalized waveform is
	// decimated to before quantization.
	HashSampleRate int
	// QuantizeLevels is the number of amplitude quantization levels.
	QuantizeLevels int
}

// DefaultParams returns the parameter set tuned for speech datasets.
func DefaultParams() Params {
	return Params{
		SampleRate:      16000,
		TrimThresholdDB: 40,
		HashSampleRate:  2000,
		QuantizeLevels:  15,
	}
}

// Key returns a stable digest of the parameters, used to partition the
// signature cache: signatures computed under different params never mix.
func (p Params) Key() string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%g|%d|%d", p.SampleRate, p.TrimThresholdDB, p.HashSampleRate, p.QuantizeLevels)))
	return hex.EncodeToString(sum[:])
}

// Signature is a content fingerprint: an exact-match hash plus a coarse
// amplitude envelope supporting within-tolerance comparison.
type Signature struct {
	Hash     string
	Envelope []float64
}

// ErrSilent indicates the file decoded to silence (or trimmed to nothing),
// which cannot be fingerprinted.
var ErrSilent = errors.New("audio contains no signal above the trim threshold")

// Compute derives the signature of decoded mono samples in [-1, 1].
func Compute(samples []float64, p Params) (Signature, error) {
	trimmed := trimSilence(samples, p.TrimThresholdDB)
	if len(trimmed) == 0 {
		return Signature{}, ErrSilent
	}

	peak := 0.0
	for _, v := range trimmed {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return Signature{}, ErrSilent
	}

	normalized := make([]float64, len(trimmed))
	for i, v := range trimmed {
		normalized[i] = v / peak
	}

	reduced := decimate(normalized, p.SampleRate, p.HashSampleRate)

	half := float64(p.QuantizeLevels-1) / 2.0
	quantized := make([]byte, len(reduced))
	for i, v := range reduced {
		quantized[i] = byte(int8(math.Round(v * half)))
	}

	sum := sha1.Sum(quantized)
	return Signature{
		Hash:     hex.EncodeToString(sum[:]),
		Envelope: envelope(normalized),
	}, nil
}

// trimSilence removes leading and trailing samples quieter than
// thresholdDB below the peak.
func trimSilence(samples []float64, thresholdDB float64) []float64 {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return nil
	}
	threshold := peak * math.Pow(10, -thresholdDB/20)

	start := 0
	for start < len(samples) && math.Abs(samples[start]) < threshold {
		start++
	}
	end := len(samples)
	for end > start && math.Abs(samples[end-1]) < threshold {
		end--
	}
	return samples[start:end]
}

// decimate reduces the waveform from fromRate to toRate by averaging each
// destination window. Averaging instead of point sampling keeps the
// reduction stable under one-sample alignment shifts.
func decimate(samples []float64, fromRate, toRate int) []float64 {
	if fromRate <= toRate || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	step := float64(fromRate) / float64(toRate)
	count := int(float64(len(samples)) / step)
	if count == 0 {
		count = 1
	}
	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		lo := int(float64(i) * step)
		hi := int(float64(i+1) * step)
		if hi > len(samples) {
			hi = len(samples)
		}
		if lo >= hi {
			lo = hi - 1
		}
		sum := 0.0
		for _, v := range samples[lo:hi] {
			sum += v
		}
		out = append(out, sum/float64(hi-lo))
	}
	return out
}

// envelope reduces normalized samples to a fixed number of mean absolute
// amplitude buckets.
func envelope(samples []float64) []float64 {
	out := make([]float64, envelopeBuckets)
	if len(samples) == 0 {
		return out
	}
	for bucket := 0; bucket < envelopeBuckets; bucket++ {
		lo := bucket * len(samples) / envelopeBuckets
		hi := (bucket + 1) * len(samples) / envelopeBuckets
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(samples) {
			hi = len(samples)
		}
		sum := 0.0
		for _, v := range samples[lo:hi] {
			sum += math.Abs(v)
		}
		out[bucket] = sum / float64(hi-lo)
	}
	return out
}

// Distance returns the mean absolute difference between two envelopes.
// Envelopes are fixed-size, so recordings of different durations still
// compare bucket by bucket.
func Distance(a, b Signature) float64 {
	n := len(a.Envelope)
	if len(b.Envelope) < n {
		n = len(b.Envelope)
	}
	if n == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Abs(a.Envelope[i] - b.Envelope[i])
	}
	return sum / float64(n)
}

// MarshalEnvelope encodes an envelope for cache storage.
func MarshalEnvelope(envelope []float64) []byte {
	out := make([]byte, 8*len(envelope))
	for i, v := range envelope {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

// UnmarshalEnvelope decodes an envelope produced by MarshalEnvelope.
func UnmarshalEnvelope(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("envelope blob length %d not a multiple of 8", len(data))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}
