package audiohash_test

import (
	"math"
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/audiohash"
)

func sine(freq float64, rate, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func testParams() audiohash.Params {
	p := audiohash.DefaultParams()
	return p
}

func TestComputeDeterministic(t *testing.T) {
	p := testParams()
	wave := sine(440, p.SampleRate, p.SampleRate, 0.8)

	first, err := audiohash.Compute(wave, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := audiohash.Compute(wave, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if first.Hash != second.Hash {
		t.Fatalf("hash not deterministic: %s vs %s", first.Hash, second.Hash)
	}
	if audiohash.Distance(first, second) != 0 {
		t.Fatalf("self distance = %v, want 0", audiohash.Distance(first, second))
	}
}

func TestComputeIgnoresEdgeSilence(t *testing.T) {
	p := testParams()
	wave := sine(440, p.SampleRate, p.SampleRate, 0.8)

	padded := make([]float64, 0, len(wave)+2*p.SampleRate/4)
	padded = append(padded, make([]float64, p.SampleRate/4)...)
	padded = append(padded, wave...)
	padded = append(padded, make([]float64, p.SampleRate/4)...)

	plain, err := audiohash.Compute(wave, p)
	if err != nil {
		t.Fatalf("Compute plain: %v", err)
	}
	shifted, err := audiohash.Compute(padded, p)
	if err != nil {
		t.Fatalf("Compute padded: %v", err)
	}
	if plain.Hash != shifted.Hash {
		t.Fatal("edge silence changed the signature")
	}
}

func TestComputeIgnoresGainChange(t *testing.T) {
	p := testParams()
	wave := sine(440, p.SampleRate, p.SampleRate, 0.8)
	quiet := make([]float64, len(wave))
	for i, v := range wave {
		quiet[i] = v * 0.5
	}

	loud, err := audiohash.Compute(wave, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	attenuated, err := audiohash.Compute(quiet, p)
	if err != nil {
		t.Fatalf("Compute attenuated: %v", err)
	}
	if loud.Hash != attenuated.Hash {
		t.Fatal("uniform gain change altered the signature")
	}
}

func TestComputeSeparatesDifferentContent(t *testing.T) {
	p := testParams()
	low, err := audiohash.Compute(sine(440, p.SampleRate, p.SampleRate, 0.8), p)
	if err != nil {
		t.Fatalf("Compute low: %v", err)
	}
	high, err := audiohash.Compute(sine(1760, p.SampleRate, p.SampleRate, 0.8), p)
	if err != nil {
		t.Fatalf("Compute high: %v", err)
	}
	if low.Hash == high.Hash {
		t.Fatal("different content produced identical hash")
	}
}

func TestComputeRejectsSilence(t *testing.T) {
	p := testParams()
	_, err := audiohash.Compute(make([]float64, p.SampleRate), p)
	if err == nil {
		t.Fatal("expected error for silent input")
	}
}

func TestParamsKeyChangesWithParams(t *testing.T) {
	a := testParams()
	b := testParams()
	b.QuantizeLevels = 9
	if a.Key() == b.Key() {
		t.Fatal("params key identical across different parameter sets")
	}
	if a.Key() != testParams().Key() {
		t.Fatal("params key not stable")
	}
}

func TestEnvelopeMarshalRoundTrip(t *testing.T) {
	p := testParams()
	sig, err := audiohash.Compute(sine(440, p.SampleRate, p.SampleRate, 0.8), p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	blob := audiohash.MarshalEnvelope(sig.Envelope)
	back, err := audiohash.UnmarshalEnvelope(blob)
	if err != nil {
		t.Fatalf("UnmarshalEnvelope: %v", err)
	}
	if len(back) != len(sig.Envelope) {
		t.Fatalf("envelope length %d, want %d", len(back), len(sig.Envelope))
	}
	for i := range back {
		if back[i] != sig.Envelope[i] {
			t.Fatalf("envelope bucket %d: %v != %v", i, back[i], sig.Envelope[i])
		}
	}

	if _, err := audiohash.UnmarshalEnvelope([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated envelope blob")
	}
}
