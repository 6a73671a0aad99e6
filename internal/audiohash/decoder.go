package audiohash

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strings"
)

// DecodeError reports an unreadable or corrupt audio file. Decode failures
// are recoverable: the file is excluded from clustering, the scan
// continues.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder turns an audio file into mono samples in [-1, 1] at the rate it
// was constructed for.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]float64, error)
}

// FFmpegDecoder decodes any container/codec ffmpeg understands to raw
// s16le mono PCM on stdout.
type FFmpegDecoder struct {
	Binary     string
	SampleRate int
}

// NewFFmpegDecoder builds a decoder around the given ffmpeg binary.
func NewFFmpegDecoder(binary string, sampleRate int) *FFmpegDecoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegDecoder{Binary: binary, SampleRate: sampleRate}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) ([]float64, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", d.SampleRate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, d.Binary, args...) //nolint:gosec
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("ffmpeg pcm extract: %w: %s", err, strings.TrimSpace(stderr.String()))}
	}
	samples := pcm16ToFloat(stdout.Bytes())
	if len(samples) == 0 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("ffmpeg produced no samples")}
	}
	return samples, nil
}

func pcm16ToFloat(data []byte) []float64 {
	count := len(data) / 2
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float64(v) / 32768.0
	}
	return out
}
