package audio

import (
	"fmt"
	"time"
)

// WaveFormat is an immutable descriptor of an interleaved PCM stream.
// Construct values with [NewWaveFormat] so the invariants are checked once,
// up front, instead of on every chunk.
type WaveFormat struct {
	// Channels is 1 (mono) or 2 (stereo).
	Channels int

	// SampleRate in Hz, typically between 8000 and 44100.
	SampleRate int

	// BitsPerSample is 8 (unsigned, centred at 128) or 16 (little-endian signed).
	BitsPerSample int
}

// NewWaveFormat validates and returns a WaveFormat.
// Returns [ErrUnsupportedFormat] unless channels ∈ {1,2}, sampleRate > 0,
// and bitsPerSample ∈ {8,16}.
func NewWaveFormat(channels, sampleRate, bitsPerSample int) (WaveFormat, error) {
	f := WaveFormat{Channels: channels, SampleRate: sampleRate, BitsPerSample: bitsPerSample}
	if err := f.Validate(); err != nil {
		return WaveFormat{}, err
	}
	return f, nil
}

// Validate reports whether the descriptor holds a representable format.
func (f WaveFormat) Validate() error {
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d Hz", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.BitsPerSample != 8 && f.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}
	return nil
}

// BlockAlign returns the size in bytes of one sample frame across all channels.
func (f WaveFormat) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond returns the data rate of the stream.
func (f WaveFormat) BytesPerSecond() int {
	return f.SampleRate * f.BlockAlign()
}

// ChunkBytes returns the buffer size holding seconds worth of audio, rounded
// down to a whole number of sample frames. Always at least one frame.
func (f WaveFormat) ChunkBytes(seconds float64) int {
	n := int(seconds * float64(f.BytesPerSecond()))
	align := f.BlockAlign()
	n -= n % align
	if n < align {
		n = align
	}
	return n
}

// BytesDuration converts a byte count in this format to a duration.
func (f WaveFormat) BytesDuration(n int) time.Duration {
	return time.Duration(float64(n) / float64(f.BytesPerSecond()) * float64(time.Second))
}

// String returns a human-readable description, e.g. "11025Hz mono 8-bit".
func (f WaveFormat) String() string {
	ch := "mono"
	if f.Channels == 2 {
		ch = "stereo"
	}
	return fmt.Sprintf("%dHz %s %d-bit", f.SampleRate, ch, f.BitsPerSample)
}
