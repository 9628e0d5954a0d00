package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Classifier decides whether a chunk of raw PCM bytes is quiet, comparing
// the chunk's normalised mean-square energy against a squared threshold.
// The per-sample decode routine is chosen once at construction from the bit
// depth; classification itself is a tight loop with no branching on format.
//
// A Classifier is stateless after construction and safe for concurrent use.
type Classifier struct {
	threshold  float64
	meanSquare func(chunk []byte) float64
}

// NewClassifier returns a Classifier for the given bit depth and normalised
// RMS threshold. Returns [ErrUnsupportedFormat] for bit depths other than
// 8 or 16; the error surfaces here, at session construction, never per chunk.
func NewClassifier(bitsPerSample int, threshold float64) (*Classifier, error) {
	c := &Classifier{threshold: threshold}
	switch bitsPerSample {
	case 8:
		c.meanSquare = meanSquare8
	case 16:
		c.meanSquare = meanSquare16
	default:
		return nil, fmt.Errorf("%w: cannot classify %d bits per sample", ErrUnsupportedFormat, bitsPerSample)
	}
	return c, nil
}

// Threshold returns the configured normalised RMS threshold.
func (c *Classifier) Threshold() float64 { return c.threshold }

// IsQuiet reports whether the chunk's mean-square energy is below the
// squared threshold. An empty chunk is quiet.
func (c *Classifier) IsQuiet(chunk []byte) bool {
	if len(chunk) == 0 {
		return true
	}
	return c.meanSquare(chunk) < c.threshold*c.threshold
}

// RMS returns the normalised root-mean-square amplitude of a chunk. Running
// this over a short calibration clip with the user silent yields the
// recommended quiet threshold; callers scale it (typically by 1.1) before
// using it as a live gate.
func RMS(chunk []byte, bitsPerSample int) (float64, error) {
	if len(chunk) == 0 {
		return 0, nil
	}
	switch bitsPerSample {
	case 8:
		return math.Sqrt(meanSquare8(chunk)), nil
	case 16:
		return math.Sqrt(meanSquare16(chunk)), nil
	default:
		return 0, fmt.Errorf("%w: cannot measure %d bits per sample", ErrUnsupportedFormat, bitsPerSample)
	}
}

// meanSquare8 treats each byte as unsigned PCM offset by 128 and normalises
// by 256, so full-scale amplitude is 0.5.
func meanSquare8(chunk []byte) float64 {
	var sum float64
	for _, b := range chunk {
		s := float64(int(b)-128) / 256
		sum += s * s
	}
	return sum / float64(len(chunk))
}

// meanSquare16 treats byte pairs as little-endian signed 16-bit samples
// normalised by 32768. A trailing odd byte is ignored.
func meanSquare16(chunk []byte) float64 {
	n := len(chunk) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(chunk[i*2:]))) / 32768
		sum += s * s
	}
	return sum / float64(n)
}
