package audio

import (
	"errors"
	"math"
	"testing"
)

// chunk8 returns an 8-bit mono chunk of n samples at the given unsigned level.
func chunk8(n int, level byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = level
	}
	return b
}

// chunk16 returns a 16-bit mono chunk of n samples at the given signed level.
func chunk16(n int, level int16) []byte {
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		b[2*i] = byte(level)
		b[2*i+1] = byte(level >> 8)
	}
	return b
}

func TestClassifier_Silence8Bit(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(8, 0.005)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsQuiet(chunk8(512, 128)) {
		t.Error("expected all-midpoint 8-bit chunk to be quiet")
	}
	if c.IsQuiet(chunk8(512, 200)) {
		t.Error("expected loud 8-bit chunk to not be quiet")
	}
}

func TestClassifier_Silence16Bit(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(16, 0.005)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsQuiet(chunk16(512, 0)) {
		t.Error("expected all-zero 16-bit chunk to be quiet")
	}
	if c.IsQuiet(chunk16(512, 8000)) {
		t.Error("expected loud 16-bit chunk to not be quiet")
	}
}

func TestClassifier_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	// A constant 16-bit signal at amplitude a has RMS exactly a/32768.
	const amp = 1638 // ≈ 0.05 normalised
	rms := float64(amp) / 32768

	just := func(threshold float64) bool {
		c, err := NewClassifier(16, threshold)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return c.IsQuiet(chunk16(256, amp))
	}

	if just(rms * 0.99) {
		t.Error("signal above threshold classified quiet")
	}
	if !just(rms * 1.01) {
		t.Error("signal below threshold classified loud")
	}
}

func TestClassifier_EmptyChunkIsQuiet(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(8, 0.005)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsQuiet(nil) {
		t.Error("expected empty chunk to be quiet")
	}
}

func TestClassifier_UnsupportedBitDepth(t *testing.T) {
	t.Parallel()

	_, err := NewClassifier(12, 0.005)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestClassifier_ZeroThresholdNeverQuiet(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(16, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsQuiet(chunk16(64, 1)) {
		t.Error("expected any non-zero signal to be loud at zero threshold")
	}
}

func TestRMS_ConstantSignal(t *testing.T) {
	t.Parallel()

	got, err := RMS(chunk16(1000, 16384), 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RMS = %v, want %v", got, want)
	}

	got, err = RMS(chunk8(1000, 192), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = 0.25
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RMS = %v, want %v", got, want)
	}
}

func TestRMS_Empty(t *testing.T) {
	t.Parallel()

	got, err := RMS(nil, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("RMS of empty chunk = %v, want 0", got)
	}
}

func TestRMS_UnsupportedBitDepth(t *testing.T) {
	t.Parallel()

	_, err := RMS([]byte{1, 2}, 24)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestMeanSquare16_IgnoresTrailingOddByte(t *testing.T) {
	t.Parallel()

	even := chunk16(10, 4000)
	odd := append(chunk16(10, 4000), 0xFF)
	if meanSquare16(even) != meanSquare16(odd) {
		t.Error("trailing odd byte changed the mean square")
	}
}
