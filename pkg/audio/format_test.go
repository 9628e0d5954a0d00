package audio

import (
	"errors"
	"testing"
	"time"
)

func TestNewWaveFormat_Valid(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ ch, rate, bits int }{
		{1, 11025, 8},
		{2, 16000, 16},
		{1, 44100, 16},
	} {
		if _, err := NewWaveFormat(tc.ch, tc.rate, tc.bits); err != nil {
			t.Errorf("NewWaveFormat(%d, %d, %d): %v", tc.ch, tc.rate, tc.bits, err)
		}
	}
}

func TestNewWaveFormat_Invalid(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ ch, rate, bits int }{
		{0, 11025, 8},
		{3, 11025, 8},
		{1, 0, 8},
		{1, -8000, 8},
		{1, 11025, 12},
		{1, 11025, 24},
	} {
		if _, err := NewWaveFormat(tc.ch, tc.rate, tc.bits); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("NewWaveFormat(%d, %d, %d): expected ErrUnsupportedFormat, got %v", tc.ch, tc.rate, tc.bits, err)
		}
	}
}

func TestWaveFormat_Derived(t *testing.T) {
	t.Parallel()

	f, err := NewWaveFormat(2, 16000, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.BlockAlign(); got != 4 {
		t.Errorf("BlockAlign = %d, want 4", got)
	}
	if got := f.BytesPerSecond(); got != 64000 {
		t.Errorf("BytesPerSecond = %d, want 64000", got)
	}
	if got := f.BytesDuration(32000); got != 500*time.Millisecond {
		t.Errorf("BytesDuration = %v, want 500ms", got)
	}
}

func TestWaveFormat_ChunkBytes(t *testing.T) {
	t.Parallel()

	f, err := NewWaveFormat(1, 11025, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.ChunkBytes(0.5); got != 5512 {
		t.Errorf("ChunkBytes(0.5) = %d, want 5512", got)
	}

	// Stereo 16-bit rounds down to a whole frame.
	st, err := NewWaveFormat(2, 11025, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.ChunkBytes(0.5); got%st.BlockAlign() != 0 {
		t.Errorf("ChunkBytes(0.5) = %d, not frame aligned", got)
	}

	// Degenerate duration still yields one frame.
	if got := st.ChunkBytes(0); got != st.BlockAlign() {
		t.Errorf("ChunkBytes(0) = %d, want %d", got, st.BlockAlign())
	}
}

func TestWaveFormat_String(t *testing.T) {
	t.Parallel()

	f := WaveFormat{Channels: 1, SampleRate: 11025, BitsPerSample: 8}
	if got := f.String(); got != "11025Hz mono 8-bit" {
		t.Errorf("String = %q", got)
	}
	f = WaveFormat{Channels: 2, SampleRate: 16000, BitsPerSample: 16}
	if got := f.String(); got != "16000Hz stereo 16-bit" {
		t.Errorf("String = %q", got)
	}
}
