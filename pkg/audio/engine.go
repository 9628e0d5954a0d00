package audio

import (
	"fmt"
	"log/slog"
	"time"
)

// pollInterval bounds every wait on a hardware completion event so the
// capture and playback loops stay responsive even if the driver wedges.
const pollInterval = 250 * time.Millisecond

// RecordOptions is the configuration surface for one recording call.
// Zero values fall back to the defaults of [DefaultRecordOptions] only when
// obtained from it; a hand-built RecordOptions is taken literally.
type RecordOptions struct {
	// Channels to capture, 1 or 2.
	Channels int

	// SampleRate in Hz.
	SampleRate int

	// BitsPerSample, 8 or 16.
	BitsPerSample int

	// MaxSeconds stops the recording after this much accepted audio.
	// Disabled when ≤ 0.
	MaxSeconds float64

	// MaxQuietSeconds stops the recording after this much continuous
	// trailing silence. Disabled when ≤ 0.
	MaxQuietSeconds float64

	// QuietThreshold is the normalised RMS amplitude below which a chunk
	// counts as silence.
	QuietThreshold float64

	// SecondsPerChunk sizes each hardware buffer. It sets both the capture
	// latency and the deadline for OnChunk: the callback chain must return
	// within one chunk period to keep the buffer rotation gapless.
	SecondsPerChunk float64

	// WaitForSound discards leading quiet chunks until the first active one.
	WaitForSound bool

	// OnChunk, when non-nil, observes every raw captured chunk before the
	// session processes it. Diagnostics only; it cannot affect control flow.
	OnChunk func(chunk []byte)

	// DeviceID selects the capture device. Empty means the first enumerated
	// device.
	DeviceID string

	// Target, when non-nil, receives the recording and its format overrides
	// the Channels/SampleRate/BitsPerSample fields.
	Target *Clip
}

// DefaultRecordOptions returns the standard recording configuration:
// mono 11025 Hz 8-bit, 1 s trailing-silence limit, no duration limit,
// 0.005 quiet threshold, half-second chunks, leading silence stripped.
func DefaultRecordOptions() RecordOptions {
	return RecordOptions{
		Channels:        1,
		SampleRate:      11025,
		BitsPerSample:   8,
		MaxSeconds:      0,
		MaxQuietSeconds: 1,
		QuietThreshold:  0.005,
		SecondsPerChunk: 0.5,
		WaitForSound:    true,
	}
}

// Engine drives recording and playback over a [Host]. All of its operations
// run synchronously on the caller's goroutine: "asynchronous" hardware
// completion is consumed by polling with a bounded timeout, never by hidden
// background work, so the caller's thread is the one holding the real-time
// slack described on [RecordOptions.SecondsPerChunk].
//
// Construct with [NewEngine]; a nil Host yields a degraded Engine whose
// device lists are empty and whose Play/Record fail with
// [ErrPlatformUnsupported].
type Engine struct {
	host Host
}

// NewEngine returns an Engine over host. host may be nil on platforms
// without an audio backend.
func NewEngine(host Host) *Engine {
	return &Engine{host: host}
}

// PlaybackDevices lists available output devices, default first.
// Returns an empty list when the Engine has no backend.
func (e *Engine) PlaybackDevices() ([]Device, error) {
	if e.host == nil {
		return nil, nil
	}
	return e.host.PlaybackDevices()
}

// CaptureDevices lists available input devices, default first.
// Returns an empty list when the Engine has no backend.
func (e *Engine) CaptureDevices() ([]Device, error) {
	if e.host == nil {
		return nil, nil
	}
	return e.host.CaptureDevices()
}

// Record captures audio until the session signals stop, blocking the whole
// time. It returns the recorded clip (opts.Target when provided, otherwise
// a fresh Clip).
//
// The capture loop keeps exactly two hardware buffers in rotation: both are
// enqueued before the first wait, and each completed buffer is re-enqueued
// as soon as the session has consumed it, so the driver always holds at
// least one buffer while the other drains. Any driver failure aborts the
// session; this layer never retries, because re-submitting mid-stream would
// duplicate or drop audio.
func (e *Engine) Record(opts RecordOptions) (*Clip, error) {
	if e.host == nil {
		return nil, ErrPlatformUnsupported
	}

	format := WaveFormat{
		Channels:      opts.Channels,
		SampleRate:    opts.SampleRate,
		BitsPerSample: opts.BitsPerSample,
	}
	clip := opts.Target
	if clip != nil {
		format = clip.Format()
	} else {
		if err := format.Validate(); err != nil {
			return nil, err
		}
		clip = NewClip(format)
	}

	secondsPerChunk := opts.SecondsPerChunk
	if secondsPerChunk <= 0 {
		secondsPerChunk = 0.5
	}

	session, err := NewSession(SessionConfig{
		Format:              format,
		Target:              clip,
		QuietThreshold:      opts.QuietThreshold,
		MaxSeconds:          opts.MaxSeconds,
		MaxQuietSeconds:     opts.MaxQuietSeconds,
		StripLeadingSilence: opts.WaitForSound,
		Observer:            opts.OnChunk,
	})
	if err != nil {
		return nil, err
	}

	device, err := e.resolveCapture(opts.DeviceID)
	if err != nil {
		return nil, err
	}

	chunkBytes := format.ChunkBytes(secondsPerChunk)
	stream, err := e.host.OpenCapture(device.ID, format, chunkBytes/format.BlockAlign())
	if err != nil {
		return nil, fmt.Errorf("%w: open capture device %q: %w", ErrDeviceUnavailable, device.Name, err)
	}
	defer stream.Close()

	// Two-buffer arena. Both go to the driver up front so it never waits on
	// the consumer.
	buffers := [2][]byte{
		make([]byte, chunkBytes),
		make([]byte, chunkBytes),
	}
	for _, buf := range buffers {
		if err := stream.Enqueue(buf); err != nil {
			return nil, fmt.Errorf("audio: enqueue capture buffer: %w", err)
		}
	}

	slog.Debug("recording started",
		"device", device.Name,
		"format", format.String(),
		"chunk_bytes", chunkBytes,
	)

	for {
		buf, n, ok, err := stream.Next(pollInterval)
		if err != nil {
			return nil, fmt.Errorf("audio: capture: %w", err)
		}
		if !ok {
			continue
		}

		// Only the bytes the driver reports are real; a short fill happens
		// around device open/close boundaries.
		if session.HandleChunk(buf[:n]) == Stop {
			break
		}

		if err := stream.Enqueue(buf); err != nil {
			return nil, fmt.Errorf("audio: re-enqueue capture buffer: %w", err)
		}
	}

	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("audio: close capture device %q: %w", device.Name, err)
	}

	slog.Debug("recording stopped",
		"elapsed_s", session.Elapsed(),
		"bytes", clip.Len(),
	)
	return clip, nil
}

// Play plays the whole clip over the identified output device (empty ID
// means the default) and blocks until the hardware reports completion.
// The waveform goes to the device in a single submission, fine for short
// utterances but a known limitation for very large clips. There is no
// cancellation once playback has started.
func (e *Engine) Play(clip *Clip, deviceID string) error {
	if e.host == nil {
		return ErrPlatformUnsupported
	}
	if err := clip.Format().Validate(); err != nil {
		return err
	}

	device, err := e.resolvePlayback(deviceID)
	if err != nil {
		return err
	}

	stream, err := e.host.OpenPlayback(device.ID, clip.Format())
	if err != nil {
		return fmt.Errorf("%w: open playback device %q: %w", ErrDeviceUnavailable, device.Name, err)
	}
	defer stream.Close()

	if err := stream.Write(clip.Bytes()); err != nil {
		return fmt.Errorf("audio: playback write: %w", err)
	}
	for {
		done, err := stream.Drain(pollInterval)
		if err != nil {
			return fmt.Errorf("audio: playback drain: %w", err)
		}
		if done {
			break
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("audio: close playback device %q: %w", device.Name, err)
	}
	return nil
}

// MeasureQuietThreshold records roughly half a second from the default
// capture device and returns the clip's normalised RMS amplitude, the same
// calculation [Session] applies per chunk. Run it while the user is silent
// and scale the result (typically by 1.1) before using it as a live
// quiet threshold.
func (e *Engine) MeasureQuietThreshold(sampleRate, bitsPerSample int) (float64, error) {
	clip, err := e.Record(RecordOptions{
		Channels:        1,
		SampleRate:      sampleRate,
		BitsPerSample:   bitsPerSample,
		MaxSeconds:      0.5,
		SecondsPerChunk: 0.5,
	})
	if err != nil {
		return 0, err
	}
	return RMS(clip.Bytes(), bitsPerSample)
}

// resolveCapture picks the capture device for id, defaulting to the first
// enumerated device when id is empty.
func (e *Engine) resolveCapture(id string) (Device, error) {
	devices, err := e.host.CaptureDevices()
	if err != nil {
		return Device{}, fmt.Errorf("audio: enumerate capture devices: %w", err)
	}
	return pickDevice(devices, id)
}

// resolvePlayback picks the playback device for id, defaulting to the first
// enumerated device when id is empty.
func (e *Engine) resolvePlayback(id string) (Device, error) {
	devices, err := e.host.PlaybackDevices()
	if err != nil {
		return Device{}, fmt.Errorf("audio: enumerate playback devices: %w", err)
	}
	return pickDevice(devices, id)
}

func pickDevice(devices []Device, id string) (Device, error) {
	if len(devices) == 0 {
		return Device{}, fmt.Errorf("%w: no devices enumerated", ErrDeviceUnavailable)
	}
	if id == "" {
		return devices[0], nil
	}
	for _, d := range devices {
		if d.ID == id {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: no device with id %q", ErrDeviceUnavailable, id)
}
