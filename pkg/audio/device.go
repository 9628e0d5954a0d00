package audio

import "time"

// Device identifies one playback or capture endpoint exposed by a [Host].
type Device struct {
	// Name is the human-readable device name, suitable for display.
	Name string

	// ID is the opaque identifier to pass back when opening the device.
	ID string
}

// Host is the hardware entry point implemented by backend adapter packages
// (audio/portaudio) and by test doubles (audio/mock).
//
// Device lists are ordered; the first entry, if any, is the platform's
// recommended default. A platform with no devices returns an empty list and
// a nil error.
type Host interface {
	// PlaybackDevices lists the available output devices.
	PlaybackDevices() ([]Device, error)

	// CaptureDevices lists the available input devices.
	CaptureDevices() ([]Device, error)

	// OpenCapture opens the identified input device for the given format.
	// framesPerBuffer is the size of each hardware buffer in sample frames.
	// Capture starts once the first buffers are enqueued.
	OpenCapture(deviceID string, format WaveFormat, framesPerBuffer int) (CaptureStream, error)

	// OpenPlayback opens the identified output device for the given format.
	OpenPlayback(deviceID string, format WaveFormat) (PlaybackStream, error)
}

// CaptureStream is an open capture session speaking the buffer-queue
// protocol of the engine's double-buffering discipline: the caller hands
// buffers to the driver with Enqueue and collects them, filled and in
// submission order, with Next. The driver must never be left with zero
// enqueued buffers while capture is live, or samples are dropped.
//
// A CaptureStream is owned by one engine call; it is not safe for
// concurrent use.
type CaptureStream interface {
	// Enqueue submits buf to the driver's fill queue. The stream owns buf
	// until Next returns it.
	Enqueue(buf []byte) error

	// Next waits up to timeout for the oldest enqueued buffer to complete.
	// On completion it returns the buffer and the number of bytes the driver
	// actually recorded, which may be less than the buffer's capacity. When
	// the timeout elapses first it returns ok=false with no error, so the
	// caller's loop stays responsive.
	Next(timeout time.Duration) (buf []byte, n int, ok bool, err error)

	// Close stops capture and releases the device and all queued buffers.
	// Safe to call more than once.
	Close() error
}

// PlaybackStream is an open playback session. Write submits sample bytes to
// the device, blocking as the driver consumes them; Drain polls for the
// hardware to finish what was written.
type PlaybackStream interface {
	// Write submits sample bytes for playback.
	Write(p []byte) error

	// Drain waits up to timeout for all written audio to finish playing.
	// Returns done=false when the timeout elapses first.
	Drain(timeout time.Duration) (done bool, err error)

	// Close releases the device. Safe to call more than once.
	Close() error
}
