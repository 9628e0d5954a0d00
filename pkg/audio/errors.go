package audio

import "errors"

var (
	// ErrUnsupportedFormat is returned when a PCM descriptor requests a bit
	// depth or channel count this subsystem cannot represent. It is raised at
	// construction time, never mid-stream.
	ErrUnsupportedFormat = errors.New("audio: unsupported PCM format")

	// ErrDeviceUnavailable is returned when no enumerated device matches the
	// requested identifier, or when opening the device fails.
	ErrDeviceUnavailable = errors.New("audio: device unavailable")

	// ErrPlatformUnsupported is returned by Play and Record when the Engine
	// has no hardware backend. Device enumeration on such an Engine yields
	// empty lists rather than an error.
	ErrPlatformUnsupported = errors.New("audio: not implemented for this platform")

	// ErrMalformedWave is returned when RIFF/WAVE input is missing or has
	// inconsistent chunk headers. Decoding fails before any device I/O.
	ErrMalformedWave = errors.New("audio: malformed RIFF/WAVE data")
)
