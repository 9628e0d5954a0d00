// Package mock provides test doubles for the audio.Host interfaces.
//
// Use Host to script the device lists and streams the engine will see.
// Use CaptureStream to feed prepared chunks into a recording and inspect
// the buffer rotation; use PlaybackStream to capture what was played.
//
// Example:
//
//	cs := &mock.CaptureStream{Chunks: [][]byte{loud, loud, quietChunk}}
//	h := &mock.Host{
//	    CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
//	    Capture:              cs,
//	}
//	clip, err := audio.NewEngine(h).Record(opts)
package mock

import (
	"errors"
	"sync"
	"time"

	"github.com/sonavox/sonavox/pkg/audio"
)

// OpenCaptureCall records a single invocation of Host.OpenCapture.
type OpenCaptureCall struct {
	// DeviceID is the device identifier passed to OpenCapture.
	DeviceID string
	// Format is the wave format passed to OpenCapture.
	Format audio.WaveFormat
	// FramesPerBuffer is the buffer size passed to OpenCapture.
	FramesPerBuffer int
}

// OpenPlaybackCall records a single invocation of Host.OpenPlayback.
type OpenPlaybackCall struct {
	// DeviceID is the device identifier passed to OpenPlayback.
	DeviceID string
	// Format is the wave format passed to OpenPlayback.
	Format audio.WaveFormat
}

// Host is a mock implementation of audio.Host.
type Host struct {
	mu sync.Mutex

	// PlaybackDevicesResult is returned by PlaybackDevices.
	PlaybackDevicesResult []audio.Device

	// PlaybackDevicesErr, if non-nil, is returned by PlaybackDevices.
	PlaybackDevicesErr error

	// CaptureDevicesResult is returned by CaptureDevices.
	CaptureDevicesResult []audio.Device

	// CaptureDevicesErr, if non-nil, is returned by CaptureDevices.
	CaptureDevicesErr error

	// Capture is the stream returned by OpenCapture. If nil, OpenCapture
	// returns an empty CaptureStream.
	Capture *CaptureStream

	// OpenCaptureErr, if non-nil, is returned as the error from OpenCapture.
	OpenCaptureErr error

	// Playback is the stream returned by OpenPlayback. If nil, OpenPlayback
	// returns a new PlaybackStream.
	Playback *PlaybackStream

	// OpenPlaybackErr, if non-nil, is returned as the error from OpenPlayback.
	OpenPlaybackErr error

	// OpenCaptureCalls records every call to OpenCapture.
	OpenCaptureCalls []OpenCaptureCall

	// OpenPlaybackCalls records every call to OpenPlayback.
	OpenPlaybackCalls []OpenPlaybackCall
}

// PlaybackDevices returns PlaybackDevicesResult, PlaybackDevicesErr.
func (h *Host) PlaybackDevices() ([]audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.PlaybackDevicesResult, h.PlaybackDevicesErr
}

// CaptureDevices returns CaptureDevicesResult, CaptureDevicesErr.
func (h *Host) CaptureDevices() ([]audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.CaptureDevicesResult, h.CaptureDevicesErr
}

// OpenCapture records the call and returns Capture, OpenCaptureErr.
func (h *Host) OpenCapture(deviceID string, format audio.WaveFormat, framesPerBuffer int) (audio.CaptureStream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.OpenCaptureCalls = append(h.OpenCaptureCalls, OpenCaptureCall{
		DeviceID:        deviceID,
		Format:          format,
		FramesPerBuffer: framesPerBuffer,
	})
	if h.OpenCaptureErr != nil {
		return nil, h.OpenCaptureErr
	}
	if h.Capture != nil {
		return h.Capture, nil
	}
	return &CaptureStream{}, nil
}

// OpenPlayback records the call and returns Playback, OpenPlaybackErr.
func (h *Host) OpenPlayback(deviceID string, format audio.WaveFormat) (audio.PlaybackStream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.OpenPlaybackCalls = append(h.OpenPlaybackCalls, OpenPlaybackCall{
		DeviceID: deviceID,
		Format:   format,
	})
	if h.OpenPlaybackErr != nil {
		return nil, h.OpenPlaybackErr
	}
	if h.Playback != nil {
		return h.Playback, nil
	}
	return &PlaybackStream{}, nil
}

// Ensure Host implements audio.Host at compile time.
var _ audio.Host = (*Host)(nil)

// CaptureStream is a mock implementation of audio.CaptureStream. Pre-populate
// Chunks with the recorded data each completed buffer should carry; Next
// copies the next chunk into the oldest enqueued buffer. Next fails once
// Chunks is exhausted, and it fails immediately if called with no buffer
// enqueued, so a starved rotation shows up as a test failure rather than
// a hang.
type CaptureStream struct {
	mu sync.Mutex

	// Chunks is the scripted capture data, one entry per completed buffer.
	Chunks [][]byte

	// NextErr, if non-nil, is returned by the next call to Next.
	NextErr error

	// EnqueueErr, if non-nil, is returned by every Enqueue call.
	EnqueueErr error

	// EnqueueCount is the number of Enqueue calls observed.
	EnqueueCount int

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	queue [][]byte
	next  int
}

// Enqueue appends buf to the pending queue and returns EnqueueErr.
func (s *CaptureStream) Enqueue(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EnqueueCount++
	if s.EnqueueErr != nil {
		return s.EnqueueErr
	}
	s.queue = append(s.queue, buf)
	return nil
}

// Next completes the oldest enqueued buffer with the next scripted chunk.
func (s *CaptureStream) Next(timeout time.Duration) ([]byte, int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NextErr != nil {
		err := s.NextErr
		s.NextErr = nil
		return nil, 0, false, err
	}
	if len(s.queue) == 0 {
		return nil, 0, false, errors.New("mock: Next with no buffer enqueued")
	}
	if s.next >= len(s.Chunks) {
		return nil, 0, false, errors.New("mock: scripted chunks exhausted")
	}
	buf := s.queue[0]
	s.queue = s.queue[1:]
	n := copy(buf, s.Chunks[s.next])
	s.next++
	return buf, n, true, nil
}

// Close records the call.
func (s *CaptureStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return nil
}

// Delivered returns the number of scripted chunks consumed so far.
func (s *CaptureStream) Delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Ensure CaptureStream implements audio.CaptureStream at compile time.
var _ audio.CaptureStream = (*CaptureStream)(nil)

// PlaybackStream is a mock implementation of audio.PlaybackStream.
type PlaybackStream struct {
	mu sync.Mutex

	// WriteErr, if non-nil, is returned by every Write call.
	WriteErr error

	// DrainErr, if non-nil, is returned by every Drain call.
	DrainErr error

	// DrainDelays is the number of Drain calls that report not-done before
	// Drain starts returning true.
	DrainDelays int

	// Written accumulates all bytes passed to Write.
	Written []byte

	// DrainCallCount is the number of Drain calls observed.
	DrainCallCount int

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

// Write appends p to Written and returns WriteErr.
func (s *PlaybackStream) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.Written = append(s.Written, p...)
	return nil
}

// Drain reports not-done for the first DrainDelays calls, then done.
func (s *PlaybackStream) Drain(timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DrainCallCount++
	if s.DrainErr != nil {
		return false, s.DrainErr
	}
	return s.DrainCallCount > s.DrainDelays, nil
}

// Close records the call.
func (s *PlaybackStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return nil
}

// Ensure PlaybackStream implements audio.PlaybackStream at compile time.
var _ audio.PlaybackStream = (*PlaybackStream)(nil)
