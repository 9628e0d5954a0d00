// Package portaudio adapts the PortAudio library to the audio.Host
// interface. It is the only package in the module that talks to real
// sound hardware.
package portaudio

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/sonavox/sonavox/pkg/audio"
)

// playbackFrames sizes the registered output buffer per blocking write.
const playbackFrames = 1024

// Host is the PortAudio-backed audio.Host. Device IDs are the decimal index
// of the device in PortAudio's enumeration order, stable for the lifetime of
// the Host.
type Host struct {
	mu     sync.Mutex
	closed bool
}

// New initialises the PortAudio library and returns a Host. Callers must
// Close the Host to release the library.
func New() (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Host{}, nil
}

// Close terminates the PortAudio library. Safe to call more than once.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio: terminate: %w", err)
	}
	return nil
}

// PlaybackDevices lists output-capable devices, system default first.
func (h *Host) PlaybackDevices() ([]audio.Device, error) {
	return h.devices(func(d *portaudio.DeviceInfo) bool {
		return d.MaxOutputChannels > 0
	}, portaudio.DefaultOutputDevice)
}

// CaptureDevices lists input-capable devices, system default first.
func (h *Host) CaptureDevices() ([]audio.Device, error) {
	return h.devices(func(d *portaudio.DeviceInfo) bool {
		return d.MaxInputChannels > 0
	}, portaudio.DefaultInputDevice)
}

func (h *Host) devices(keep func(*portaudio.DeviceInfo) bool, defaultDev func() (*portaudio.DeviceInfo, error)) ([]audio.Device, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: enumerate devices: %w", err)
	}
	def, err := defaultDev()
	if err != nil {
		// No default just means nothing gets promoted to the front.
		def = nil
	}

	var out []audio.Device
	for i, d := range all {
		if !keep(d) {
			continue
		}
		dev := audio.Device{Name: d.Name, ID: strconv.Itoa(i)}
		if def != nil && d == def {
			out = append([]audio.Device{dev}, out...)
		} else {
			out = append(out, dev)
		}
	}
	return out, nil
}

func (h *Host) deviceInfo(id string) (*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: enumerate devices: %w", err)
	}
	i, err := strconv.Atoi(id)
	if err != nil || i < 0 || i >= len(all) {
		return nil, fmt.Errorf("%w: unknown device id %q", audio.ErrDeviceUnavailable, id)
	}
	return all[i], nil
}

// completion is one filled capture buffer handed back to the engine.
type completion struct {
	buf []byte
	n   int
}

// OpenCapture opens the identified input device and starts a reader that
// fills enqueued buffers in submission order.
func (h *Host) OpenCapture(deviceID string, format audio.WaveFormat, framesPerBuffer int) (audio.CaptureStream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	info, err := h.deviceInfo(deviceID)
	if err != nil {
		return nil, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = format.Channels
	params.Output.Device = nil
	params.Output.Channels = 0
	params.SampleRate = float64(format.SampleRate)
	params.FramesPerBuffer = framesPerBuffer

	cs := &captureStream{
		pending: make(chan []byte, 16),
		filled:  make(chan completion, 16),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	samples := framesPerBuffer * format.Channels
	switch format.BitsPerSample {
	case 8:
		cs.reg8 = make([]uint8, samples)
		cs.stream, err = portaudio.OpenStream(params, cs.reg8)
	case 16:
		cs.reg16 = make([]int16, samples)
		cs.stream, err = portaudio.OpenStream(params, cs.reg16)
	}
	if err != nil {
		return nil, fmt.Errorf("portaudio: open capture stream: %w", err)
	}
	if err := cs.stream.Start(); err != nil {
		_ = cs.stream.Close()
		return nil, fmt.Errorf("portaudio: start capture: %w", err)
	}

	go cs.readLoop()
	return cs, nil
}

// captureStream pumps the blocking PortAudio read API from a dedicated
// goroutine so the engine side keeps its poll-with-timeout shape.
type captureStream struct {
	stream *portaudio.Stream
	reg8   []uint8
	reg16  []int16

	pending chan []byte
	filled  chan completion
	errs    chan error
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (cs *captureStream) readLoop() {
	for {
		var buf []byte
		select {
		case <-cs.done:
			return
		case buf = <-cs.pending:
		}

		if err := cs.stream.Read(); err != nil {
			select {
			case cs.errs <- fmt.Errorf("portaudio: read: %w", err):
			case <-cs.done:
			}
			return
		}

		var n int
		if cs.reg8 != nil {
			n = copy(buf, cs.reg8)
		} else {
			n = len(cs.reg16) * 2
			if n > len(buf) {
				n = len(buf) &^ 1
			}
			for i := 0; i < n/2; i++ {
				v := cs.reg16[i]
				buf[2*i] = byte(v)
				buf[2*i+1] = byte(v >> 8)
			}
		}

		select {
		case cs.filled <- completion{buf: buf, n: n}:
		case <-cs.done:
			return
		}
	}
}

func (cs *captureStream) Enqueue(buf []byte) error {
	select {
	case <-cs.done:
		return errors.New("portaudio: capture stream closed")
	case cs.pending <- buf:
		return nil
	default:
		return errors.New("portaudio: capture queue full")
	}
}

func (cs *captureStream) Next(timeout time.Duration) ([]byte, int, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c := <-cs.filled:
		return c.buf, c.n, true, nil
	case err := <-cs.errs:
		return nil, 0, false, err
	case <-timer.C:
		return nil, 0, false, nil
	}
}

func (cs *captureStream) Close() error {
	cs.closeOnce.Do(func() {
		close(cs.done)
		if err := cs.stream.Stop(); err != nil {
			cs.closeErr = fmt.Errorf("portaudio: stop capture: %w", err)
		}
		if err := cs.stream.Close(); err != nil && cs.closeErr == nil {
			cs.closeErr = fmt.Errorf("portaudio: close capture: %w", err)
		}
	})
	return cs.closeErr
}

// OpenPlayback opens the identified output device for blocking writes.
func (h *Host) OpenPlayback(deviceID string, format audio.WaveFormat) (audio.PlaybackStream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	info, err := h.deviceInfo(deviceID)
	if err != nil {
		return nil, err
	}

	params := portaudio.LowLatencyParameters(nil, info)
	params.Input.Device = nil
	params.Input.Channels = 0
	params.Output.Channels = format.Channels
	params.SampleRate = float64(format.SampleRate)
	params.FramesPerBuffer = playbackFrames

	ps := &playbackStream{}
	samples := playbackFrames * format.Channels
	switch format.BitsPerSample {
	case 8:
		ps.reg8 = make([]uint8, samples)
		ps.stream, err = portaudio.OpenStream(params, ps.reg8)
	case 16:
		ps.reg16 = make([]int16, samples)
		ps.stream, err = portaudio.OpenStream(params, ps.reg16)
	}
	if err != nil {
		return nil, fmt.Errorf("portaudio: open playback stream: %w", err)
	}
	if err := ps.stream.Start(); err != nil {
		_ = ps.stream.Close()
		return nil, fmt.Errorf("portaudio: start playback: %w", err)
	}
	return ps, nil
}

type playbackStream struct {
	stream *portaudio.Stream
	reg8   []uint8
	reg16  []int16

	closeOnce sync.Once
	closeErr  error
	stopped   bool
}

// Write pushes p to the device one registered buffer at a time. The blocking
// write returns as the driver consumes each buffer, so Write paces itself to
// real time. The final short buffer is zero-padded to silence.
func (ps *playbackStream) Write(p []byte) error {
	regBytes := len(ps.reg8)
	if ps.reg16 != nil {
		regBytes = len(ps.reg16) * 2
	}
	for off := 0; off < len(p); off += regBytes {
		end := off + regBytes
		if end > len(p) {
			end = len(p)
		}
		ps.fill(p[off:end])
		if err := ps.stream.Write(); err != nil {
			return fmt.Errorf("portaudio: write: %w", err)
		}
	}
	return nil
}

func (ps *playbackStream) fill(chunk []byte) {
	if ps.reg8 != nil {
		n := copy(ps.reg8, chunk)
		for i := n; i < len(ps.reg8); i++ {
			ps.reg8[i] = 128
		}
		return
	}
	n := len(chunk) / 2
	for i := 0; i < n; i++ {
		ps.reg16[i] = int16(chunk[2*i]) | int16(chunk[2*i+1])<<8
	}
	for i := n; i < len(ps.reg16); i++ {
		ps.reg16[i] = 0
	}
}

// Drain stops the stream, which blocks until buffered audio has played out.
// It always completes within the call, so the first Drain reports done.
func (ps *playbackStream) Drain(timeout time.Duration) (bool, error) {
	_ = timeout
	if ps.stopped {
		return true, nil
	}
	if err := ps.stream.Stop(); err != nil {
		return false, fmt.Errorf("portaudio: drain: %w", err)
	}
	ps.stopped = true
	return true, nil
}

func (ps *playbackStream) Close() error {
	ps.closeOnce.Do(func() {
		if !ps.stopped {
			_ = ps.stream.Stop()
			ps.stopped = true
		}
		if err := ps.stream.Close(); err != nil {
			ps.closeErr = fmt.Errorf("portaudio: close playback: %w", err)
		}
	})
	return ps.closeErr
}
