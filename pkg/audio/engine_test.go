package audio_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/sonavox/sonavox/pkg/audio"
	"github.com/sonavox/sonavox/pkg/audio/mock"
)

func loudChunk(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 200
	}
	return b
}

func quietChunk(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 128
	}
	return b
}

// recordOpts returns options over 8-bit mono 1000 Hz audio with half-second
// chunks, so every scripted chunk is 500 bytes.
func recordOpts() audio.RecordOptions {
	opts := audio.DefaultRecordOptions()
	opts.SampleRate = 1000
	return opts
}

func TestEngine_RecordStopsOnSilence(t *testing.T) {
	t.Parallel()

	cs := &mock.CaptureStream{Chunks: [][]byte{
		loudChunk(500),
		loudChunk(500),
		quietChunk(500),
		quietChunk(500),
	}}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	clip, err := audio.NewEngine(h).Record(recordOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Len() != 2000 {
		t.Errorf("clip length = %d, want 2000", clip.Len())
	}
	if cs.Delivered() != 4 {
		t.Errorf("chunks consumed = %d, want 4", cs.Delivered())
	}
	if cs.CloseCallCount == 0 {
		t.Error("capture stream was not closed")
	}
}

func TestEngine_RecordStripsLeadingSilence(t *testing.T) {
	t.Parallel()

	cs := &mock.CaptureStream{Chunks: [][]byte{
		quietChunk(500),
		quietChunk(500),
		loudChunk(500),
		quietChunk(500),
		quietChunk(500),
	}}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	clip, err := audio.NewEngine(h).Record(recordOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two leading quiet chunks dropped, loud + two trailing quiet kept.
	if clip.Len() != 1500 {
		t.Errorf("clip length = %d, want 1500", clip.Len())
	}
}

func TestEngine_RecordKeepsDriverFed(t *testing.T) {
	t.Parallel()

	chunks := make([][]byte, 20)
	for i := range chunks {
		chunks[i] = loudChunk(500)
	}
	chunks[18] = quietChunk(500)
	chunks[19] = quietChunk(500)

	cs := &mock.CaptureStream{Chunks: chunks}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	if _, err := audio.NewEngine(h).Record(recordOpts()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two up-front enqueues plus one per consumed chunk except the last.
	if cs.EnqueueCount != 21 {
		t.Errorf("enqueue count = %d, want 21", cs.EnqueueCount)
	}
}

func TestEngine_RecordMaxSeconds(t *testing.T) {
	t.Parallel()

	chunks := make([][]byte, 10)
	for i := range chunks {
		chunks[i] = loudChunk(500)
	}
	cs := &mock.CaptureStream{Chunks: chunks}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	opts := recordOpts()
	opts.MaxSeconds = 2
	clip, err := audio.NewEngine(h).Record(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Len() != 2000 {
		t.Errorf("clip length = %d, want 2000", clip.Len())
	}
}

func TestEngine_RecordOnChunkObserves(t *testing.T) {
	t.Parallel()

	cs := &mock.CaptureStream{Chunks: [][]byte{
		loudChunk(500),
		quietChunk(500),
		quietChunk(500),
	}}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	var observed int
	opts := recordOpts()
	opts.OnChunk = func(chunk []byte) { observed++ }
	if _, err := audio.NewEngine(h).Record(opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if observed != 3 {
		t.Errorf("observer saw %d chunks, want 3", observed)
	}
}

func TestEngine_RecordDeviceSelection(t *testing.T) {
	t.Parallel()

	devices := []audio.Device{
		{Name: "default mic", ID: "0"},
		{Name: "usb mic", ID: "3"},
	}
	cs := &mock.CaptureStream{Chunks: [][]byte{
		loudChunk(500), quietChunk(500), quietChunk(500),
	}}
	h := &mock.Host{CaptureDevicesResult: devices, Capture: cs}

	opts := recordOpts()
	opts.DeviceID = "3"
	if _, err := audio.NewEngine(h).Record(opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.OpenCaptureCalls) != 1 || h.OpenCaptureCalls[0].DeviceID != "3" {
		t.Errorf("OpenCapture calls = %+v, want one call for device 3", h.OpenCaptureCalls)
	}

	opts.DeviceID = "9"
	if _, err := audio.NewEngine(h).Record(opts); !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable for unknown id, got %v", err)
	}
}

func TestEngine_RecordShortDriverFill(t *testing.T) {
	t.Parallel()

	// The second buffer comes back only partially filled; only the reported
	// bytes may reach the clip.
	cs := &mock.CaptureStream{Chunks: [][]byte{
		loudChunk(500),
		loudChunk(300),
		quietChunk(500),
		quietChunk(500),
	}}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	clip, err := audio.NewEngine(h).Record(recordOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Len() != 1800 {
		t.Errorf("clip length = %d, want 1800", clip.Len())
	}
}

func TestEngine_RecordOpenError(t *testing.T) {
	t.Parallel()

	openErr := errors.New("driver rejected open")
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		OpenCaptureErr:       openErr,
	}

	_, err := audio.NewEngine(h).Record(recordOpts())
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if !errors.Is(err, openErr) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestEngine_RecordNoDevices(t *testing.T) {
	t.Parallel()

	h := &mock.Host{}
	_, err := audio.NewEngine(h).Record(recordOpts())
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestEngine_RecordDriverError(t *testing.T) {
	t.Parallel()

	driverErr := errors.New("device unplugged")
	cs := &mock.CaptureStream{
		Chunks:  [][]byte{loudChunk(500)},
		NextErr: driverErr,
	}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	_, err := audio.NewEngine(h).Record(recordOpts())
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if cs.CloseCallCount == 0 {
		t.Error("capture stream not closed after driver error")
	}
}

func TestEngine_NilHost(t *testing.T) {
	t.Parallel()

	e := audio.NewEngine(nil)

	devs, err := e.CaptureDevices()
	if err != nil || len(devs) != 0 {
		t.Errorf("CaptureDevices = %v, %v; want empty, nil", devs, err)
	}
	devs, err = e.PlaybackDevices()
	if err != nil || len(devs) != 0 {
		t.Errorf("PlaybackDevices = %v, %v; want empty, nil", devs, err)
	}

	if _, err := e.Record(recordOpts()); !errors.Is(err, audio.ErrPlatformUnsupported) {
		t.Errorf("Record: expected ErrPlatformUnsupported, got %v", err)
	}
	format, _ := audio.NewWaveFormat(1, 1000, 8)
	if err := e.Play(audio.NewClip(format), ""); !errors.Is(err, audio.ErrPlatformUnsupported) {
		t.Errorf("Play: expected ErrPlatformUnsupported, got %v", err)
	}
}

func TestEngine_Play(t *testing.T) {
	t.Parallel()

	ps := &mock.PlaybackStream{DrainDelays: 2}
	h := &mock.Host{
		PlaybackDevicesResult: []audio.Device{{Name: "speaker", ID: "0"}},
		Playback:              ps,
	}

	format, _ := audio.NewWaveFormat(1, 1000, 8)
	data := loudChunk(1500)
	clip := audio.NewClipData(format, data)

	if err := audio.NewEngine(h).Play(clip, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(ps.Written, data) {
		t.Error("played bytes differ from clip data")
	}
	if ps.DrainCallCount != 3 {
		t.Errorf("drain calls = %d, want 3", ps.DrainCallCount)
	}
	if ps.CloseCallCount == 0 {
		t.Error("playback stream was not closed")
	}
}

func TestEngine_PlayOpenError(t *testing.T) {
	t.Parallel()

	openErr := errors.New("device busy")
	h := &mock.Host{
		PlaybackDevicesResult: []audio.Device{{Name: "speaker", ID: "0"}},
		OpenPlaybackErr:       openErr,
	}

	format, _ := audio.NewWaveFormat(1, 1000, 8)
	err := audio.NewEngine(h).Play(audio.NewClipData(format, loudChunk(500)), "")
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if !errors.Is(err, openErr) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestEngine_PlayInvalidFormat(t *testing.T) {
	t.Parallel()

	h := &mock.Host{
		PlaybackDevicesResult: []audio.Device{{Name: "speaker", ID: "0"}},
	}
	clip := audio.NewClipData(audio.WaveFormat{Channels: 5}, nil)
	if err := audio.NewEngine(h).Play(clip, ""); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestEngine_MeasureQuietThreshold(t *testing.T) {
	t.Parallel()

	// Constant 8-bit level 160 has normalised amplitude (160-128)/256 = 0.125.
	level := make([]byte, 500)
	for i := range level {
		level[i] = 160
	}
	cs := &mock.CaptureStream{Chunks: [][]byte{level}}
	h := &mock.Host{
		CaptureDevicesResult: []audio.Device{{Name: "mic", ID: "0"}},
		Capture:              cs,
	}

	got, err := audio.NewEngine(h).MeasureQuietThreshold(1000, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.125) > 1e-9 {
		t.Errorf("threshold = %v, want 0.125", got)
	}
}
