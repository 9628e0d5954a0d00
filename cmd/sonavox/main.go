// Command sonavox records, plays and transcribes audio from the command
// line, backed by the cloud speech services.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sonavox/sonavox/internal/config"
	"github.com/sonavox/sonavox/internal/observe"
	"github.com/sonavox/sonavox/pkg/audio"
	paudio "github.com/sonavox/sonavox/pkg/audio/portaudio"
	"github.com/sonavox/sonavox/pkg/provider/speech"
)

const usage = `usage: sonavox [-config file.yaml] <command> [args]

commands:
  devices              list playback and capture devices
  calibrate            measure the microphone quiet threshold
  record [-o out.wav]  record until silence and write a wave file
  play <file.wav>      play a wave file
  say <text>           synthesize text and play it
  listen               record one utterance and print the transcript
`

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sonavox: %v\n", err)
			return 1
		}
	}

	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr)
	}

	// A missing audio backend degrades gracefully: device lists are empty
	// and record/play report the platform as unsupported.
	var host *paudio.Host
	if h, err := paudio.New(); err != nil {
		slog.Warn("audio backend unavailable", "err", err)
	} else {
		host = h
		defer host.Close()
	}
	engine := newEngine(host)

	app := &cli{cfg: cfg, engine: engine, metrics: metrics}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var cmdErr error
	switch cmd {
	case "devices":
		cmdErr = app.devices()
	case "calibrate":
		cmdErr = app.calibrate()
	case "record":
		cmdErr = app.record(args)
	case "play":
		cmdErr = app.play(args)
	case "say":
		cmdErr = app.say(ctx, args)
	case "listen":
		cmdErr = app.listen(ctx)
	default:
		fmt.Fprintf(os.Stderr, "sonavox: unknown command %q\n", cmd)
		flag.Usage()
		return 2
	}

	if cmdErr != nil {
		slog.Error(cmd+" failed", "err", cmdErr)
		return 1
	}
	return 0
}

// newEngine keeps the nil-ness of a missing host: a nil *paudio.Host must
// become a nil audio.Host interface, not a typed nil.
func newEngine(host *paudio.Host) *audio.Engine {
	if host == nil {
		return audio.NewEngine(nil)
	}
	return audio.NewEngine(host)
}

type cli struct {
	cfg     *config.Config
	engine  *audio.Engine
	metrics *observe.Metrics
}

func (a *cli) devices() error {
	capture, err := a.engine.CaptureDevices()
	if err != nil {
		return err
	}
	playback, err := a.engine.PlaybackDevices()
	if err != nil {
		return err
	}

	fmt.Println("capture devices:")
	if len(capture) == 0 {
		fmt.Println("  (none)")
	}
	for _, d := range capture {
		fmt.Printf("  %s  %s\n", d.ID, d.Name)
	}
	fmt.Println("playback devices:")
	if len(playback) == 0 {
		fmt.Println("  (none)")
	}
	for _, d := range playback {
		fmt.Printf("  %s  %s\n", d.ID, d.Name)
	}
	return nil
}

func (a *cli) calibrate() error {
	fmt.Println("measuring background noise, stay quiet...")
	rms, err := a.engine.MeasureQuietThreshold(a.cfg.Recording.SampleRate, a.cfg.Recording.BitsPerSample)
	if err != nil {
		return err
	}
	fmt.Printf("measured quiet level: %.6f\n", rms)
	fmt.Printf("recommended quiet_threshold: %.6f\n", 1.1*rms)
	return nil
}

func (a *cli) record(args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	output := fs.String("o", "recording.wav", "output wave file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := a.recordOptions()
	if err != nil {
		return err
	}

	fmt.Println("recording...")
	start := time.Now()
	a.metrics.ActiveRecordings.Add(context.Background(), 1)
	clip, err := a.engine.Record(opts)
	a.metrics.ActiveRecordings.Add(context.Background(), -1)
	if err != nil {
		return err
	}
	a.metrics.RecordingDuration.Record(context.Background(), time.Since(start).Seconds())

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := audio.WriteWAV(f, clip); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", *output, clip.Duration().Round(time.Millisecond))
	return nil
}

func (a *cli) play(args []string) error {
	if len(args) != 1 {
		return errors.New("play requires exactly one wave file argument")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	clip, err := audio.DecodeWAV(data)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := a.engine.Play(clip, a.cfg.Playback.Device); err != nil {
		return err
	}
	a.metrics.PlaybackDuration.Record(context.Background(), time.Since(start).Seconds())
	return nil
}

func (a *cli) say(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("say requires the text to speak")
	}
	client, err := a.speechClient()
	if err != nil {
		return err
	}

	err = client.Say(ctx, strings.Join(args, " "))
	a.recordProviderOutcome(ctx, "speech", err)
	return err
}

func (a *cli) listen(ctx context.Context) error {
	client, err := a.speechClient()
	if err != nil {
		return err
	}

	text, err := client.Listen(ctx)
	a.recordProviderOutcome(ctx, "speech", err)

	var lowConf *speech.LowConfidenceError
	if errors.As(err, &lowConf) {
		fmt.Printf("(low confidence) %s\n", lowConf.Guess)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func (a *cli) speechClient() (*speech.Client, error) {
	sc := a.cfg.Providers.Speech
	if sc.APIKey == "" {
		return nil, errors.New("providers.speech.api_key is not configured")
	}
	opts := []speech.Option{speech.WithEngine(a.engine)}
	if sc.Locale != "" {
		opts = append(opts, speech.WithLocale(sc.Locale))
	}
	if sc.Gender != "" {
		opts = append(opts, speech.WithGender(sc.Gender))
	}
	return speech.New(sc.APIKey, opts...)
}

// recordOptions maps the recording config onto engine options, wiring the
// per-chunk observer into the capture metrics.
func (a *cli) recordOptions() (audio.RecordOptions, error) {
	rec := a.cfg.Recording
	opts := audio.RecordOptions{
		Channels:        rec.Channels,
		SampleRate:      rec.SampleRate,
		BitsPerSample:   rec.BitsPerSample,
		MaxSeconds:      rec.MaxSeconds,
		MaxQuietSeconds: rec.MaxQuietSeconds,
		QuietThreshold:  rec.QuietThreshold,
		SecondsPerChunk: rec.SecondsPerChunk,
		DeviceID:        rec.Device,
	}
	if rec.WaitForSound != nil {
		opts.WaitForSound = *rec.WaitForSound
	}

	classifier, err := audio.NewClassifier(rec.BitsPerSample, rec.QuietThreshold)
	if err != nil {
		return audio.RecordOptions{}, err
	}
	opts.OnChunk = func(chunk []byte) {
		a.metrics.RecordChunk(context.Background(), classifier.IsQuiet(chunk))
	}
	return opts, nil
}

func (a *cli) recordProviderOutcome(ctx context.Context, provider string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordProviderRequest(ctx, provider, status)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics endpoint error", "err", err)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
