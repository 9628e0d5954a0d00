// Package speech provides a client for the cloud speech service: SSML
// synthesis, wave-file recognition with confidence tiers, and the
// microphone round-trip helpers Say and Listen built on the audio engine.
package speech

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sonavox/sonavox/pkg/audio"
)

const (
	defaultBaseURL = "https://speech.platform.bing.com"
	defaultLocale  = "en-US"
	defaultGender  = "Female"

	synthesisAppID   = "40c496aba8e54b429be4429db5caf4a1"
	recognitionAppID = "D4D52672-91D7-4C74-8AD8-42B1D98141A5"

	// listenMaxSeconds bounds a Listen recording; listenQuietSeconds ends it
	// after one second of trailing silence.
	listenMaxSeconds   = 30
	listenQuietSeconds = 1
)

var ssmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// ErrNotRecognized is returned when the service produced no usable result.
var ErrNotRecognized = errors.New("speech: unable to recognize speech")

// LowConfidenceError is returned when recognition succeeded but the service
// was not highly confident. Guess holds the best candidate text.
type LowConfidenceError struct {
	Guess string
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("speech: low confidence result %q", e.Guess)
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithLocale sets the default locale for synthesis and recognition.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

// WithGender sets the default synthesis voice gender ("Female" or "Male").
func WithGender(gender string) Option {
	return func(c *Client) { c.gender = gender }
}

// WithHTTPClient sets the HTTP client used for service calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the service base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTokenSource replaces the default client-credentials token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithEngine attaches an audio engine, enabling Say, Listen and Calibrate.
func WithEngine(e *audio.Engine) Option {
	return func(c *Client) { c.engine = e }
}

// Client provides access to the speech service. Construct with New.
// Safe for concurrent use except for Calibrate/Listen, which share the
// calibrated threshold and the single audio engine.
type Client struct {
	key        string
	clientID   string
	locale     string
	gender     string
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	engine     *audio.Engine

	quietThreshold float64
}

// New creates a speech Client. key must be non-empty.
func New(key string, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, errors.New("speech: key must not be empty")
	}
	var id [16]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, fmt.Errorf("speech: generate client id: %w", err)
	}
	c := &Client{
		key:        key,
		clientID:   hex.EncodeToString(id[:]),
		locale:     defaultLocale,
		gender:     defaultGender,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.tokens == nil {
		c.tokens = &ClientCredentialsSource{
			ClientID:   c.clientID,
			Secret:     key,
			Scope:      defaultBaseURL,
			HTTPClient: c.httpClient,
		}
	}
	return c, nil
}

// Synthesize converts text to speech using the client's default locale and
// gender, returning a 16 kHz 16-bit mono wave file.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return c.SynthesizeVoice(ctx, text, c.locale, c.gender)
}

// SynthesizeVoice converts text to speech with an explicit locale and gender.
func (c *Client) SynthesizeVoice(ctx context.Context, text, locale, gender string) ([]byte, error) {
	voice, err := voiceFor(locale, gender)
	if err != nil {
		return nil, err
	}

	ssml := fmt.Sprintf(
		"<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' xml:gender='%s' name='%s'>%s</voice></speak>",
		locale, locale, gender, voice, ssmlEscaper.Replace(text),
	)

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "text/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "riff-16khz-16bit-mono-pcm")
	req.Header.Set("X-Search-AppId", synthesisAppID)
	req.Header.Set("X-Search-ClientID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech: synthesize: unexpected status %d", resp.StatusCode)
	}
	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize read: %w", err)
	}
	return wav, nil
}

// RecognitionResult is one candidate from the recognition endpoint.
type RecognitionResult struct {
	Name       string            `json:"name"`
	Lexical    string            `json:"lexical"`
	Confidence string            `json:"confidence"`
	Properties map[string]string `json:"properties"`
}

// RecognitionResponse is the full recognition reply.
type RecognitionResponse struct {
	Version string              `json:"version"`
	Header  map[string]string   `json:"header"`
	Results []RecognitionResult `json:"results"`
}

// Recognize converts a wave file to text. High-confidence results are
// returned directly; mid and low confidence results are wrapped in a
// *LowConfidenceError carrying the best guess. ErrNotRecognized means the
// service produced nothing usable.
func (c *Client) Recognize(ctx context.Context, wav []byte) (string, error) {
	res, err := c.RecognizeRaw(ctx, wav, c.locale)
	if err != nil {
		return "", err
	}
	if len(res.Results) == 0 {
		return "", ErrNotRecognized
	}
	best := res.Results[0]
	if best.Properties["HIGHCONF"] != "" {
		return best.Name, nil
	}
	if best.Properties["MIDCONF"] != "" || best.Properties["LOWCONF"] != "" {
		return "", &LowConfidenceError{Guess: best.Name}
	}
	return "", ErrNotRecognized
}

// RecognizeRaw converts a wave file to text and returns the complete service
// response. Only single-channel audio is accepted.
func (c *Client) RecognizeRaw(ctx context.Context, wav []byte, locale string) (*RecognitionResponse, error) {
	if _, ok := voices[locale]; !ok {
		return nil, fmt.Errorf("speech: unsupported locale %q", locale)
	}
	clip, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, err
	}
	if clip.Format().Channels != 1 {
		return nil, errors.New("speech: can only recognize single channel audio")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	contentType := fmt.Sprintf(
		"audio/wav; codec=\"audio/pcm\"; samplerate=8000; sourcerate=%d; trustsourcerate=true",
		clip.Format().SampleRate,
	)
	params := fmt.Sprintf(
		"scenarios=ulm&appid=%s&locale=%s&device.os=%%22Windows%%20OS%%22&version=3.0&format=json&instanceid=%s&requestid=%s",
		recognitionAppID, locale, c.clientID, c.clientID,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize?"+params, bytes.NewReader(wav))
	if err != nil {
		return nil, fmt.Errorf("speech: recognize request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json;text/xml")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: recognize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech: recognize: unexpected status %d", resp.StatusCode)
	}
	var rr RecognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("speech: recognize decode: %w", err)
	}
	return &rr, nil
}

// Say synthesizes text and plays it over the default output device.
// Whitespace-only text is a no-op.
func (c *Client) Say(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.engine == nil {
		return errors.New("speech: no audio engine configured")
	}
	wav, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	clip, err := audio.DecodeWAV(wav)
	if err != nil {
		return err
	}
	return c.engine.Play(clip, "")
}

// Calibrate measures the microphone's quiet threshold and stores it, scaled
// up ten percent, as the recording gate for Listen. The user should stay
// quiet for the half second this takes.
func (c *Client) Calibrate() error {
	if c.engine == nil {
		return errors.New("speech: no audio engine configured")
	}
	rms, err := c.engine.MeasureQuietThreshold(11025, 8)
	if err != nil {
		return err
	}
	c.quietThreshold = 1.1 * rms
	return nil
}

// Listen records from the default microphone and recognizes the result.
// A short beep brackets the recording window on each side. Recording runs
// until one second of trailing silence or thirty seconds, whichever comes
// first. Calibrate is invoked automatically on first use.
func (c *Client) Listen(ctx context.Context) (string, error) {
	if c.engine == nil {
		return "", errors.New("speech: no audio engine configured")
	}
	if c.quietThreshold == 0 {
		if err := c.Calibrate(); err != nil {
			return "", err
		}
	}

	if err := c.engine.Play(beepOn(), ""); err != nil {
		return "", err
	}

	opts := audio.DefaultRecordOptions()
	opts.MaxSeconds = listenMaxSeconds
	opts.MaxQuietSeconds = listenQuietSeconds
	opts.QuietThreshold = c.quietThreshold
	clip, err := c.engine.Record(opts)
	if err != nil {
		return "", err
	}

	if err := c.engine.Play(beepOff(), ""); err != nil {
		return "", err
	}

	return c.Recognize(ctx, audio.EncodeWAV(clip))
}
