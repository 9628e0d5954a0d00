// Package emotion provides a client for the emotion recognition service:
// per-face emotion scores for images submitted as raw bytes or by URL.
package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultEndpoint   = "https://api.projectoxford.ai/emotion/v1.0/recognize"
	defaultMaxRetries = 10

	// defaultRetryDelay is the wait between attempts after a throttled
	// response.
	defaultRetryDelay = time.Second
)

// ErrThrottled is returned when the service kept answering 429 past the
// retry budget.
var ErrThrottled = errors.New("emotion: maximum number of retries reached")

// FaceRectangle locates one face in the submitted image.
type FaceRectangle struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scores holds the per-emotion confidence values for one face.
type Scores struct {
	Anger     float64 `json:"anger"`
	Contempt  float64 `json:"contempt"`
	Disgust   float64 `json:"disgust"`
	Fear      float64 `json:"fear"`
	Happiness float64 `json:"happiness"`
	Neutral   float64 `json:"neutral"`
	Sadness   float64 `json:"sadness"`
	Surprise  float64 `json:"surprise"`
}

// Face is one detected face with its emotion scores.
type Face struct {
	FaceRectangle FaceRectangle `json:"faceRectangle"`
	Scores        Scores        `json:"scores"`
}

// Dominant returns the name of the highest-scoring emotion.
func (f Face) Dominant() string {
	best, name := f.Scores.Anger, "anger"
	for _, c := range []struct {
		score float64
		name  string
	}{
		{f.Scores.Contempt, "contempt"},
		{f.Scores.Disgust, "disgust"},
		{f.Scores.Fear, "fear"},
		{f.Scores.Happiness, "happiness"},
		{f.Scores.Neutral, "neutral"},
		{f.Scores.Sadness, "sadness"},
		{f.Scores.Surprise, "surprise"},
	} {
		if c.score > best {
			best, name = c.score, c.name
		}
	}
	return name
}

// serviceError is the error envelope the service returns on failures.
type serviceError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithEndpoint overrides the recognition endpoint. Used in tests.
func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = u }
}

// WithHTTPClient sets the HTTP client used for service calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries bounds how many throttled responses are retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// Client provides access to the emotion recognition service. Safe for
// concurrent use.
type Client struct {
	key        string
	endpoint   string
	httpClient *http.Client
	maxRetries int

	// retryDelay is shortened in tests to avoid real throttling delays.
	retryDelay time.Duration
}

// New creates an emotion Client. key must be non-empty.
func New(key string, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, errors.New("emotion: key must not be empty")
	}
	c := &Client{
		key:        key,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// RecognizeImage submits image bytes (JPEG, PNG, GIF or BMP) and returns the
// detected faces with their emotion scores.
func (c *Client) RecognizeImage(ctx context.Context, image []byte) ([]Face, error) {
	return c.post(ctx, "application/octet-stream", func() io.Reader {
		return bytes.NewReader(image)
	})
}

// RecognizeURL submits a publicly reachable image URL for recognition.
func (c *Client) RecognizeURL(ctx context.Context, imageURL string) ([]Face, error) {
	body, err := json.Marshal(map[string]string{"url": imageURL})
	if err != nil {
		return nil, fmt.Errorf("emotion: encode url: %w", err)
	}
	return c.post(ctx, "application/json", func() io.Reader {
		return bytes.NewReader(body)
	})
}

// post submits one recognition request, retrying throttled responses up to
// the retry budget. newBody is called per attempt so the request body can be
// replayed.
func (c *Client) post(ctx context.Context, contentType string, newBody func() io.Reader) ([]Face, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, newBody())
		if err != nil {
			return nil, fmt.Errorf("emotion: recognize request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("emotion: recognize: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			var faces []Face
			err := json.NewDecoder(resp.Body).Decode(&faces)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("emotion: recognize decode: %w", err)
			}
			return faces, nil

		case http.StatusTooManyRequests:
			resp.Body.Close()
			if attempt >= c.maxRetries {
				return nil, ErrThrottled
			}
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}

		default:
			var se serviceError
			_ = json.NewDecoder(resp.Body).Decode(&se)
			resp.Body.Close()
			if se.Error.Message != "" {
				return nil, fmt.Errorf("emotion: recognize: status %d: %s", resp.StatusCode, se.Error.Message)
			}
			return nil, fmt.Errorf("emotion: recognize: unexpected status %d", resp.StatusCode)
		}
	}
}

// RecognizeBatch recognizes several images concurrently, at most four in
// flight. Results align with the input order; the first failure cancels the
// remaining requests.
func (c *Client) RecognizeBatch(ctx context.Context, images [][]byte) ([][]Face, error) {
	out := make([][]Face, len(images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, img := range images {
		g.Go(func() error {
			faces, err := c.RecognizeImage(ctx, img)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			out[i] = faces
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
