package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/sonavox/sonavox/pkg/audio"
)

// Transcript is one streaming recognition result. Partial results arrive
// with Final false and are superseded by later messages; a Final transcript
// closes out the utterance it covers.
type Transcript struct {
	Text  string
	Final bool
}

// streamStart is the first message on a recognition stream, describing the
// PCM that will follow.
type streamStart struct {
	Locale        string `json:"locale"`
	SampleRate    int    `json:"samplerate"`
	BitsPerSample int    `json:"bitspersample"`
	Channels      int    `json:"channels"`
	Format        string `json:"format"`
}

// streamResult is a recognition message received over the stream.
type streamResult struct {
	Text    string `json:"text"`
	Final   bool   `json:"final"`
	Message string `json:"message,omitempty"`
}

// RecognizeStream opens a websocket to the streaming recognition endpoint,
// sends PCM chunks from the audio channel, and returns a channel emitting
// transcripts as the service produces them.
//
// The audio channel carries raw PCM in the given format; closing it signals
// end of speech. The returned channel is closed when the service finishes or
// ctx is cancelled; callers must drain it.
func (c *Client) RecognizeStream(ctx context.Context, chunks <-chan []byte, format audio.WaveFormat) (<-chan Transcript, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.Channels != 1 {
		return nil, errors.New("speech: can only recognize single channel audio")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	wsURL := streamURL(c.baseURL, c.locale)
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + token}},
	})
	if err != nil {
		return nil, fmt.Errorf("speech: dial stream: %w", err)
	}

	start, _ := json.Marshal(streamStart{
		Locale:        c.locale,
		SampleRate:    format.SampleRate,
		BitsPerSample: format.BitsPerSample,
		Channels:      format.Channels,
		Format:        "pcm",
	})
	if err := conn.Write(ctx, websocket.MessageText, start); err != nil {
		conn.Close(websocket.StatusInternalError, "failed to send start")
		return nil, fmt.Errorf("speech: send stream start: %w", err)
	}

	out := make(chan Transcript, 16)

	go func() {
		defer close(out)
		defer conn.Close(websocket.StatusNormalClosure, "done")

		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				_, msg, err := conn.Read(ctx)
				if err != nil {
					return
				}
				tr, ok := parseStreamResult(msg)
				if !ok {
					continue
				}
				select {
				case out <- tr:
				case <-ctx.Done():
					return
				}
				if tr.Final {
					return
				}
			}
		}()

		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					// End of speech: an empty binary frame flushes the stream.
					_ = conn.Write(ctx, websocket.MessageBinary, nil)
					<-readDone
					return
				}
				if len(chunk) == 0 {
					continue
				}
				if err := conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
					return
				}
			case <-readDone:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// streamURL derives the websocket endpoint from the HTTP base URL.
func streamURL(baseURL, locale string) string {
	ws := strings.Replace(baseURL, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return ws + "/recognize/stream?locale=" + locale
}

// parseStreamResult decodes one stream message, skipping frames that carry
// no transcript.
func parseStreamResult(msg []byte) (Transcript, bool) {
	var sr streamResult
	if err := json.Unmarshal(msg, &sr); err != nil {
		return Transcript{}, false
	}
	if sr.Text == "" && !sr.Final {
		return Transcript{}, false
	}
	return Transcript{Text: sr.Text, Final: sr.Final}, true
}
