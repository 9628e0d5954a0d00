package audio

import "time"

// Clip holds a waveform in memory: a WaveFormat plus a growable byte buffer
// of interleaved samples. A Clip serves two roles, one at a time: the append
// target of a recording, or the sequential source of a playback. The read
// cursor advances monotonically and never rewinds during a single playback;
// call [Clip.Rewind] to start over.
//
// A Clip is not safe for concurrent use. One recording or playback owns it
// for the duration of the call.
type Clip struct {
	format WaveFormat
	data   []byte
	cursor int
}

// NewClip returns an empty Clip in the given format.
func NewClip(format WaveFormat) *Clip {
	return &Clip{format: format}
}

// NewClipData returns a Clip wrapping existing sample data. The Clip takes
// ownership of data.
func NewClipData(format WaveFormat, data []byte) *Clip {
	return &Clip{format: format, data: data}
}

// Format returns the PCM descriptor of the clip.
func (c *Clip) Format() WaveFormat { return c.format }

// Write appends sample bytes to the clip. It implements io.Writer and
// never fails.
func (c *Clip) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

// ReadChunk returns the next up-to-n bytes of sample data and advances the
// read cursor. Returns nil once the clip is exhausted.
func (c *Clip) ReadChunk(n int) []byte {
	if c.cursor >= len(c.data) || n <= 0 {
		return nil
	}
	end := c.cursor + n
	if end > len(c.data) {
		end = len(c.data)
	}
	chunk := c.data[c.cursor:end]
	c.cursor = end
	return chunk
}

// Rewind resets the read cursor to the start of the clip.
func (c *Clip) Rewind() { c.cursor = 0 }

// Bytes returns the raw interleaved sample data.
func (c *Clip) Bytes() []byte { return c.data }

// Len returns the number of sample bytes held.
func (c *Clip) Len() int { return len(c.data) }

// Duration returns the play time of the clip.
func (c *Clip) Duration() time.Duration {
	return c.format.BytesDuration(len(c.data))
}
