package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Canonical PCM WAV container: a 44-byte header (RIFF, fmt, data) followed by
// raw interleaved samples. Only uncompressed PCM is produced or accepted.

const (
	wavHeaderSize = 44
	wavFormatPCM  = 1
)

// EncodeWAV serialises the clip as a canonical PCM WAV file.
func EncodeWAV(c *Clip) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + c.Len())
	// WriteWAV on a bytes.Buffer cannot fail.
	_ = WriteWAV(&buf, c)
	return buf.Bytes()
}

// WriteWAV writes the clip to w as a canonical PCM WAV file.
func WriteWAV(w io.Writer, c *Clip) error {
	f := c.Format()
	data := c.Bytes()

	var hdr [wavHeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+len(data)))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(f.BitsPerSample))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(len(data)))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	return nil
}

// DecodeWAV parses a canonical PCM WAV file into a Clip. It accepts only the
// layout EncodeWAV produces: RIFF/WAVE, a 16-byte PCM fmt chunk, then the
// data chunk. Unknown chunks between fmt and data are skipped.
func DecodeWAV(b []byte) (*Clip, error) {
	return ReadWAV(bytes.NewReader(b))
}

// ReadWAV parses a canonical PCM WAV stream into a Clip.
func ReadWAV(r io.Reader) (*Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: short riff header: %v", ErrMalformedWave, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrMalformedWave)
	}

	var (
		format    WaveFormat
		haveFmt   bool
		chunkHead [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunkHead[:]); err != nil {
			return nil, fmt.Errorf("%w: missing data chunk: %v", ErrMalformedWave, err)
		}
		id := string(chunkHead[0:4])
		size := binary.LittleEndian.Uint32(chunkHead[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small (%d bytes)", ErrMalformedWave, size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: short fmt chunk: %v", ErrMalformedWave, err)
			}
			if tag := binary.LittleEndian.Uint16(body[0:2]); tag != wavFormatPCM {
				return nil, fmt.Errorf("%w: compression tag %d, want PCM", ErrMalformedWave, tag)
			}
			format = WaveFormat{
				Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
			}
			if err := format.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedWave, err)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrMalformedWave)
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("%w: data chunk truncated: %v", ErrMalformedWave, err)
			}
			return NewClipData(format, data), nil

		default:
			// LIST, fact and friends carry nothing we need.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("%w: truncated %q chunk: %v", ErrMalformedWave, id, err)
			}
		}
	}
}
