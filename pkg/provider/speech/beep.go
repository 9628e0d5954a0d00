package speech

import (
	"math"

	"github.com/sonavox/sonavox/pkg/audio"
)

// Listen brackets its recording window with two short tones: a rising pair
// when the microphone opens and a falling pair when it closes.

const (
	beepSampleRate = 11025
	beepToneMs     = 120
)

func beepOn() *audio.Clip {
	return tonePair(660, 880)
}

func beepOff() *audio.Clip {
	return tonePair(880, 660)
}

// tonePair renders two consecutive sine tones as a 16-bit mono clip, with a
// linear fade at each tone edge to avoid clicks.
func tonePair(f1, f2 float64) *audio.Clip {
	format := audio.WaveFormat{Channels: 1, SampleRate: beepSampleRate, BitsPerSample: 16}
	clip := audio.NewClip(format)
	writeTone(clip, f1)
	writeTone(clip, f2)
	return clip
}

func writeTone(clip *audio.Clip, freq float64) {
	samples := beepSampleRate * beepToneMs / 1000
	fade := samples / 10
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		amp := 0.4
		if i < fade {
			amp *= float64(i) / float64(fade)
		} else if left := samples - i; left < fade {
			amp *= float64(left) / float64(fade)
		}
		v := int16(amp * 32767 * math.Sin(2*math.Pi*freq*float64(i)/beepSampleRate))
		buf[2*i] = byte(v)
		buf[2*i+1] = byte(v >> 8)
	}
	clip.Write(buf)
}
