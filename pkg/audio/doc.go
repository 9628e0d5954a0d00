// Package audio implements the local audio subsystem of sonavox: PCM clip
// containers, RIFF/WAVE encoding, RMS-based silence classification, the
// recording session state machine, and the device I/O engine that drives
// double-buffered capture and blocking playback.
//
// The three layers, bottom to top:
//
//   - [WaveFormat] and [Clip] describe and hold raw interleaved PCM.
//   - [Classifier] and [Session] decide, chunk by chunk, whether a recording
//     should keep going.
//   - [Engine] owns the hardware conversation through a [Host], delivering
//     each captured chunk to a [Session] and honouring its decision.
//
// Hardware access is abstracted behind the [Host] interface so that adapter
// packages (audio/portaudio) and test doubles (audio/mock) can be swapped
// freely. An Engine constructed without a Host reports every device list as
// empty and fails Play/Record with [ErrPlatformUnsupported] before touching
// any hardware, which is the defined behaviour on platforms without a
// native audio backend.
//
// This package lives under pkg/ because external code is expected to
// implement [Host] for additional backends.
package audio
