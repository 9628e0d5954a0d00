package audio

// Decision is the verdict a [Session] returns for each delivered chunk.
type Decision int

const (
	// Continue means the engine should keep capturing.
	Continue Decision = iota

	// Stop means a stopping condition was met and capture should end.
	Stop
)

// String returns the human-readable name of the decision.
func (d Decision) String() string {
	if d == Stop {
		return "STOP"
	}
	return "CONTINUE"
}

// SessionConfig parameterises a recording session.
type SessionConfig struct {
	// Format describes the PCM stream the session will receive.
	Format WaveFormat

	// Target receives every accepted chunk. May be nil when the caller only
	// wants the stopping decision (e.g. threshold calibration).
	Target *Clip

	// QuietThreshold is the normalised RMS amplitude below which a chunk
	// counts as silence.
	QuietThreshold float64

	// MaxSeconds stops the recording once this much accepted audio has
	// accumulated. Disabled when ≤ 0.
	MaxSeconds float64

	// MaxQuietSeconds stops the recording after this much continuous
	// trailing silence. Disabled when ≤ 0.
	MaxQuietSeconds float64

	// StripLeadingSilence discards quiet chunks until the first active one.
	// Discarded chunks are not written to Target and advance no counters.
	StripLeadingSilence bool

	// Observer, when non-nil, receives every raw chunk, including discarded
	// leading silence, before the session processes it. Its return is not
	// consulted. It must complete within one chunk period or the hardware
	// buffer rotation stalls.
	Observer func(chunk []byte)
}

// Session is the per-recording state machine. It consumes one chunk per
// hardware buffer completion, mutating its counters exactly once per chunk,
// and tells the engine whether to continue. A Session belongs to a single
// recording call and is never shared.
type Session struct {
	classifier     *Classifier
	target         *Clip
	observer       func([]byte)
	bytesPerSecond float64

	maxSeconds      float64
	maxQuietSeconds float64

	elapsed   float64
	quiet     float64
	stripping bool
}

// NewSession builds a Session from cfg. Format problems (including an
// unclassifiable bit depth) surface here, before any device is opened.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}
	cls, err := NewClassifier(cfg.Format.BitsPerSample, cfg.QuietThreshold)
	if err != nil {
		return nil, err
	}
	return &Session{
		classifier:      cls,
		target:          cfg.Target,
		observer:        cfg.Observer,
		bytesPerSecond:  float64(cfg.Format.BytesPerSecond()),
		maxSeconds:      cfg.MaxSeconds,
		maxQuietSeconds: cfg.MaxQuietSeconds,
		stripping:       cfg.StripLeadingSilence,
	}, nil
}

// HandleChunk processes one captured chunk and returns the engine's marching
// orders. The order of operations is fixed: observer first, then the
// leading-silence latch, then accumulation and the two stop rules.
func (s *Session) HandleChunk(chunk []byte) Decision {
	if s.observer != nil {
		s.observer(chunk)
	}

	if s.stripping {
		if s.classifier.IsQuiet(chunk) {
			return Continue
		}
		// One-way latch: the first active chunk ends stripping for good and
		// is processed normally below.
		s.stripping = false
	}

	if s.target != nil {
		s.target.Write(chunk)
	}

	sec := float64(len(chunk)) / s.bytesPerSecond
	s.elapsed += sec
	if s.maxSeconds > 0 && s.elapsed >= s.maxSeconds {
		return Stop
	}

	if s.maxQuietSeconds <= 0 {
		return Continue
	}
	if s.classifier.IsQuiet(chunk) {
		s.quiet += sec
	} else {
		s.quiet = 0
	}
	if s.quiet >= s.maxQuietSeconds {
		return Stop
	}
	return Continue
}

// Elapsed returns the seconds of accepted (non-stripped) audio so far.
func (s *Session) Elapsed() float64 { return s.elapsed }

// ElapsedQuiet returns the seconds of continuous trailing silence so far.
func (s *Session) ElapsedQuiet() float64 { return s.quiet }

// Stripping reports whether the session is still discarding leading silence.
func (s *Session) Stripping() bool { return s.stripping }
