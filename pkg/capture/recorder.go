package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Recording limits.
const (
	DefaultMaxDuration   = 60 * time.Second
	DefaultStopTimeout   = 5 * time.Second
	DefaultChunkInterval = time.Second
)

// State is the recorder state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Blob is an encoded recording.
type Blob struct {
	Data     []byte
	MIMEType string
	Format   Format
	Duration time.Duration
}

// Config configures a Recorder.
type Config struct {
	// Microphone is the capture device. Required.
	Microphone Microphone

	// Constraints default to DefaultConstraints().
	Constraints *Constraints

	// Encoders available for recording. Defaults to WAV only.
	Encoders []Encoder

	// Preferred overrides PreferredMIMETypes.
	Preferred []string

	MaxDuration   time.Duration
	StopTimeout   time.Duration
	ChunkInterval time.Duration

	// OnAutoStop is called from a background goroutine when a recording hits
	// MaxDuration. The same result is returned by the next Stop.
	OnAutoStop func(*Blob, error)

	Logger *slog.Logger
}

// Recorder records one microphone session at a time.
//
// The state machine is idle -> recording -> stopping -> idle. Start and Stop
// are safe for concurrent use; a Start or Stop issued while a stop is in
// progress fails with PROCESSING_IN_PROGRESS.
type Recorder struct {
	mic         Microphone
	constraints Constraints
	encoders    []Encoder
	preferred   []string
	maxDur      time.Duration
	stopTimeout time.Duration
	chunkEvery  time.Duration
	onAutoStop  func(*Blob, error)
	log         *slog.Logger

	mu       sync.Mutex
	state    State
	sess     *session
	autoDone *autoResult
}

type autoResult struct {
	blob *Blob
	err  error
}

// NewRecorder creates a Recorder.
func NewRecorder(cfg Config) *Recorder {
	r := &Recorder{
		mic:         cfg.Microphone,
		constraints: DefaultConstraints(),
		encoders:    cfg.Encoders,
		preferred:   cfg.Preferred,
		maxDur:      cfg.MaxDuration,
		stopTimeout: cfg.StopTimeout,
		chunkEvery:  cfg.ChunkInterval,
		onAutoStop:  cfg.OnAutoStop,
		log:         cfg.Logger,
	}
	if cfg.Constraints != nil {
		r.constraints = *cfg.Constraints
	}
	if len(r.encoders) == 0 {
		r.encoders = []Encoder{WAVEncoder{}}
	}
	if len(r.preferred) == 0 {
		r.preferred = PreferredMIMETypes
	}
	if r.maxDur <= 0 {
		r.maxDur = DefaultMaxDuration
	}
	if r.stopTimeout <= 0 {
		r.stopTimeout = DefaultStopTimeout
	}
	if r.chunkEvery <= 0 {
		r.chunkEvery = DefaultChunkInterval
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// State returns the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Recording reports whether a recording is active.
func (r *Recorder) Recording() bool {
	return r.State() == StateRecording
}

// AutoStopped reports whether a recording ended at MaxDuration and its
// result is waiting for Stop.
func (r *Recorder) AutoStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateIdle && r.autoDone != nil
}

// Buffered returns the number of PCM bytes captured by the active recording.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	s := r.sess
	r.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.buffered()
}

// Start opens the microphone and begins buffering audio.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateStopping:
		return newError(CodeProcessingInProgress, "a recording is being processed", nil)
	case StateRecording:
		return newError(CodeInvalidState, "already recording", nil)
	}

	if r.autoDone != nil {
		r.log.Warn("discarding unclaimed auto-stopped recording")
		r.autoDone = nil
	}

	enc := SelectEncoder(r.preferred, r.encoders)
	if enc == nil {
		return newError(CodeUnsupportedFormat, "no supported audio format", nil)
	}
	if r.mic == nil {
		return newError(CodeMicAccess, "no microphone configured", nil)
	}

	stream, err := r.mic.Open(ctx, r.constraints)
	if err != nil {
		return newError(CodeMicAccess, "cannot access microphone", err)
	}

	s := newSession(stream, enc, r.chunkEvery, r.log)
	r.sess = s
	r.state = StateRecording
	s.timer = time.AfterFunc(r.maxDur, func() { r.autoStop(s) })

	r.log.Info("recording started", "mime", enc.MIMEType(), "format", stream.Format().String())
	return nil
}

// Stop ends the active recording and returns the encoded audio. If the
// previous recording was stopped automatically at MaxDuration, its result is
// returned instead.
func (r *Recorder) Stop(ctx context.Context) (*Blob, error) {
	r.mu.Lock()
	switch r.state {
	case StateStopping:
		r.mu.Unlock()
		return nil, newError(CodeProcessingInProgress, "a recording is being processed", nil)
	case StateIdle:
		res := r.autoDone
		r.autoDone = nil
		r.mu.Unlock()
		if res != nil {
			return res.blob, res.err
		}
		return nil, newError(CodeNoActiveRecording, "no active recording", nil)
	}
	s := r.sess
	r.state = StateStopping
	r.mu.Unlock()

	blob, err := r.finish(ctx, s)

	r.mu.Lock()
	r.sess = nil
	r.state = StateIdle
	r.mu.Unlock()
	return blob, err
}

// Cancel discards the active recording without encoding it. It is a no-op
// when idle or while a stop is in progress.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	r.autoDone = nil
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	s := r.sess
	r.sess = nil
	r.state = StateIdle
	r.mu.Unlock()

	s.cleanup()
	r.log.Info("recording cancelled")
}

func (r *Recorder) autoStop(s *session) {
	r.mu.Lock()
	if r.sess != s || r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.state = StateStopping
	r.mu.Unlock()

	r.log.Info("maximum recording time reached", "max", r.maxDur)
	blob, err := r.finish(context.Background(), s)

	r.mu.Lock()
	r.sess = nil
	r.state = StateIdle
	r.autoDone = &autoResult{blob: blob, err: err}
	r.mu.Unlock()

	if r.onAutoStop != nil {
		r.onAutoStop(blob, err)
	}
}

// finish stops capture, waits for buffered data and encodes it. The device
// is released on every path.
func (r *Recorder) finish(ctx context.Context, s *session) (*Blob, error) {
	defer s.cleanup()

	s.halt()

	timer := time.NewTimer(r.stopTimeout)
	defer timer.Stop()
	select {
	case <-s.stopped:
	case <-timer.C:
		r.log.Error("recording did not stop in time", "timeout", r.stopTimeout)
		return nil, newError(CodeStopTimeout, "timed out stopping the recording", nil)
	case <-ctx.Done():
		return nil, newError(CodeCancelled, "stop cancelled", ctx.Err())
	}

	pcm, nchunks := s.assemble()
	src := s.stream.Format()
	dst := r.constraints.Format
	if !dst.valid() {
		dst = src
	}
	duration := src.Duration(len(pcm))
	r.log.Debug("assembling recording", "chunks", nchunks, "bytes", len(pcm), "duration", duration)

	if len(pcm) == 0 {
		return &Blob{MIMEType: s.enc.MIMEType(), Format: dst}, nil
	}

	pcm, err := Convert(pcm, src, dst)
	if err != nil {
		return nil, newError(CodeBlobCreation, "cannot convert audio", err)
	}
	data, err := s.enc.Encode(pcm, dst)
	if err != nil {
		return nil, newError(CodeBlobCreation, "cannot encode audio", err)
	}

	r.log.Info("recording stopped", "bytes", len(data), "duration", duration)
	return &Blob{
		Data:     data,
		MIMEType: s.enc.MIMEType(),
		Format:   dst,
		Duration: duration,
	}, nil
}

// session is one open microphone stream and the audio read from it.
type session struct {
	stream Stream
	enc    Encoder
	log    *slog.Logger
	timer  *time.Timer

	quit     chan struct{}
	stopped  chan struct{}
	quitOnce sync.Once
	once     sync.Once

	mu      sync.Mutex
	chunks  [][]byte
	pending []byte
}

func newSession(stream Stream, enc Encoder, chunkEvery time.Duration, log *slog.Logger) *session {
	s := &session{
		stream:  stream,
		enc:     enc,
		log:     log,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run(chunkEvery)
	return s
}

// run reads the stream and moves data into chunks once per interval until
// the session is halted and the reader has drained.
func (s *session) run(chunkEvery time.Duration) {
	defer close(s.stopped)

	data := make(chan []byte, 16)
	readDone := make(chan error, 1)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := s.stream.Read(buf)
			if n > 0 {
				b := make([]byte, n)
				copy(b, buf[:n])
				select {
				case data <- b:
				case <-s.quit:
					// The last read after halt still belongs to the recording.
					select {
					case data <- b:
					default:
						s.log.Warn("dropped audio after stop", "bytes", n)
					}
					readDone <- nil
					return
				}
			}
			if err != nil {
				readDone <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(chunkEvery)
	defer ticker.Stop()

	quit := s.quit
	for {
		select {
		case b := <-data:
			s.mu.Lock()
			s.pending = append(s.pending, b...)
			s.mu.Unlock()
		case <-ticker.C:
			s.flush()
		case err := <-readDone:
			s.drain(data)
			s.flush()
			if err != nil && !errors.Is(err, io.EOF) && !s.halted() {
				s.log.Warn("microphone read failed", "error", err)
			}
			if quit == nil {
				return
			}
			// The source ended before Stop; keep what was captured and
			// wait for Stop.
			<-quit
			return
		case <-quit:
			// The device is released by halt, which unblocks the reader.
			quit = nil
		}
	}
}

func (s *session) drain(data chan []byte) {
	for {
		select {
		case b := <-data:
			s.mu.Lock()
			s.pending = append(s.pending, b...)
			s.mu.Unlock()
		default:
			return
		}
	}
}

func (s *session) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return
	}
	s.chunks = append(s.chunks, s.pending)
	s.pending = nil
}

func (s *session) buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	for _, c := range s.chunks {
		n += len(c)
	}
	return n
}

func (s *session) assemble() ([]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		s.chunks = append(s.chunks, s.pending)
		s.pending = nil
	}
	var n int
	for _, c := range s.chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out, len(s.chunks)
}

func (s *session) halted() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// halt signals the capture loop to finish and releases the device so a
// blocked read returns.
func (s *session) halt() {
	s.quitOnce.Do(func() {
		if s.timer != nil {
			s.timer.Stop()
		}
		close(s.quit)
		if err := s.stream.Close(); err != nil {
			s.log.Debug("closing microphone", "error", err)
		}
	})
}

// cleanup releases the device and drops buffered audio. Safe to call more
// than once.
func (s *session) cleanup() {
	s.once.Do(func() {
		s.halt()
		s.mu.Lock()
		s.chunks = nil
		s.pending = nil
		s.mu.Unlock()
	})
}
