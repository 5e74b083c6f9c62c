package seaward

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RequestLines is the fixed request sequence that switches the meter into
// remote mode and asks for the full memory dump. It is sent periodically
// until the session ends; the meter ignores repeats once transmitting.
var RequestLines = [][]byte{
	[]byte("SYST:REM\r\n"),
	[]byte("MEM:DATA? ALL\r\n"),
}

// Phase is the capture session state. Transitions are monotonic:
// AwaitingFirstByte -> Locked -> Finished.
type Phase int

const (
	PhaseAwaitingFirstByte Phase = iota
	PhaseLocked
	PhaseFinished
)

// Link is the transport the session drives. Read must return (0, nil) when
// no data arrives within the link's configured read timeout so the loop can
// keep servicing request retries and cancellation.
type Link interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Drain() error
}

// Sink persists a finished report block. WriteReport is called at most once
// per session, and only when a report was detected.
type Sink interface {
	WriteReport(report []byte) (path string, err error)
}

// SessionConfig holds the capture timing policy.
type SessionConfig struct {
	RequestPeriod  time.Duration // cadence of the silent request retries
	QuietTimeout   time.Duration // inactivity window, applies only after lock
	InterLineDelay time.Duration // pause between the two request lines
	IdleSleep      time.Duration // poll sleep when a read returns nothing
	ReadBuffer     int
}

// DefaultSessionConfig matches the meter's observed timing: requests every
// second, 5 s of silence means the dump is complete.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		RequestPeriod:  time.Second,
		QuietTimeout:   5 * time.Second,
		InterLineDelay: 20 * time.Millisecond,
		IdleSleep:      20 * time.Millisecond,
		ReadBuffer:     4096,
	}
}

// Result summarizes one finished capture session.
type Result struct {
	Saved        bool
	Path         string
	SerialNumber string
	FileVersion  string
	Readings     int
	TotalBytes   int
}

// Session owns one capture run against a confirmed device. The raw buffer
// and recognizer state belong exclusively to the session for its lifetime.
type Session struct {
	cfg    SessionConfig
	link   Link
	sink   Sink
	log    *zap.SugaredLogger
	notify func(Event)

	phase      Phase
	raw        bytes.Buffer
	pending    []byte
	totalBytes int
	rec        *Recognizer

	now   func() time.Time
	sleep func(time.Duration)
}

// NewSession wires a session to an already-open link. notify may be nil;
// sink may be nil when the caller only wants the recognizer results.
func NewSession(cfg SessionConfig, link Link, sink Sink, log *zap.SugaredLogger, notify func(Event)) *Session {
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = 4096
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Session{
		cfg:    cfg,
		link:   link,
		sink:   sink,
		log:    log,
		notify: notify,
		rec:    NewRecognizer(notify),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Phase returns the current session phase.
func (s *Session) Phase() Phase { return s.phase }

func (s *Session) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

// writeRequest sends the two request lines, flushing each and pausing
// briefly between them. Any transport fault is fatal to the session.
func (s *Session) writeRequest() error {
	for _, line := range RequestLines {
		if _, err := s.link.Write(line); err != nil {
			return fmt.Errorf("link write: %w", err)
		}
		if err := s.link.Drain(); err != nil {
			return fmt.Errorf("link drain: %w", err)
		}
		s.sleep(s.cfg.InterLineDelay)
	}
	return nil
}

// Run drives the request/read loop until the quiet timeout fires or ctx is
// cancelled. Cancellation is an orderly stop, not an error: end-of-session
// processing still runs over whatever was captured. Transport faults abort
// immediately and are returned to the caller.
func (s *Session) Run(ctx context.Context) (Result, error) {
	buf := make([]byte, s.cfg.ReadBuffer)
	var lastReq, lastData time.Time

	s.log.Debugw("capture session started",
		"request_period", s.cfg.RequestPeriod,
		"quiet_timeout", s.cfg.QuietTimeout)

loop:
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("capture interrupted", "bytes", s.totalBytes)
			break loop
		default:
		}

		now := s.now()
		if now.Sub(lastReq) >= s.cfg.RequestPeriod {
			if err := s.writeRequest(); err != nil {
				return Result{}, err
			}
			lastReq = now
		}

		n, err := s.link.Read(buf)
		if err != nil {
			return Result{}, fmt.Errorf("link read: %w", err)
		}

		if n > 0 {
			if s.phase == PhaseAwaitingFirstByte {
				s.phase = PhaseLocked
				s.log.Debugw("first byte observed, session locked")
				s.emit(Event{Kind: EventLock})
				// One visible re-send on the lock edge; the periodic
				// retries stay silent.
				if err := s.writeRequest(); err != nil {
					return Result{}, err
				}
				s.emit(Event{Kind: EventRequestSent})
			}
			chunk := buf[:n]
			s.raw.Write(chunk)
			s.pending = append(s.pending, chunk...)
			s.totalBytes += n
			lastData = s.now()
			s.drainLines()
			continue
		}

		switch s.phase {
		case PhaseAwaitingFirstByte:
			// No deadline before the first byte: the meter sits idle until
			// the operator starts the transmission, however long that takes.
			s.sleep(s.cfg.IdleSleep)
		case PhaseLocked:
			if now.Sub(lastData) >= s.cfg.QuietTimeout {
				s.log.Infow("quiet timeout, transmission complete",
					"quiet", s.cfg.QuietTimeout, "bytes", s.totalBytes)
				break loop
			}
			s.sleep(s.cfg.IdleSleep)
		}
	}

	s.phase = PhaseFinished
	return s.finish()
}

// drainLines feeds complete lines from the pending buffer to the recognizer.
func (s *Session) drainLines() {
	for {
		nl := bytes.IndexByte(s.pending, '\n')
		if nl < 0 {
			return
		}
		raw := s.pending[:nl+1]
		line := strings.TrimSuffix(strings.ReplaceAll(string(raw), "\r", ""), "\n")
		s.rec.OnLine(line, len(raw))
		s.pending = s.pending[nl+1:]
	}
}

// finish runs end-of-session processing exactly once: the trailing partial
// line still goes through the recognizer, then the extractor re-scans the
// full buffer and a detected report is persisted.
func (s *Session) finish() (Result, error) {
	if len(s.pending) > 0 && !bytes.ContainsRune(s.pending, '\n') {
		line := strings.ReplaceAll(string(s.pending), "\r", "")
		s.rec.OnLine(line, len(s.pending))
	}

	res := Result{
		SerialNumber: s.rec.SerialNumber,
		FileVersion:  s.rec.FileVersion,
		Readings:     s.rec.Readings,
		TotalBytes:   s.totalBytes,
	}

	report, ok := Extract(s.raw.Bytes())
	if !ok {
		s.log.Infow("no report detected", "bytes", s.totalBytes)
		return res, nil
	}
	if s.sink == nil {
		return res, nil
	}
	path, err := s.sink.WriteReport(report)
	if err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	res.Saved = true
	res.Path = path
	s.log.Infow("report saved", "path", path, "readings", res.Readings, "bytes", res.TotalBytes)
	return res, nil
}
