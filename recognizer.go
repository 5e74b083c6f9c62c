package seaward

import (
	"regexp"
	"strings"
)

// Classification patterns shared in spirit (but not state) with the batch
// extractor: the recognizer works on partial data while the transmission is
// still in progress, the extractor re-scans the finished buffer.
var (
	reSerialLine  = regexp.MustCompile(`(?i)^\s*serial\s*no\s*,`)
	reHeaderLine  = regexp.MustCompile(`(?i)^\s*index\s*,`)
	reReadingLine = regexp.MustCompile(`^\s*\d+\s*,`)
)

// EventKind discriminates session progress events.
type EventKind int

const (
	// EventLock fires once, when the first byte arrives.
	EventLock EventKind = iota
	// EventRequestSent fires for the single user-visible request re-send on
	// the lock edge. Periodic retries stay silent.
	EventRequestSent
	// EventSerialNumber carries the meter serial number in Text.
	EventSerialNumber
	// EventFileVersion carries the report file version in Text.
	EventFileVersion
	// EventHeader carries the full column header line in Text.
	EventHeader
	// EventReading carries the 1-based reading index and the raw byte length
	// of the line, terminator included.
	EventReading
)

// Event is a single progress notification from a running capture.
type Event struct {
	Kind    EventKind
	Text    string
	Reading int
	Bytes   int
}

// Recognizer incrementally classifies report lines as they arrive on the
// wire. State only moves forward: once the serial line or the column header
// has been seen, later lines are never reclassified backwards.
type Recognizer struct {
	SerialSeen   bool
	SerialNumber string
	FileVersion  string
	HeaderSeen   bool
	Readings     int

	notify func(Event)
}

// NewRecognizer returns a recognizer that reports progress through notify.
// A nil notify is allowed and silences progress reporting.
func NewRecognizer(notify func(Event)) *Recognizer {
	return &Recognizer{notify: notify}
}

func (r *Recognizer) emit(ev Event) {
	if r.notify != nil {
		r.notify(ev)
	}
}

// OnLine consumes one complete line with its terminator stripped. rawLen is
// the byte length of the raw line including the terminator. Blank and
// whitespace-only lines are inert; lines that match no active rule are
// ignored without advancing any state.
func (r *Recognizer) OnLine(line string, rawLen int) {
	s := strings.Trim(line, "\r\n")
	if strings.TrimSpace(s) == "" {
		return
	}

	switch {
	case !r.SerialSeen && reSerialLine.MatchString(s):
		toks := strings.Split(s, ",")
		for i := range toks {
			toks[i] = strings.TrimSpace(toks[i])
		}
		// Scan adjacent token pairs: "Serial no,123,FileVersion,2" style.
		for i := 0; i+1 < len(toks); i++ {
			key := strings.ToLower(toks[i])
			if strings.HasPrefix(key, "serial") {
				r.SerialNumber = toks[i+1]
			}
			if strings.HasPrefix(key, "fileversion") {
				r.FileVersion = toks[i+1]
			}
		}
		r.SerialSeen = true
		if r.SerialNumber != "" {
			r.emit(Event{Kind: EventSerialNumber, Text: r.SerialNumber})
		}
		if r.FileVersion != "" {
			r.emit(Event{Kind: EventFileVersion, Text: r.FileVersion})
		}

	case r.SerialSeen && !r.HeaderSeen && reHeaderLine.MatchString(s):
		r.HeaderSeen = true
		r.emit(Event{Kind: EventHeader, Text: s})

	case r.HeaderSeen && reReadingLine.MatchString(s):
		r.Readings++
		r.emit(Event{Kind: EventReading, Reading: r.Readings, Bytes: rawLen})
	}
}
