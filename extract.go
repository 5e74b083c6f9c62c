package seaward

import (
	"bytes"
	"regexp"
	"strings"
)

var (
	reSerialStart = regexp.MustCompile(`(?im)^serial\s*no\s*,`)
	reBlockEnd    = regexp.MustCompile(`\n{2,}|\n--END--`)
)

// asciiish reports whether at least 85% of the buffer is printable ASCII,
// counting tab, newline and carriage return as printable.
func asciiish(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	good := 0
	for _, b := range buf {
		if (b >= 32 && b < 127) || b == '\t' || b == '\n' || b == '\r' {
			good++
		}
	}
	return float64(good)/float64(len(buf)) >= 0.85
}

// Extract carves a validated report block out of the complete raw capture.
// It is independent of the streaming recognizer and re-scans from scratch.
// The second return value is false when the buffer does not hold a report;
// that is a legitimate outcome, not an error.
//
// The block runs from the first serial-number line to the first blank-line
// pair or --END-- marker, trimmed of trailing control characters and
// terminated by exactly one newline.
func Extract(raw []byte) ([]byte, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	if bytes.Count(raw, []byte{','}) < 5 {
		return nil, false
	}
	if !bytes.Contains(raw, []byte("Serial no")) && !bytes.Contains(raw, []byte("Serial No")) {
		return nil, false
	}
	if !bytes.Contains(raw, []byte("Index,")) {
		return nil, false
	}
	if !asciiish(raw) {
		return nil, false
	}

	// Permissive decode: invalid bytes pass through untouched and get
	// dropped with the trailing trim or ignored by the pattern matches.
	txt := strings.ReplaceAll(string(raw), "\r\n", "\n")
	txt = strings.ReplaceAll(txt, "\r", "\n")

	loc := reSerialStart.FindStringIndex(txt)
	if loc == nil {
		return nil, false
	}
	body := txt[loc[0]:]
	if cut := reBlockEnd.FindStringIndex(body); cut != nil {
		body = body[:cut[0]]
	}
	body = strings.TrimRight(body, "\x00 \t\r\n")
	if body == "" {
		return nil, false
	}
	return []byte(body + "\n"), true
}
