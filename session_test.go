package seaward

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type scriptStep struct {
	data    string
	advance time.Duration
}

// fakeLink plays back a scripted transmission against a fake clock. Once
// the script is exhausted every read is an empty timeout that advances the
// clock by the read timeout, so the quiet deadline eventually fires.
type fakeLink struct {
	clock  *fakeClock
	script []scriptStep
	idx    int
	writes []string

	emptyReads  int
	cancelAfter int
	cancel      context.CancelFunc
	readErr     error
}

func (l *fakeLink) Read(p []byte) (int, error) {
	if l.readErr != nil {
		return 0, l.readErr
	}
	if l.idx < len(l.script) {
		st := l.script[l.idx]
		l.idx++
		l.clock.advance(st.advance)
		return copy(p, st.data), nil
	}
	l.emptyReads++
	if l.cancel != nil && l.emptyReads >= l.cancelAfter {
		l.cancel()
	}
	l.clock.advance(100 * time.Millisecond)
	return 0, nil
}

func (l *fakeLink) Write(p []byte) (int, error) {
	l.writes = append(l.writes, string(p))
	return len(p), nil
}

func (l *fakeLink) Drain() error { return nil }

type memSink struct {
	report []byte
	calls  int
}

func (s *memSink) WriteReport(report []byte) (string, error) {
	s.report = report
	s.calls++
	return "mem://report.csv", nil
}

func newTestSession(link Link, sink Sink, clock *fakeClock, notify func(Event)) *Session {
	s := NewSession(DefaultSessionConfig(), link, sink, nil, notify)
	s.now = clock.now
	s.sleep = clock.advance
	return s
}

const testReport = "Serial no,12345,FileVersion,2\r\nIndex,V1,V2\r\n1,10,20\r\n2,11,21\r\n"

// TestSessionNoDeadlineBeforeLock verifies that the session keeps retrying
// indefinitely while no data has arrived, instead of timing out.
func TestSessionNoDeadlineBeforeLock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	link := &fakeLink{clock: clock, cancelAfter: 500, cancel: cancel}
	sink := &memSink{}

	sess := newTestSession(link, sink, clock, nil)
	res, err := sess.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 500 empty reads span roughly a minute of fake time; the request must
	// have been retried throughout.
	if len(link.writes) < 20 {
		t.Errorf("expected continuous request retries, got %d writes", len(link.writes))
	}
	if link.writes[0] != "SYST:REM\r\n" {
		t.Errorf("first request line = %q", link.writes[0])
	}
	if link.writes[1] != "MEM:DATA? ALL\r\n" {
		t.Errorf("second request line = %q", link.writes[1])
	}
	if len(link.writes)%2 != 0 {
		t.Errorf("request lines must be sent in pairs, got %d writes", len(link.writes))
	}

	if res.Saved {
		t.Error("nothing was received, nothing should be saved")
	}
	if res.TotalBytes != 0 {
		t.Errorf("TotalBytes = %d, expected 0", res.TotalBytes)
	}
	if sess.Phase() != PhaseFinished {
		t.Errorf("Phase = %v, expected PhaseFinished", sess.Phase())
	}
}

func TestSessionQuietTimeoutSavesReport(t *testing.T) {
	clock := newFakeClock()
	link := &fakeLink{
		clock:  clock,
		script: []scriptStep{{data: testReport, advance: 300 * time.Millisecond}},
	}
	sink := &memSink{}

	var events []Event
	sess := newTestSession(link, sink, clock, func(ev Event) { events = append(events, ev) })

	res, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !res.Saved {
		t.Fatal("report should have been saved")
	}
	if res.Path != "mem://report.csv" {
		t.Errorf("Path = %q", res.Path)
	}
	if sink.calls != 1 {
		t.Errorf("sink called %d times, expected once", sink.calls)
	}
	if res.SerialNumber != "12345" {
		t.Errorf("SerialNumber = %q, expected 12345", res.SerialNumber)
	}
	if res.FileVersion != "2" {
		t.Errorf("FileVersion = %q, expected 2", res.FileVersion)
	}
	if res.Readings != 2 {
		t.Errorf("Readings = %d, expected 2", res.Readings)
	}
	if res.TotalBytes != len(testReport) {
		t.Errorf("TotalBytes = %d, expected %d", res.TotalBytes, len(testReport))
	}

	want := "Serial no,12345,FileVersion,2\nIndex,V1,V2\n1,10,20\n2,11,21\n"
	if string(sink.report) != want {
		t.Errorf("saved report = %q, expected %q", sink.report, want)
	}

	// Lock fires exactly once, followed by the visible request re-send
	locks := 0
	for _, ev := range events {
		if ev.Kind == EventLock {
			locks++
		}
	}
	if locks != 1 {
		t.Errorf("EventLock fired %d times, expected once", locks)
	}
	if len(events) < 2 || events[0].Kind != EventLock || events[1].Kind != EventRequestSent {
		t.Error("lock must be followed by the visible request notification")
	}
}

// TestSessionCancelStillProcesses verifies that cancellation during the
// locked phase still runs end-of-session extraction over the captured data.
func TestSessionCancelStillProcesses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	link := &fakeLink{
		clock:       clock,
		script:      []scriptStep{{data: testReport, advance: 300 * time.Millisecond}},
		cancelAfter: 2,
		cancel:      cancel,
	}
	sink := &memSink{}

	sess := newTestSession(link, sink, clock, nil)
	res, err := sess.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !res.Saved {
		t.Error("data captured before cancellation should still be saved")
	}
	if res.Readings != 2 {
		t.Errorf("Readings = %d, expected 2", res.Readings)
	}
}

func TestSessionLinkErrorFatal(t *testing.T) {
	clock := newFakeClock()
	link := &fakeLink{clock: clock, readErr: errors.New("device unplugged")}

	sess := newTestSession(link, &memSink{}, clock, nil)
	_, err := sess.Run(context.Background())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if !strings.Contains(err.Error(), "link read") {
		t.Errorf("error = %v, expected link read wrapping", err)
	}
}

// TestSessionTrailingPartialLine verifies that a final line without its
// terminator still reaches the recognizer during end-of-session processing.
func TestSessionTrailingPartialLine(t *testing.T) {
	data := "Serial no,1,a,b\r\nIndex,V1\r\n1,10\r\n2,11"
	clock := newFakeClock()
	link := &fakeLink{
		clock:  clock,
		script: []scriptStep{{data: data, advance: 200 * time.Millisecond}},
	}
	sink := &memSink{}

	sess := newTestSession(link, sink, clock, nil)
	res, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Readings != 2 {
		t.Errorf("Readings = %d, expected the partial last line to count", res.Readings)
	}
	if res.TotalBytes != len(data) {
		t.Errorf("TotalBytes = %d, expected %d", res.TotalBytes, len(data))
	}
}

// TestSessionChunkedDelivery verifies that lines split across reads are
// reassembled before classification.
func TestSessionChunkedDelivery(t *testing.T) {
	clock := newFakeClock()
	var steps []scriptStep
	for _, chunk := range []string{
		"Serial no,77,File",
		"Version,3\r\nIndex",
		",V1\r\n1,1",
		"0\r\n2,20\r\n",
	} {
		steps = append(steps, scriptStep{data: chunk, advance: 50 * time.Millisecond})
	}
	link := &fakeLink{clock: clock, script: steps}
	sink := &memSink{}

	sess := newTestSession(link, sink, clock, nil)
	res, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.SerialNumber != "77" {
		t.Errorf("SerialNumber = %q, expected 77", res.SerialNumber)
	}
	if res.FileVersion != "3" {
		t.Errorf("FileVersion = %q, expected 3", res.FileVersion)
	}
	if res.Readings != 2 {
		t.Errorf("Readings = %d, expected 2", res.Readings)
	}
}
