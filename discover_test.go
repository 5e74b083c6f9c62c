package seaward

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeEnumerator plays back a sequence of enumeration snapshots. The last
// snapshot repeats once the sequence is exhausted.
type fakeEnumerator struct {
	snapshots [][]Signature
	idx       int
}

func (e *fakeEnumerator) Enumerate() ([]Signature, error) {
	if e.idx < len(e.snapshots) {
		s := e.snapshots[e.idx]
		e.idx++
		return s, nil
	}
	if len(e.snapshots) == 0 {
		return nil, nil
	}
	return e.snapshots[len(e.snapshots)-1], nil
}

// scriptedConfirmer answers each presented candidate from a script and
// records what it was shown.
type scriptedConfirmer struct {
	answers   []bool
	presented []Signature
}

func (c *scriptedConfirmer) Confirm(sig Signature) (bool, error) {
	c.presented = append(c.presented, sig)
	if len(c.answers) == 0 {
		return false, nil
	}
	ans := c.answers[0]
	c.answers = c.answers[1:]
	return ans, nil
}

func testDiscoverConfig() DiscoverConfig {
	return DiscoverConfig{PollInterval: time.Millisecond, Preferred: DefaultPreferred()}
}

var (
	sigMeter = Signature{
		Device: "/dev/ttyUSB0",
		VID:    "0x10C4",
		PID:    "0xEA60",
		HWID:   "USB VID:PID=10C4:EA60 SER=0001",
	}
	sigOther = Signature{
		Device: "/dev/ttyUSB1",
		VID:    "0x0403",
		PID:    "0x6010",
		HWID:   "USB VID:PID=0403:6010 SER=FT1",
	}
	sigOnboard = Signature{Device: "/dev/ttyS0", Description: "Standard Serial Port"}
)

func TestDiscoverRankedPresentation(t *testing.T) {
	enum := &fakeEnumerator{snapshots: [][]Signature{
		{sigOnboard, sigOther, sigMeter},
	}}
	confirm := &scriptedConfirmer{answers: []bool{true}}

	d := NewDiscoverer(testDiscoverConfig(), enum, confirm, nil)
	sig, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if sig.Device != sigMeter.Device {
		t.Errorf("confirmed %s, expected the ranked best %s", sig.Device, sigMeter.Device)
	}
	// The highest ranked candidate is shown first and confirmation
	// short-circuits: the weaker candidate is never presented.
	if len(confirm.presented) != 1 {
		t.Fatalf("presented %d candidates, expected 1", len(confirm.presented))
	}
	// Non-USB ports never reach the operator
	for _, p := range confirm.presented {
		if !p.IsUSBSerial() {
			t.Errorf("non-USB port %s should not be presented", p.Device)
		}
	}
}

func TestDiscoverRejectedStaysIgnored(t *testing.T) {
	enum := &fakeEnumerator{snapshots: [][]Signature{
		{sigOther},           // initial: rejected
		{sigOther},           // poll 1: unchanged, nothing new
		{sigOther, sigMeter}, // poll 2: meter plugged in
	}}
	confirm := &scriptedConfirmer{answers: []bool{false, true}}

	d := NewDiscoverer(testDiscoverConfig(), enum, confirm, nil)
	sig, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if sig.Device != sigMeter.Device {
		t.Errorf("confirmed %s, expected %s", sig.Device, sigMeter.Device)
	}
	if len(confirm.presented) != 2 {
		t.Fatalf("presented %d candidates, expected 2", len(confirm.presented))
	}
	if confirm.presented[0].Device != sigOther.Device {
		t.Errorf("first presented %s, expected %s", confirm.presented[0].Device, sigOther.Device)
	}
	if confirm.presented[1].Device != sigMeter.Device {
		t.Errorf("second presented %s, expected the hot-plugged meter", confirm.presented[1].Device)
	}
}

// TestDiscoverChangedIdentity verifies that a reused device path carrying a
// different hardware identity is treated as a new device.
func TestDiscoverChangedIdentity(t *testing.T) {
	swapped := sigOther
	swapped.Device = sigMeter.Device // same path as the rejected device
	swapped.HWID = "USB VID:PID=0403:6010 SER=FT2"

	enum := &fakeEnumerator{snapshots: [][]Signature{
		{sigMeter}, // initial: rejected
		{swapped},  // same path, different hardware behind it
	}}
	confirm := &scriptedConfirmer{answers: []bool{false, true}}

	d := NewDiscoverer(testDiscoverConfig(), enum, confirm, nil)
	sig, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if sig.HWID != swapped.HWID {
		t.Errorf("confirmed %q, expected the replacement device", sig.HWID)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	enum := &fakeEnumerator{snapshots: [][]Signature{{sigOther}}}
	confirm := &scriptedConfirmer{} // rejects everything

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	d := NewDiscoverer(testDiscoverConfig(), enum, confirm, nil)
	_, err := d.Discover(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("error = %v, expected ErrCancelled", err)
	}
}

func TestNewOrChanged(t *testing.T) {
	tests := []struct {
		name     string
		now      []Signature
		seen     []Signature
		expected []string
	}{
		{
			name:     "nothing changed",
			now:      []Signature{sigMeter, sigOther},
			seen:     []Signature{sigMeter, sigOther},
			expected: nil,
		},
		{
			name:     "new device",
			now:      []Signature{sigOther, sigMeter},
			seen:     []Signature{sigOther},
			expected: []string{sigMeter.Device},
		},
		{
			name: "changed identity under reused path",
			now: []Signature{{
				Device: sigMeter.Device,
				VID:    "0x0403",
				PID:    "0x6010",
				HWID:   "USB VID:PID=0403:6010 SER=FT9",
			}},
			seen:     []Signature{sigMeter},
			expected: []string{sigMeter.Device},
		},
		{
			name:     "non-usb appearance ignored",
			now:      []Signature{sigOther, sigOnboard},
			seen:     []Signature{sigOther},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh := newOrChanged(tt.now, tt.seen)
			var got []string
			for _, sig := range fresh {
				got = append(got, sig.Device)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("newOrChanged() = %v, expected %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("newOrChanged()[%d] = %s, expected %s", i, got[i], tt.expected[i])
				}
			}
		})
	}
}
