package seaward

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Enumerator lists the serial interfaces currently present on the system.
type Enumerator interface {
	Enumerate() ([]Signature, error)
}

// Confirmer asks the operator whether a candidate is the meter.
// Implementations may block indefinitely; a scripted policy stands in
// during tests.
type Confirmer interface {
	Confirm(Signature) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(Signature) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(sig Signature) (bool, error) { return f(sig) }

// DiscoverConfig holds the discovery policy.
type DiscoverConfig struct {
	PollInterval time.Duration
	Preferred    Preferred
}

// DefaultDiscoverConfig polls once a second for hot-plugged devices.
func DefaultDiscoverConfig() DiscoverConfig {
	return DiscoverConfig{PollInterval: time.Second, Preferred: DefaultPreferred()}
}

// Discoverer finds the meter among the attached USB-serial interfaces,
// interactively when several are plausible. Rejected devices are remembered
// for the lifetime of the discoverer and never presented again under the
// same key.
type Discoverer struct {
	cfg     DiscoverConfig
	enum    Enumerator
	confirm Confirmer
	log     *zap.SugaredLogger
	ignored map[string]struct{}
}

// NewDiscoverer wires a discoverer to an enumerator and a confirmation
// policy.
func NewDiscoverer(cfg DiscoverConfig, enum Enumerator, confirm Confirmer, log *zap.SugaredLogger) *Discoverer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Discoverer{
		cfg:     cfg,
		enum:    enum,
		confirm: confirm,
		log:     log,
		ignored: make(map[string]struct{}),
	}
}

// Discover blocks until the operator confirms a candidate, presenting the
// ranked candidates from an initial enumeration pass and then watching for
// hot-plugged or changed interfaces. There is no overall timeout; the loop
// ends only on confirmation or cancellation.
func (d *Discoverer) Discover(ctx context.Context) (Signature, error) {
	sigs, err := d.enum.Enumerate()
	if err != nil {
		return Signature{}, fmt.Errorf("enumerate ports: %w", err)
	}
	d.log.Debugw("initial enumeration", "ports", len(sigs))

	if sig, ok, err := d.present(candidates(sigs, d.cfg.Preferred)); err != nil {
		return Signature{}, err
	} else if ok {
		return sig, nil
	}

	// Hot-plug loop: only interfaces that are new, or whose hardware
	// identity changed under a reused path, are presented.
	seen := sigs
	for {
		select {
		case <-ctx.Done():
			return Signature{}, ErrCancelled
		case <-time.After(d.cfg.PollInterval):
		}

		nowList, err := d.enum.Enumerate()
		if err != nil {
			return Signature{}, fmt.Errorf("enumerate ports: %w", err)
		}

		fresh := newOrChanged(nowList, seen)
		if len(fresh) > 0 {
			d.log.Debugw("new or changed interfaces", "count", len(fresh))
			if sig, ok, err := d.present(Rank(fresh, d.cfg.Preferred)); err != nil {
				return Signature{}, err
			} else if ok {
				return sig, nil
			}
		}

		// The snapshot advances even past ignored or undecided interfaces:
		// anything present this poll counts as seen next poll.
		seen = nowList
	}
}

// present walks the ranked candidates most-likely first, skipping ignored
// keys, and short-circuits on the first confirmation.
func (d *Discoverer) present(cands []Signature) (Signature, bool, error) {
	for _, sig := range cands {
		k := sig.Key()
		if _, skip := d.ignored[k]; skip {
			continue
		}
		ok, err := d.confirm.Confirm(sig)
		if err != nil {
			return Signature{}, false, err
		}
		if ok {
			d.log.Infow("device confirmed", "device", sig.Device, "hwid", sig.HWID)
			return sig, true, nil
		}
		d.ignored[k] = struct{}{}
		d.log.Debugw("device rejected", "device", sig.Device, "key", k)
	}
	return Signature{}, false, nil
}

// candidates filters to plausible USB-serial interfaces and ranks them.
func candidates(sigs []Signature, pref Preferred) []Signature {
	var c []Signature
	for _, s := range sigs {
		if s.IsUSBSerial() {
			c = append(c, s)
		}
	}
	return Rank(c, pref)
}

// newOrChanged returns the USB-serial interfaces that were not present in
// the previous poll. When nothing is outright new, a reused path carrying a
// different hardware identity counts as changed: that is a different
// physical device behind the same OS-assigned path.
func newOrChanged(now, seen []Signature) []Signature {
	var fresh []Signature
	for _, sig := range now {
		if !sig.IsUSBSerial() {
			continue
		}
		known := false
		for _, old := range seen {
			if sig.SamePort(old) {
				known = true
				break
			}
		}
		if !known {
			fresh = append(fresh, sig)
		}
	}
	if len(fresh) > 0 {
		return fresh
	}

	for _, sig := range now {
		if !sig.IsUSBSerial() {
			continue
		}
		for _, old := range seen {
			if sig.Device == old.Device && sig.HWID != old.HWID {
				fresh = append(fresh, sig)
				break
			}
		}
	}
	return fresh
}
