package seaward

import "strings"

// Signature is an immutable snapshot of one serial interface at enumeration
// time. Signatures are compared only by value; a fresh set is built on every
// enumeration poll.
type Signature struct {
	Device       string // device node path, e.g. /dev/ttyUSB0
	Name         string // short name, e.g. ttyUSB0
	Description  string
	HWID         string // composite hardware identity, empty for non-USB ports
	Manufacturer string
	Product      string
	SerialNumber string
	VID          string // normalized "0xXXXX", empty when unknown
	PID          string // normalized "0xXXXX", empty when unknown
	Location     string // physical bus path, e.g. 1-2.3:1.0
	Interface    string // USB interface index
}

// SamePort reports whether two signatures describe the same physical port.
// Path equality alone is not enough: the OS can hand a reused path to a
// different physical device across hot-plug events, so the hardware identity
// must match as well.
func (s Signature) SamePort(o Signature) bool {
	return s.Device == o.Device && s.HWID == o.HWID
}

// Key identifies a signature in the ignore set. The hardware identity wins
// when present so that a rejected device stays rejected even if its path
// moves; ports without USB metadata fall back to the path.
func (s Signature) Key() string {
	if s.HWID != "" {
		return s.HWID
	}
	return s.Device
}

// IsUSBSerial reports whether the interface plausibly is a USB-serial
// adapter: it carries a vendor/product ID pair, sits on a USB device path,
// or mentions USB in its descriptive text.
func (s Signature) IsUSBSerial() bool {
	if s.VID != "" && s.PID != "" {
		return true
	}
	dev := strings.ToLower(s.Device)
	if strings.HasPrefix(dev, "/dev/ttyusb") || strings.HasPrefix(dev, "/dev/ttyacm") {
		return true
	}
	text := strings.ToUpper(s.Description + " " + s.Product)
	return strings.Contains(text, "USB")
}
