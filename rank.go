package seaward

import (
	"sort"
	"strings"
)

// Preferred identifies the adapter the ranker should favour. The Seaward
// 200/210 meters ship with a Silicon Labs CP2102 USB-UART bridge.
type Preferred struct {
	VID        string // normalized "0xXXXX"
	PID        string // normalized "0xXXXX"
	ChipMarker string // upper-case substring matched against product/description
	Vendor     string // upper-case substring matched against manufacturer
}

// DefaultPreferred returns the CP2102 profile.
func DefaultPreferred() Preferred {
	return Preferred{
		VID:        "0x10C4",
		PID:        "0xEA60",
		ChipMarker: "CP2102",
		Vendor:     "SILICON LABS",
	}
}

// Score ranks a signature by how likely it is to be the meter. Higher is
// more likely. The exact VID:PID match dominates every other signal; weaker
// evidence only ever adds to the score.
func Score(sig Signature, pref Preferred) int {
	score := 0

	prod := strings.ToUpper(sig.Product)
	desc := strings.ToUpper(sig.Description)
	manuf := strings.ToUpper(sig.Manufacturer)
	dev := strings.ToLower(sig.Device)

	if pref.VID != "" && sig.VID == pref.VID && sig.PID == pref.PID {
		score += 100
	}
	if pref.ChipMarker != "" && (strings.Contains(prod, pref.ChipMarker) || strings.Contains(desc, pref.ChipMarker)) {
		score += 30
	}
	if pref.Vendor != "" && strings.Contains(manuf, pref.Vendor) {
		score += 20
	}
	if strings.HasPrefix(dev, "/dev/ttyusb") {
		score += 5
	}
	if strings.Contains(desc, "USB") {
		score += 2
	}
	return score
}

// Rank returns the candidates sorted descending by score. The sort is
// stable: candidates with equal scores keep their enumeration order.
func Rank(sigs []Signature, pref Preferred) []Signature {
	out := make([]Signature, len(sigs))
	copy(out, sigs)
	sort.SliceStable(out, func(i, j int) bool {
		return Score(out[i], pref) > Score(out[j], pref)
	})
	return out
}
