package processor

import (
	"math"
	"sort"
)

// neighborhoodSlots bounds the better-slot scan to 4 slots either side of
// the reference, a two hour window at half-hour granularity.
const neighborhoodSlots = 4

// Alternative is one nearby slot that is materially less crowded than the
// reference slot.
type Alternative struct {
	Slot      string  `json:"slot"`
	Label     string  `json:"label"`      // canonical "HH:MM"
	OffsetMin int     `json:"offset_min"` // signed minutes from the reference; negative = earlier
	Value     float64 `json:"value"`
	Drop      float64 `json:"drop"` // crowding reduction in %p
}

// BetterSlots scans the neighborhood of ref in one row's crowding vector
// and returns every slot whose value undercuts the reference by strictly
// more than threshold percentage points. The neighborhood truncates at the
// column boundaries instead of wrapping. Results are ordered by descending
// drop; ties keep slot order. An empty result means the reference slot is
// already as good as it gets nearby.
func BetterSlots(row []float64, slots []string, ref string, threshold float64) []Alternative {
	refIdx := -1
	for i, s := range slots {
		if s == ref {
			refIdx = i
			break
		}
	}
	if refIdx < 0 || refIdx >= len(row) {
		return nil
	}
	refVal := row[refIdx]
	if math.IsNaN(refVal) {
		return nil
	}
	refMin, err := SlotMinutes(ref)
	if err != nil {
		return nil
	}

	lo := refIdx - neighborhoodSlots
	if lo < 0 {
		lo = 0
	}
	hi := refIdx + neighborhoodSlots
	if hi > len(slots)-1 {
		hi = len(slots) - 1
	}

	var out []Alternative
	for i := lo; i <= hi; i++ {
		if i == refIdx || i >= len(row) {
			continue
		}
		v := row[i]
		if math.IsNaN(v) {
			continue
		}
		if v >= refVal-threshold {
			continue
		}
		m, err := SlotMinutes(slots[i])
		if err != nil {
			continue
		}
		out = append(out, Alternative{
			Slot:      slots[i],
			Label:     CanonicalLabel(slots[i]),
			OffsetMin: m - refMin,
			Value:     v,
			Drop:      refVal - v,
		})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Drop > out[b].Drop })
	return out
}
