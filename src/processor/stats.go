package processor

import (
	"math"
	"sort"
)

// SlotMean is the mean crowding of one slot over the selected rows.
// Count is the number of non-missing cells that entered the mean.
type SlotMean struct {
	Slot  string  `json:"slot"`
	Label string  `json:"label"` // canonical "HH:MM" form
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// RankedRow is one row scored by its peak crowding.
type RankedRow struct {
	Row      RowInfo `json:"row"`
	Peak     float64 `json:"peak"`
	PeakSlot string  `json:"peak_slot"`
}

// OverallMean averages every non-missing cell of the selection across rows
// and slots. ok is false when the selection has no numeric cell at all.
func (s Selection) OverallMean() (float64, bool) {
	var sum float64
	var n int
	for _, i := range s.rows {
		for _, v := range s.t.vals[i] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MaxValue finds the single highest cell of the selection and the slot it
// occurs in. Ties keep the earlier row, then the earlier slot.
func (s Selection) MaxValue() (val float64, slot string, ok bool) {
	val = math.Inf(-1)
	for _, i := range s.rows {
		for j, v := range s.t.vals[i] {
			if math.IsNaN(v) {
				continue
			}
			if v > val {
				val, slot, ok = v, s.t.slots[j], true
			}
		}
	}
	if !ok {
		return 0, "", false
	}
	return val, slot, true
}

// MeanBySlot computes one mean per slot column over the selected rows,
// excluding missing cells. Slots with no data carry Count == 0 and a NaN
// mean so callers can render an explicit gap instead of a zero.
func (s Selection) MeanBySlot() []SlotMean {
	out := make([]SlotMean, len(s.t.slots))
	for j, slot := range s.t.slots {
		var sum float64
		var n int
		for _, i := range s.rows {
			v := s.t.vals[i][j]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		m := math.NaN()
		if n > 0 {
			m = sum / float64(n)
		}
		out[j] = SlotMean{Slot: slot, Label: CanonicalLabel(slot), Mean: m, Count: n}
	}
	return out
}

// PeakSlot returns the slot with the highest mean over the selection.
// Ties keep the first slot in column order.
func (s Selection) PeakSlot() (SlotMean, bool) {
	return s.extremeSlot(func(a, b float64) bool { return a > b })
}

// OffPeakSlot returns the slot with the lowest mean over the selection.
func (s Selection) OffPeakSlot() (SlotMean, bool) {
	return s.extremeSlot(func(a, b float64) bool { return a < b })
}

func (s Selection) extremeSlot(better func(a, b float64) bool) (SlotMean, bool) {
	means := s.MeanBySlot()
	var best SlotMean
	found := false
	for _, m := range means {
		if m.Count == 0 {
			continue
		}
		if !found || better(m.Mean, best.Mean) {
			best = m
			found = true
		}
	}
	return best, found
}

// RowPeak returns the maximum value of one row and the slot achieving it.
// Ties keep the first slot in column order. ok is false when the whole row
// is missing.
func (t *Table) RowPeak(row int) (slot string, val float64, ok bool) {
	val = math.Inf(-1)
	for j, v := range t.vals[row] {
		if math.IsNaN(v) {
			continue
		}
		if v > val {
			val, slot, ok = v, t.slots[j], true
		}
	}
	if !ok {
		return "", 0, false
	}
	return slot, val, true
}

// RowMin returns the minimum value of one row and its slot.
func (t *Table) RowMin(row int) (slot string, val float64, ok bool) {
	val = math.Inf(1)
	for j, v := range t.vals[row] {
		if math.IsNaN(v) {
			continue
		}
		if v < val {
			val, slot, ok = v, t.slots[j], true
		}
	}
	if !ok {
		return "", 0, false
	}
	return slot, val, true
}

// RowMean averages the non-missing values of one row.
func (t *Table) RowMean(row int) (float64, bool) {
	var sum float64
	var n int
	for _, v := range t.vals[row] {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// TopN ranks the selected rows by their peak value, descending. Rows with
// no numeric cell are excluded; ties keep the selection order, so the
// ranking is stable and idempotent.
func (s Selection) TopN(n int) []RankedRow {
	ranked := make([]RankedRow, 0, len(s.rows))
	for _, i := range s.rows {
		slot, peak, ok := s.t.RowPeak(i)
		if !ok {
			continue
		}
		ranked = append(ranked, RankedRow{Row: s.t.RowInfo(i), Peak: peak, PeakSlot: slot})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Peak > ranked[b].Peak })
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// MeanForHours averages every cell of the selection whose slot falls in one
// of the given wall-clock hours (e.g. 7,8,9 for the morning rush).
func (s Selection) MeanForHours(hours []int) (float64, bool) {
	want := make(map[int]struct{}, len(hours))
	for _, h := range hours {
		want[h] = struct{}{}
	}

	var sum float64
	var n int
	for j, slot := range s.t.slots {
		h := (s.t.minutes[slot] / 60) % 24
		if _, ok := want[h]; !ok {
			continue
		}
		for _, i := range s.rows {
			v := s.t.vals[i][j]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
