package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Slot labels appear in two spellings depending on the dataset export:
// "7시30분" and "07:30". Both carry an hour marker and a minute marker.
var slotLabelRe = regexp.MustCompile(`^\s*(\d{1,2})\s*(?:시|:)\s*(\d{1,2})\s*분?\s*$`)

// ParseError reports a column label that is not a valid time slot.
type ParseError struct {
	Label string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("not a time-slot label: %q", e.Label)
}

// IsSlotLabel reports whether a column label denotes a half-hour slot.
func IsSlotLabel(s string) bool {
	return slotLabelRe.MatchString(s)
}

// SlotMinutes maps a slot label to a sortable minute count. The service day
// starts at 05:30 and wraps past midnight, so hours below 5 count as the
// next calendar day and sort after 23:30. The value is only used for
// ordering and distance, never displayed.
func SlotMinutes(label string) (int, error) {
	m := slotLabelRe.FindStringSubmatch(label)
	if m == nil {
		return 0, &ParseError{Label: label}
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 23 || min > 59 {
		return 0, &ParseError{Label: label}
	}
	if h < 5 {
		h += 24
	}
	return h*60 + min, nil
}

// CanonicalLabel renders a slot label as "HH:MM" for chart axes and API
// payloads. Unparseable labels pass through unchanged.
func CanonicalLabel(label string) string {
	m := slotLabelRe.FindStringSubmatch(label)
	if m == nil {
		return label
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%02d:%02d", h, min)
}

// NearestSlot returns the slot closest to the wall-clock time under the
// same wrap rule as SlotMinutes. Ties keep the first slot in column order.
// ok is false only when no slot label could be used.
func NearestSlot(now time.Time, slots []string) (slot string, ok bool) {
	cur := now.Hour()*60 + now.Minute()
	if now.Hour() < 5 {
		cur += 24 * 60
	}

	bestDiff := -1
	for _, s := range slots {
		m, err := SlotMinutes(s)
		if err != nil {
			continue
		}
		d := m - cur
		if d < 0 {
			d = -d
		}
		if bestDiff < 0 || d < bestDiff {
			slot, bestDiff = s, d
		}
	}
	return slot, bestDiff >= 0
}
