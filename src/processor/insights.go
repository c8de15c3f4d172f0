package processor

import "time"

// DayMean is the overall mean of one day type inside a selection.
type DayMean struct {
	DayType string  `json:"day_type"`
	Mean    float64 `json:"mean"`
}

// Insights bundles everything the report and the stats endpoint need from
// one selection: headline aggregates, peak/off-peak slots, the top ranked
// rows and the day-type comparison.
type Insights struct {
	Records      int         `json:"records"`
	StationCount int         `json:"station_count"`
	LineCount    int         `json:"line_count"`
	OverallMean  float64     `json:"overall_mean"`
	MaxValue     float64     `json:"max_value"`
	MaxSlot      string      `json:"max_slot"`
	PeakSlot     string      `json:"peak_slot"`
	PeakValue    float64     `json:"peak_value"`
	OffPeakSlot  string      `json:"off_peak_slot"`
	OffPeakValue float64     `json:"off_peak_value"`
	Top          []RankedRow `json:"top"`
	DayMeans     []DayMean   `json:"day_means"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// BuildInsights computes the report aggregates over a selection. ok is
// false when the selection holds no numeric data; callers then show an
// explicit "no data" state.
func BuildInsights(sel Selection, topN int) (Insights, bool) {
	mean, ok := sel.OverallMean()
	if !ok {
		return Insights{}, false
	}
	maxVal, maxSlot, _ := sel.MaxValue()
	peak, _ := sel.PeakSlot()
	offPeak, _ := sel.OffPeakSlot()

	ins := Insights{
		Records:      sel.Len(),
		StationCount: sel.DistinctStations(),
		LineCount:    sel.DistinctLines(),
		OverallMean:  mean,
		MaxValue:     maxVal,
		MaxSlot:      CanonicalLabel(maxSlot),
		PeakSlot:     CanonicalLabel(peak.Slot),
		PeakValue:    peak.Mean,
		OffPeakSlot:  CanonicalLabel(offPeak.Slot),
		OffPeakValue: offPeak.Mean,
		Top:          sel.TopN(topN),
		GeneratedAt:  time.Now(),
	}

	for _, day := range sel.DayTypes() {
		sub := sel.Narrow(Filters{DayType: day})
		if m, ok := sub.OverallMean(); ok {
			ins.DayMeans = append(ins.DayMeans, DayMean{DayType: day, Mean: m})
		}
	}
	return ins, true
}
