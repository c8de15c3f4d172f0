package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrowdInfo/src/processor"
)

func sampleInsights() processor.Insights {
	return processor.Insights{
		Records:      120,
		StationCount: 40,
		LineCount:    4,
		OverallMean:  54.2,
		MaxValue:     141.5,
		MaxSlot:      "08:00",
		PeakSlot:     "08:00",
		PeakValue:    92.3,
		OffPeakSlot:  "11:30",
		OffPeakValue: 31.8,
		Top: []processor.RankedRow{
			{Row: processor.RowInfo{Operator: "서울교통공사", Line: "2호선", Station: "강남", DayType: "평일"}, Peak: 141.5, PeakSlot: "8시00분"},
			{Row: processor.RowInfo{Operator: "서울교통공사", Line: "4호선", Station: "사당", DayType: "평일"}, Peak: 128.0, PeakSlot: "8시30분"},
		},
		DayMeans: []processor.DayMean{
			{DayType: "평일", Mean: 58.4},
			{DayType: "주말", Mean: 41.1},
		},
		GeneratedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func sampleMeans() []processor.SlotMean {
	labels := []string{"5시30분", "6시00분", "6시30분", "7시00분", "7시30분", "8시00분", "8시30분", "9시00분"}
	values := []float64{12.0, 25.5, 40.2, 68.9, 85.1, 92.3, 77.4, 52.0}
	out := make([]processor.SlotMean, len(labels))
	for i, l := range labels {
		out[i] = processor.SlotMean{Slot: l, Label: processor.CanonicalLabel(l), Mean: values[i], Count: 40}
	}
	return out
}

func TestGenerateProducesPDF(t *testing.T) {
	gen := NewGenerator(nil)

	out, err := gen.Generate(sampleInsights(), sampleMeans())
	require.NoError(t, err)

	require.Greater(t, len(out), 1000)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateWithoutCharts(t *testing.T) {
	// slots with no observations cannot be charted; the report must still
	// come out with the placeholder instead
	empty := []processor.SlotMean{
		{Slot: "7시00분", Label: "07:00", Count: 0},
		{Slot: "8시00분", Label: "08:00", Count: 0},
	}
	gen := NewGenerator(nil)

	out, err := gen.Generate(sampleInsights(), empty)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateSingleDayTypeSkipsComparison(t *testing.T) {
	ins := sampleInsights()
	ins.DayMeans = ins.DayMeans[:1]
	gen := NewGenerator(nil)

	out, err := gen.Generate(ins, sampleMeans())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateBogusFontFallsBack(t *testing.T) {
	gen := NewGenerator([]string{"/no/such/font.ttf"})

	out, err := gen.Generate(sampleInsights(), sampleMeans())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
