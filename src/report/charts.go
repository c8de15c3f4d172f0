package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"CrowdInfo/src/processor"
)

// SlotMeansChartPNG renders the per-slot mean curve as a PNG. Slots without
// data are left out so gaps are visible instead of dropping to zero.
func SlotMeansChartPNG(means []processor.SlotMean) ([]byte, error) {
	var xs, ys []float64
	var ticks []chart.Tick
	for i, m := range means {
		if m.Count == 0 || math.IsNaN(m.Mean) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, m.Mean)
		if i%4 == 0 {
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: m.Label})
		}
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("not enough slot data to chart (%d points)", len(xs))
	}

	line := drawing.ColorFromHex("FF6B6B")
	graph := chart.Chart{
		Width:  700,
		Height: 400,
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: "crowding (%)",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: line,
					StrokeWidth: 3,
					FillColor:   line.WithAlpha(50),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering slot means chart failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DayMeansChartPNG renders the day-type comparison as a bar chart.
func DayMeansChartPNG(days []processor.DayMean) ([]byte, error) {
	if len(days) < 2 {
		return nil, fmt.Errorf("need at least two day types to compare, got %d", len(days))
	}

	colors := []drawing.Color{
		drawing.ColorFromHex("4ECDC4"),
		drawing.ColorFromHex("FFD93D"),
		drawing.ColorFromHex("FF6B6B"),
	}

	bars := make([]chart.Value, 0, len(days))
	for i, d := range days {
		bars = append(bars, chart.Value{
			// bar labels render with the chart's latin font, so use the
			// numeric value as the label and leave day names to the PDF text
			Label: fmt.Sprintf("%.1f%%", d.Mean),
			Value: d.Mean,
			Style: chart.Style{FillColor: colors[i%len(colors)], StrokeWidth: 0},
		})
	}

	graph := chart.BarChart{
		Width:    600,
		Height:   350,
		BarWidth: 80,
		Bars:     bars,
		YAxis: chart.YAxis{
			Name: "mean crowding (%)",
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering day comparison chart failed: %w", err)
	}
	return buf.Bytes(), nil
}
