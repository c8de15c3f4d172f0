package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"CrowdInfo/src/processor"
)

const (
	fontCJK    = "cjk"
	accentHexR = 0x00
	accentHexG = 0x3D
	accentHexB = 0xA5 // line 1 blue, used for headings
)

// Generator builds the crowding analysis PDF. Chart rendering and CJK font
// support are both optional capabilities: losing them degrades the output,
// never the generation.
type Generator struct {
	FontPaths []string
}

func NewGenerator(fontPaths []string) *Generator {
	return &Generator{FontPaths: fontPaths}
}

// Generate assembles the full report for one selection's insights and
// per-slot means and returns the PDF bytes.
func (g *Generator) Generate(ins processor.Insights, means []processor.SlotMean) ([]byte, error) {
	fontPath, hasFont := FindCJKFont(g.FontPaths)

	out, err := g.build(ins, means, fontPath, hasFont)
	if err != nil && hasFont {
		// a broken font file must not take the report down with it
		return g.build(ins, means, "", false)
	}
	return out, err
}

func (g *Generator) build(ins processor.Insights, means []processor.SlotMean, fontPath string, hasFont bool) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(s) }
	if hasFont {
		pdf.AddUTF8Font(fontCJK, "", fontPath)
		pdf.AddUTF8Font(fontCJK, "B", fontPath)
		if pdf.Error() == nil {
			family = fontCJK
			text = func(s string) string { return s }
		}
	}

	generated := ins.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10,
			text(fmt.Sprintf("Generated from Seoul Metro open data | %s", generated.Format("2006-01-02 15:04:05"))),
			"", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	g.coverPage(pdf, family, text, ins, generated)
	g.findings(pdf, family, text, ins)
	g.slotSection(pdf, family, text, ins, means)
	g.topSection(pdf, family, text, ins)
	g.daySection(pdf, family, text, ins)
	g.recommendations(pdf, family, text, ins)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("building pdf failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) coverPage(pdf *fpdf.Fpdf, family string, text func(string) string, ins processor.Insights, generated time.Time) {
	pdf.AddPage()
	pdf.Ln(60)

	pdf.SetFont(family, "B", 24)
	pdf.SetTextColor(accentHexR, accentHexG, accentHexB)
	pdf.CellFormat(0, 12, text("Seoul Subway Crowding Report"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(8)

	pdf.SetFont(family, "", 12)
	pdf.CellFormat(0, 8, text(fmt.Sprintf("Date: %s", generated.Format("2006-01-02"))), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, 6, text(fmt.Sprintf("Data points: %d", ins.Records)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, text(fmt.Sprintf("Stations: %d", ins.StationCount)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, text(fmt.Sprintf("Lines: %d", ins.LineCount)), "", 1, "C", false, 0, "")
}

func (g *Generator) heading(pdf *fpdf.Fpdf, family string, text func(string) string, title string) {
	pdf.SetFont(family, "B", 16)
	pdf.SetTextColor(accentHexR, accentHexG, accentHexB)
	pdf.CellFormat(0, 10, text(title), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func (g *Generator) findings(pdf *fpdf.Fpdf, family string, text func(string) string, ins processor.Insights) {
	pdf.AddPage()
	g.heading(pdf, family, text, "1. Key Findings")

	pdf.SetFont(family, "", 10)
	lines := []string{
		fmt.Sprintf("- Overall mean crowding: %.1f%%", ins.OverallMean),
		fmt.Sprintf("- Maximum crowding: %.1f%% (at %s)", ins.MaxValue, ins.MaxSlot),
		fmt.Sprintf("- Peak slot: %s (mean %.1f%%)", ins.PeakSlot, ins.PeakValue),
		fmt.Sprintf("- Quietest slot: %s (mean %.1f%%)", ins.OffPeakSlot, ins.OffPeakValue),
	}
	for _, l := range lines {
		pdf.CellFormat(0, 7, text(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (g *Generator) slotSection(pdf *fpdf.Fpdf, family string, text func(string) string, ins processor.Insights, means []processor.SlotMean) {
	g.heading(pdf, family, text, "2. Crowding by Time of Day")

	png, err := SlotMeansChartPNG(means)
	if err != nil {
		g.chartPlaceholder(pdf, family, text)
	} else {
		g.embedPNG(pdf, "slot_means", png, 160, 91)
	}
	pdf.Ln(4)

	pdf.SetFont(family, "", 10)
	pdf.MultiCell(0, 6, text(fmt.Sprintf(
		"The highest average crowding occurs at %s, the lowest at %s. "+
			"The gap between peak and off-peak averages is %.1f percentage points.",
		ins.PeakSlot, ins.OffPeakSlot, ins.PeakValue-ins.OffPeakValue)),
		"", "J", false)
	pdf.Ln(4)
}

func (g *Generator) topSection(pdf *fpdf.Fpdf, family string, text func(string) string, ins processor.Insights) {
	if len(ins.Top) == 0 {
		return
	}
	pdf.AddPage()
	g.heading(pdf, family, text, "3. Most Crowded Stations")

	headers := []string{"#", "Station", "Line", "Day", "Max", "At"}
	widths := []float64{10, 45, 30, 25, 25, 30}

	pdf.SetFont(family, "B", 10)
	pdf.SetFillColor(accentHexR, accentHexG, accentHexB)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 9, text(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(245, 245, 220)
	for i, r := range ins.Top {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			r.Row.Station,
			r.Row.Line,
			r.Row.DayType,
			fmt.Sprintf("%.1f%%", r.Peak),
			processor.CanonicalLabel(r.PeakSlot),
		}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 8, text(c), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

func (g *Generator) daySection(pdf *fpdf.Fpdf, family string, text func(string) string, ins processor.Insights) {
	if len(ins.DayMeans) < 2 {
		return
	}
	g.heading(pdf, family, text, "4. Day-Type Comparison")

	png, err := DayMeansChartPNG(ins.DayMeans)
	if err != nil {
		g.chartPlaceholder(pdf, family, text)
	} else {
		g.embedPNG(pdf, "day_means", png, 130, 76)
	}
	pdf.Ln(4)

	a, b := ins.DayMeans[0], ins.DayMeans[1]
	higher, diff := a, a.Mean-b.Mean
	if diff < 0 {
		higher, diff = b, -diff
	}
	pdf.SetFont(family, "", 10)
	pdf.MultiCell(0, 6, text(fmt.Sprintf(
		"Mean crowding on %s days runs about %.1f percentage points higher, "+
			"consistent with commute traffic.", higher.DayType, diff)),
		"", "J", false)
	pdf.Ln(4)
}

func (g *Generator) recommendations(pdf *fpdf.Fpdf, family string, text func(string) string, ins processor.Insights) {
	pdf.AddPage()
	g.heading(pdf, family, text, "5. Recommendations")

	pdf.SetFont(family, "", 10)
	lines := []string{
		fmt.Sprintf("- Travelling around %s keeps crowding lowest on average.", ins.OffPeakSlot),
		fmt.Sprintf("- Avoid the %s peak where possible.", ins.PeakSlot),
	}
	if len(ins.Top) > 0 {
		lines = append(lines, fmt.Sprintf(
			"- %s records the highest single-slot crowding (%.1f%%); nearby stations may be more comfortable.",
			ins.Top[0].Row.Station, ins.Top[0].Peak))
	}
	lines = append(lines,
		"- Operators should review headways in the peak slots and platform safety at the most crowded stations.")
	for _, l := range lines {
		pdf.MultiCell(0, 6, text(l), "", "L", false)
	}
}

func (g *Generator) embedPNG(pdf *fpdf.Fpdf, name string, png []byte, w, h float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	x := (210 - w) / 2
	pdf.ImageOptions(name, x, pdf.GetY(), w, h, true, opts, 0, "")
}

// chartPlaceholder stands in when the chart backend cannot produce an
// image; the surrounding numbers still tell the story.
func (g *Generator) chartPlaceholder(pdf *fpdf.Fpdf, family string, text func(string) string) {
	y := pdf.GetY()
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(25, y, 160, 60, "F")
	pdf.SetFont(family, "", 12)
	pdf.SetTextColor(128, 128, 128)
	pdf.SetY(y + 26)
	pdf.CellFormat(0, 8, text("Chart unavailable"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(y + 64)
}
