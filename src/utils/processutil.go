package utils

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/olekukonko/tablewriter"

	"CrowdInfo/src/processor"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// FormatPercent renders a crowding value for human output; NaN shows as "-".
func FormatPercent(v float64) string {
	if v != v {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// PrintTopSummary writes a console table of the most crowded rows, used at
// startup so the log shows what was loaded.
func PrintTopSummary(w io.Writer, ranked []processor.RankedRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Station", "Line", "Day", "Peak", "At"})
	table.SetBorder(true)
	table.SetAlignment(tablewriter.ALIGN_CENTER)

	for i, r := range ranked {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.Row.Station,
			r.Row.Line,
			r.Row.DayType,
			FormatPercent(r.Peak),
			processor.CanonicalLabel(r.PeakSlot),
		})
	}
	table.Render()
}
