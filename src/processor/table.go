package processor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Table is the immutable in-memory crowding table: one row per
// (operator, line, station, day type), one numeric column per half-hour
// slot. It is built once at load time and never mutated afterwards, so
// concurrent readers share it without locking.
type Table struct {
	df      dataframe.DataFrame
	slots   []string       // chronological slot column order
	minutes map[string]int // slot label -> wrap-adjusted minutes
	vals    [][]float64    // [row][slot index]; NaN marks a missing cell

	info    InfoColumns
	infoRec map[string][]string // cached string columns for filtering
}

// InfoColumns names the descriptive columns. They are resolved once from
// column positions at load time; everything downstream goes through these
// names instead of raw indexes.
type InfoColumns struct {
	Operator string
	Line     string
	CarInfo  string
	Station  string
	DayType  string
}

// RowInfo is the descriptive part of a single table row.
type RowInfo struct {
	Operator string `json:"operator"`
	Line     string `json:"line"`
	CarInfo  string `json:"car_info"`
	Station  string `json:"station"`
	DayType  string `json:"day_type"`
}

// NewTable classifies the dataframe columns, sanitizes the slot label set
// once for the whole table, and parses every slot cell. A label that looks
// like a slot but does not parse aborts the load with a ParseError rather
// than silently corrupting the ordering.
func NewTable(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}

	var slotCols, infoCols []string
	for _, name := range df.Names() {
		if IsSlotLabel(name) {
			slotCols = append(slotCols, name)
		} else {
			infoCols = append(infoCols, name)
		}
	}
	if len(slotCols) == 0 {
		return nil, fmt.Errorf("no time-slot columns in table")
	}
	if len(infoCols) < 5 {
		return nil, fmt.Errorf("expected at least 5 info columns, got %d", len(infoCols))
	}

	minutes := make(map[string]int, len(slotCols))
	for _, s := range slotCols {
		m, err := SlotMinutes(s)
		if err != nil {
			return nil, err
		}
		minutes[s] = m
	}
	sort.SliceStable(slotCols, func(i, j int) bool {
		return minutes[slotCols[i]] < minutes[slotCols[j]]
	})

	info := InfoColumns{
		Operator: infoCols[0],
		Line:     infoCols[1],
		CarInfo:  infoCols[2],
		Station:  infoCols[3],
		DayType:  infoCols[4],
	}

	nrow := df.Nrow()
	vals := make([][]float64, nrow)
	for i := range vals {
		vals[i] = make([]float64, len(slotCols))
	}
	for j, col := range slotCols {
		records := df.Col(col).Records()
		for i := 0; i < nrow && i < len(records); i++ {
			vals[i][j] = parseCell(records[i])
		}
	}

	infoRec := make(map[string][]string, 5)
	for _, col := range []string{info.Operator, info.Line, info.CarInfo, info.Station, info.DayType} {
		recs := df.Col(col).Records()
		clean := make([]string, len(recs))
		for i, r := range recs {
			clean[i] = strings.TrimSpace(r)
		}
		infoRec[col] = clean
	}

	return &Table{
		df:      df,
		slots:   slotCols,
		minutes: minutes,
		vals:    vals,
		info:    info,
		infoRec: infoRec,
	}, nil
}

// parseCell turns a raw cell into a crowding percentage. Blank or
// unparseable cells become NaN and are excluded from every aggregate.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "-" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Slots returns the slot labels in chronological service-day order.
func (t *Table) Slots() []string {
	out := make([]string, len(t.slots))
	copy(out, t.slots)
	return out
}

// SlotIndex returns the position of a slot label in column order.
func (t *Table) SlotIndex(label string) (int, bool) {
	for i, s := range t.slots {
		if s == label {
			return i, true
		}
	}
	return 0, false
}

// Minutes returns the wrap-adjusted minute key of a slot label.
func (t *Table) Minutes(label string) (int, bool) {
	m, ok := t.minutes[label]
	return m, ok
}

func (t *Table) Nrow() int { return len(t.vals) }

func (t *Table) Info() InfoColumns { return t.info }

// RowVector copies one row's slot values, aligned to Slots().
func (t *Table) RowVector(row int) []float64 {
	out := make([]float64, len(t.slots))
	copy(out, t.vals[row])
	return out
}

func (t *Table) RowInfo(row int) RowInfo {
	return RowInfo{
		Operator: t.infoRec[t.info.Operator][row],
		Line:     t.infoRec[t.info.Line][row],
		CarInfo:  t.infoRec[t.info.CarInfo][row],
		Station:  t.infoRec[t.info.Station][row],
		DayType:  t.infoRec[t.info.DayType][row],
	}
}

// Distinct returns the sorted distinct values of an info column.
func (t *Table) Distinct(col string) []string {
	recs, ok := t.infoRec[col]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(recs))
	var out []string
	for _, r := range recs {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; !dup {
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// DataFrame exposes the backing dataframe for export paths. Callers must
// treat it as read-only.
func (t *Table) DataFrame() dataframe.DataFrame { return t.df }
