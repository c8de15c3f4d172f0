package processor

import "strings"

// Filters restricts the table by its categorical fields. Zero values mean
// "no restriction". Station matches exactly; StationContains is the search
// box behaviour.
type Filters struct {
	Operator        string
	Line            string
	DayType         string
	Station         string
	StationContains string
}

// Selection is a filtered, ordered view over the read-only table. It keeps
// row indexes so repeated selections over the same filter are identical.
type Selection struct {
	t    *Table
	rows []int
}

// Select scans the table once and keeps rows matching every filter.
// An empty result is valid and carries through all aggregates.
func (t *Table) Select(f Filters) Selection {
	ops := t.infoRec[t.info.Operator]
	lines := t.infoRec[t.info.Line]
	stations := t.infoRec[t.info.Station]
	days := t.infoRec[t.info.DayType]

	var rows []int
	for i := 0; i < t.Nrow(); i++ {
		if f.Operator != "" && ops[i] != f.Operator {
			continue
		}
		if f.Line != "" && lines[i] != f.Line {
			continue
		}
		if f.DayType != "" && days[i] != f.DayType {
			continue
		}
		if f.Station != "" && stations[i] != f.Station {
			continue
		}
		if f.StationContains != "" && !strings.Contains(stations[i], f.StationContains) {
			continue
		}
		rows = append(rows, i)
	}
	return Selection{t: t, rows: rows}
}

// All selects every row.
func (t *Table) All() Selection {
	rows := make([]int, t.Nrow())
	for i := range rows {
		rows[i] = i
	}
	return Selection{t: t, rows: rows}
}

// StationRow resolves a (station, day type) pair to a row. Typical datasets
// hold at most one row per pair; when duplicates exist the first match in
// table order wins. That is a data-quality assumption, not a guarantee.
func (t *Table) StationRow(station, dayType string) (int, bool) {
	stations := t.infoRec[t.info.Station]
	days := t.infoRec[t.info.DayType]
	for i := 0; i < t.Nrow(); i++ {
		if stations[i] == station && (dayType == "" || days[i] == dayType) {
			return i, true
		}
	}
	return 0, false
}

func (s Selection) Len() int { return len(s.rows) }

// Rows returns the selected row indexes in table order.
func (s Selection) Rows() []int {
	out := make([]int, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s Selection) Table() *Table { return s.t }

// DistinctStations counts distinct stations inside the selection.
func (s Selection) DistinctStations() int {
	return s.distinct(s.t.info.Station)
}

// DistinctLines counts distinct lines inside the selection.
func (s Selection) DistinctLines() int {
	return s.distinct(s.t.info.Line)
}

// DayTypes lists the distinct day types inside the selection, in first
// occurrence order.
func (s Selection) DayTypes() []string {
	recs := s.t.infoRec[s.t.info.DayType]
	seen := make(map[string]struct{})
	var out []string
	for _, i := range s.rows {
		if _, dup := seen[recs[i]]; !dup {
			seen[recs[i]] = struct{}{}
			out = append(out, recs[i])
		}
	}
	return out
}

func (s Selection) distinct(col string) int {
	recs := s.t.infoRec[col]
	seen := make(map[string]struct{})
	for _, i := range s.rows {
		seen[recs[i]] = struct{}{}
	}
	return len(seen)
}

// Narrow applies further filters to an existing selection.
func (s Selection) Narrow(f Filters) Selection {
	sub := s.t.Select(f)
	keep := make(map[int]struct{}, len(sub.rows))
	for _, i := range sub.rows {
		keep[i] = struct{}{}
	}
	var rows []int
	for _, i := range s.rows {
		if _, ok := keep[i]; ok {
			rows = append(rows, i)
		}
	}
	return Selection{t: s.t, rows: rows}
}
