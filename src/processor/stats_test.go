package processor

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTable(t *testing.T, records [][]string) *Table {
	t.Helper()
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	tbl, err := NewTable(df)
	require.NoError(t, err)
	return tbl
}

func sampleTable(t *testing.T) *Table {
	return loadTable(t, [][]string{
		{"operator", "line", "cars", "station", "day", "08:00", "07:00", "08:30"},
		{"메트로", "2호선", "10", "강남", "평일", "50", "90", "70"},
		{"메트로", "2호선", "10", "강남", "주말", "70", "30", "20"},
		{"메트로", "4호선", "10", "사당", "평일", " ", "100", "60"},
	})
}

func TestNewTableResolvesColumnsOnce(t *testing.T) {
	tbl := sampleTable(t)

	// slot columns re-ordered chronologically regardless of file order
	assert.Equal(t, []string{"07:00", "08:00", "08:30"}, tbl.Slots())

	info := tbl.Info()
	assert.Equal(t, "operator", info.Operator)
	assert.Equal(t, "line", info.Line)
	assert.Equal(t, "cars", info.CarInfo)
	assert.Equal(t, "station", info.Station)
	assert.Equal(t, "day", info.DayType)

	ri := tbl.RowInfo(2)
	assert.Equal(t, "사당", ri.Station)
	assert.Equal(t, "4호선", ri.Line)
}

func TestNewTableRejectsBadShapes(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"a", "b"},
		{"1", "2"},
	}, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	_, err := NewTable(df)
	assert.Error(t, err, "no slot columns")

	df = dataframe.LoadRecords([][]string{
		{"station", "07:00"},
		{"강남", "80"},
	}, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	_, err = NewTable(df)
	assert.Error(t, err, "too few info columns")
}

func TestMeanBySlotExcludesMissing(t *testing.T) {
	tbl := loadTable(t, [][]string{
		{"operator", "line", "cars", "station", "day", "08:00"},
		{"m", "l", "c", "a", "평일", "50"},
		{"m", "l", "c", "b", "평일", "70"},
		{"m", "l", "c", "c", "평일", ""},
	})

	means := tbl.All().MeanBySlot()
	require.Len(t, means, 1)
	assert.Equal(t, 2, means[0].Count)
	assert.InDelta(t, 60, means[0].Mean, 1e-9, "missing cell must not count as zero")
}

func TestOverallMeanAndMax(t *testing.T) {
	tbl := sampleTable(t)
	sel := tbl.All()

	mean, ok := sel.OverallMean()
	require.True(t, ok)
	// (50+90+70 + 70+30+20 + 100+60) / 8; the blank cell is excluded
	assert.InDelta(t, 61.25, mean, 1e-9)

	maxVal, slot, ok := sel.MaxValue()
	require.True(t, ok)
	assert.InDelta(t, 100, maxVal, 1e-9)
	assert.Equal(t, "07:00", slot)
}

func TestSelectAndEmptySelection(t *testing.T) {
	tbl := sampleTable(t)

	weekday := tbl.Select(Filters{DayType: "평일"})
	assert.Equal(t, 2, weekday.Len())

	none := tbl.Select(Filters{DayType: "공휴일"})
	assert.Equal(t, 0, none.Len())
	_, ok := none.OverallMean()
	assert.False(t, ok, "empty selection is a valid no-data state")
	assert.Empty(t, none.TopN(5))

	sub := tbl.Select(Filters{StationContains: "강"})
	assert.Equal(t, 2, sub.Len())
}

func TestRowPeakTieKeepsFirstColumn(t *testing.T) {
	tbl := loadTable(t, [][]string{
		{"operator", "line", "cars", "station", "day", "07:00", "08:00"},
		{"m", "l", "c", "a", "평일", "90", "90"},
	})
	slot, val, ok := tbl.RowPeak(0)
	require.True(t, ok)
	assert.InDelta(t, 90, val, 1e-9)
	assert.Equal(t, "07:00", slot)
}

func TestTopNIsStableAndIdempotent(t *testing.T) {
	tbl := loadTable(t, [][]string{
		{"operator", "line", "cars", "station", "day", "08:00"},
		{"m", "l", "c", "first", "평일", "90"},
		{"m", "l", "c", "second", "평일", "90"},
		{"m", "l", "c", "third", "평일", "95"},
		{"m", "l", "c", "empty", "평일", ""},
	})
	sel := tbl.All()

	a := sel.TopN(2)
	b := sel.TopN(2)
	assert.Equal(t, a, b, "same selection, same ranking")

	require.Len(t, a, 2)
	assert.Equal(t, "third", a[0].Row.Station)
	assert.Equal(t, "first", a[1].Row.Station, "tie keeps input order")

	all := sel.TopN(10)
	assert.Len(t, all, 3, "all-missing rows are excluded")
}

func TestPeakAndOffPeakSlots(t *testing.T) {
	tbl := sampleTable(t)
	sel := tbl.All()

	peak, ok := sel.PeakSlot()
	require.True(t, ok)
	// means: 07:00 = (90+30+100)/3 ≈ 73.3, 08:00 = 60, 08:30 = 50
	assert.Equal(t, "07:00", peak.Slot)

	off, ok := sel.OffPeakSlot()
	require.True(t, ok)
	assert.Equal(t, "08:30", off.Slot)
}

func TestStationRowTakesFirstMatch(t *testing.T) {
	tbl := loadTable(t, [][]string{
		{"operator", "line", "cars", "station", "day", "08:00"},
		{"m", "2호선", "c", "강남", "평일", "90"},
		{"m", "신분당선", "c", "강남", "평일", "40"},
	})
	row, ok := tbl.StationRow("강남", "평일")
	require.True(t, ok)
	assert.Equal(t, 0, row)

	_, ok = tbl.StationRow("강남", "주말")
	assert.False(t, ok)
}

func TestMeanForHours(t *testing.T) {
	tbl := loadTable(t, [][]string{
		{"operator", "line", "cars", "station", "day", "07:00", "07:30", "18:00", "00:00"},
		{"m", "l", "c", "a", "평일", "80", "60", "40", "10"},
	})
	sel := tbl.All()

	am, ok := sel.MeanForHours([]int{7})
	require.True(t, ok)
	assert.InDelta(t, 70, am, 1e-9)

	pm, ok := sel.MeanForHours([]int{18})
	require.True(t, ok)
	assert.InDelta(t, 40, pm, 1e-9)

	// hour 0 lives past the midnight wrap but still addresses as hour 0
	night, ok := sel.MeanForHours([]int{0})
	require.True(t, ok)
	assert.InDelta(t, 10, night, 1e-9)

	_, ok = sel.MeanForHours([]int{3})
	assert.False(t, ok)
}

func TestBuildInsights(t *testing.T) {
	tbl := sampleTable(t)
	ins, ok := BuildInsights(tbl.All(), 5)
	require.True(t, ok)

	assert.Equal(t, 3, ins.Records)
	assert.Equal(t, 2, ins.StationCount)
	assert.Equal(t, 2, ins.LineCount)
	assert.InDelta(t, 61.25, ins.OverallMean, 1e-9)
	assert.InDelta(t, 100, ins.MaxValue, 1e-9)
	assert.Equal(t, "07:00", ins.PeakSlot)
	assert.Equal(t, "08:30", ins.OffPeakSlot)
	require.Len(t, ins.DayMeans, 2)
	assert.Equal(t, "평일", ins.DayMeans[0].DayType)

	none := tbl.Select(Filters{DayType: "공휴일"})
	_, ok = BuildInsights(none, 5)
	assert.False(t, ok)
}

func TestRowVectorIsACopy(t *testing.T) {
	tbl := sampleTable(t)
	v := tbl.RowVector(0)
	v[0] = math.NaN()
	v2 := tbl.RowVector(0)
	assert.False(t, math.IsNaN(v2[0]), "table must stay immutable")
}
