package utils

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"

	"CrowdInfo/src/processor"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.True(t, Contains([]int{1, 2, 3}, 2))
}

func TestHasColumn(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x"}, series.String, "역명"),
		series.New([]string{"y"}, series.String, "요일구분"),
	)
	assert.True(t, HasColumn(df, "역명"))
	assert.False(t, HasColumn(df, "호선"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "42.5%", FormatPercent(42.5))
	assert.Equal(t, "-", FormatPercent(math.NaN()))
}

func TestPrintTopSummary(t *testing.T) {
	ranked := []processor.RankedRow{
		{Row: processor.RowInfo{Station: "강남", Line: "2호선", DayType: "평일"}, Peak: 141.5, PeakSlot: "8시00분"},
		{Row: processor.RowInfo{Station: "사당", Line: "4호선", DayType: "평일"}, Peak: 128.0, PeakSlot: "8시30분"},
	}

	var buf bytes.Buffer
	PrintTopSummary(&buf, ranked)

	out := buf.String()
	assert.True(t, strings.Contains(out, "강남"))
	assert.True(t, strings.Contains(out, "141.5%"))
	assert.True(t, strings.Contains(out, "08:00"))
}
