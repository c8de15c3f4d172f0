package file

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"CrowdInfo/src/processor"
)

const sampleCSV = `운영기관, 호선,편성,역명,요일구분,5시30분,7시00분,8시00분,0시30분
서울교통공사,2호선,10,강남,평일,12.5, 80 ,141.5,5.1
서울교통공사,2호선,10,강남,주말,8.0,30,42,
서울교통공사,4호선,10,사당,평일,x,55,90,3.3
`

func writeEUCKR(t *testing.T, dir, name, content string) string {
	t.Helper()
	enc, _, err := transform.String(korean.EUCKR.NewEncoder(), content)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(enc), 0644))
	return path
}

func TestLoadTableFromEUCKRCSV(t *testing.T) {
	path := writeEUCKR(t, t.TempDir(), "crowd.csv", sampleCSV)

	tbl, err := LoadTable(path, "euc-kr", "")
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Nrow())
	// header whitespace trimmed, slot order is chronological with the
	// after-midnight slot last
	assert.Equal(t, []string{"5시30분", "7시00분", "8시00분", "0시30분"}, tbl.Slots())
	assert.Equal(t, "호선", tbl.Info().Line)
	assert.Equal(t, "역명", tbl.Info().Station)

	row, ok := tbl.StationRow("강남", "평일")
	require.True(t, ok)
	v := tbl.RowVector(row)
	assert.InDelta(t, 12.5, v[0], 1e-9)
	assert.InDelta(t, 80, v[1], 1e-9, "padded cells parse after trimming")
	assert.InDelta(t, 141.5, v[2], 1e-9, "crowding may exceed 100%")

	// unparseable cell is missing, not zero
	sel := tbl.Select(processor.Filters{Station: "사당"})
	means := sel.MeanBySlot()
	assert.Equal(t, 0, means[0].Count)
}

func TestLoadTableUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crowd.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	tbl, err := LoadTable(path, "utf-8", "")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Nrow())
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "absent.csv"), "euc-kr", "")
	assert.Error(t, err)
}

func TestReadCSVUnsupportedEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crowd.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	_, err := ReadCSVToDataFrame(path, "shift-jis")
	assert.Error(t, err)
}

func TestTableCacheMemoizesByFileIdentity(t *testing.T) {
	dir := t.TempDir()
	path := writeEUCKR(t, dir, "crowd.csv", sampleCSV)

	cache := NewTableCache()

	tbl1, fresh, err := cache.Load(path, "euc-kr", "")
	require.NoError(t, err)
	assert.True(t, fresh)

	tbl2, fresh, err := cache.Load(path, "euc-kr", "")
	require.NoError(t, err)
	assert.False(t, fresh, "unchanged file must come from cache")
	assert.Same(t, tbl1, tbl2)

	// rewrite with an extra row: identity changes, table reloads
	time.Sleep(10 * time.Millisecond)
	writeEUCKR(t, dir, "crowd.csv", sampleCSV+"서울교통공사,9호선,6,염창,평일,20,60,110,4\n")

	tbl3, fresh, err := cache.Load(path, "euc-kr", "")
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, 4, tbl3.Nrow())
}

func TestWriteSelectionXLSXRoundTrip(t *testing.T) {
	path := writeEUCKR(t, t.TempDir(), "crowd.csv", sampleCSV)
	tbl, err := LoadTable(path, "euc-kr", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	sel := tbl.Select(processor.Filters{DayType: "평일"})
	require.NoError(t, WriteSelectionXLSX(sel, &buf))
	require.Greater(t, buf.Len(), 0)

	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}

func TestFileMonitorSeesRewrite(t *testing.T) {
	dir := t.TempDir()
	path := writeEUCKR(t, dir, "crowd.csv", sampleCSV)

	mon, err := NewFileMonitor(path)
	require.NoError(t, err)
	defer mon.Close()

	got := make(chan string, 1)
	go mon.Watch(func(p string) {
		select {
		case got <- p:
		default:
		}
	})

	time.Sleep(50 * time.Millisecond)
	writeEUCKR(t, dir, "crowd.csv", sampleCSV)

	select {
	case p := <-got:
		assert.Equal(t, filepath.Base(path), filepath.Base(p))
	case <-time.After(3 * time.Second):
		t.Fatal("no change event within timeout")
	}
}
