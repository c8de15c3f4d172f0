package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"CrowdInfo/src/processor"
)

// LoadTable reads the crowding table from disk and builds the in-memory
// model. CSV is the published format; the xlsx path covers the spreadsheet
// re-exports that circulate of the same data.
func LoadTable(path, encoding, sheet string) (*processor.Table, error) {
	var (
		df  dataframe.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		df, err = ReadXLSXToDataFrame(path, sheet)
	default:
		df, err = ReadCSVToDataFrame(path, encoding)
	}
	if err != nil {
		return nil, err
	}
	return processor.NewTable(df)
}

// ReadCSVToDataFrame parses a delimited file into a string dataframe.
// The public dataset ships as EUC-KR/CP949; decode before parsing so the
// header labels survive intact.
func ReadCSVToDataFrame(filePath, encoding string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(encoding) {
	case "", "euc-kr", "cp949":
		r = transform.NewReader(f, korean.EUCKR.NewDecoder())
	case "utf-8", "utf8":
		// already decoded
	default:
		return dataframe.DataFrame{}, fmt.Errorf("unsupported encoding %q", encoding)
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse csv: %w", df.Err)
	}
	return trimHeaders(df), nil
}

// ReadXLSXToDataFrame reads one sheet of an Excel workbook into a string
// dataframe. An empty sheet name falls back to the first sheet.
func ReadXLSXToDataFrame(filePath, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.New(), fmt.Errorf("failed to open xlsx file: %w", err)
	}
	if len(xlFile.Sheets) == 0 {
		return dataframe.New(), fmt.Errorf("no sheets in workbook %s", filePath)
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.New(), fmt.Errorf("sheet %q not found in %s", sheetName, filePath)
		}
		sheet = s
	}

	return trimHeaders(convertSheetToDataFrame(sheet)), nil
}

// convertSheetToDataFrame treats the first row as the header and loads
// every following row as strings.
func convertSheetToDataFrame(sheet *xlsx.Sheet) dataframe.DataFrame {
	if len(sheet.Rows) < 2 {
		return dataframe.New()
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	for _, row := range sheet.Rows[1:] {
		for i := range headers {
			val := ""
			if i < len(row.Cells) {
				val = row.Cells[i].Value
			}
			columns[i] = append(columns[i], val)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}
	return dataframe.New(seriesList...)
}

// trimHeaders strips the stray whitespace the source file carries around
// some column labels.
func trimHeaders(df dataframe.DataFrame) dataframe.DataFrame {
	if df.Err != nil {
		return df
	}
	names := df.Names()
	trimmed := make([]string, len(names))
	for i, n := range names {
		trimmed[i] = strings.TrimSpace(n)
	}
	if err := df.SetNames(trimmed...); err != nil {
		df.Err = err
	}
	return df
}
