package file

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"CrowdInfo/src/processor"
)

// WriteSelectionXLSX streams the selected rows as an Excel workbook, one
// header row plus the raw cell values, for the export download.
func WriteSelectionXLSX(sel processor.Selection, w io.Writer) error {
	f, err := buildWorkbook(sel)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx export failed: %w", err)
	}
	return nil
}

// SaveSelectionXLSX writes the export to a file path.
func SaveSelectionXLSX(sel processor.Selection, filePath string) error {
	out, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("creating xlsx export failed: %w", err)
	}
	defer out.Close()
	return WriteSelectionXLSX(sel, out)
}

func buildWorkbook(sel processor.Selection) (*excelize.File, error) {
	df := sel.Table().DataFrame()
	rows := sel.Rows()
	if len(rows) < df.Nrow() {
		df = df.Subset(rows)
	}
	if df.Err != nil {
		return nil, fmt.Errorf("subsetting export rows failed: %w", df.Err)
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"

	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, name)
	}
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		for colIdx, colName := range colNames {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, df.Col(colName).Val(rowIdx))
		}
	}
	return f, nil
}
