package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX opens a workbook on disk and returns the cells of one sheet.
func LoadXLSX(path, sheetName string) (Cells, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return cellsFromFile(f, sheetName)
}

// ReadXLSX is LoadXLSX for an in-memory workbook, e.g. an HTTP upload.
func ReadXLSX(r io.Reader, sheetName string) (Cells, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return cellsFromFile(f, sheetName)
}

// cellsFromFile walks the sheet row-major. Raw cell values are used so date
// cells come back as serials rather than formatted text.
func cellsFromFile(f *excelize.File, sheetName string) (Cells, error) {
	if sheetName == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheetName = list[0]
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	var cells Cells
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			addr, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			cells = append(cells, Cell{Address: addr, Value: parseValue(value)})
		}
	}
	return cells, nil
}
