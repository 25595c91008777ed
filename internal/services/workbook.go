package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// sheetRow is one data row keyed by its upper-cased column header. Number is
// the row number as shown by a spreadsheet program.
type sheetRow struct {
	Number int
	Cells  map[string]string
}

func (r sheetRow) get(col string) string {
	return strings.TrimSpace(r.Cells[col])
}

// readSheets loads the named sheets from an .xlsx or .xls workbook. A
// missing sheet is reported as absent from the returned map.
func readSheets(filename string, data []byte, names ...string) (map[string][]sheetRow, error) {
	var raw map[string][][]string
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		raw, err = readXLS(data, names)
	} else {
		raw, err = readXLSX(data, names)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string][]sheetRow, len(raw))
	for name, grid := range raw {
		out[name] = keyRows(grid)
	}
	return out, nil
}

func readXLSX(data []byte, names []string) (map[string][][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	present := make(map[string]bool)
	for _, s := range f.GetSheetList() {
		present[s] = true
	}

	out := make(map[string][][]string)
	for _, name := range names {
		if !present[name] {
			continue
		}
		// Raw values keep date cells as serial numbers.
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		out[name] = rows
	}
	return out, nil
}

func readXLS(data []byte, names []string) (map[string][][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	out := make(map[string][][]string)
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil || !wanted[sheet.Name] {
			continue
		}
		var grid [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				grid = append(grid, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			grid = append(grid, cells)
		}
		out[sheet.Name] = grid
	}
	return out, nil
}

// keyRows turns a grid whose first row holds column names into keyed rows,
// skipping empty rows.
func keyRows(grid [][]string) []sheetRow {
	if len(grid) == 0 {
		return nil
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	var rows []sheetRow
	for i, raw := range grid[1:] {
		if isEmptyRow(raw) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" || j >= len(raw) {
				continue
			}
			cells[h] = raw[j]
		}
		rows = append(rows, sheetRow{Number: i + 2, Cells: cells})
	}
	return rows
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
