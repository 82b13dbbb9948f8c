package files

import (
	"bytes"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of a workbook. The first row is the header;
// short rows are padded with empty cells.
func ReadXLSX(data []byte, columns []string) (columnSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return columnSet{}, eris.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return columnSet{}, eris.New("workbook has no sheets")
	}

	// Raw values: formatted text would carry thousands separators and rounding.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return columnSet{}, eris.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	if len(rows) == 0 {
		return columnSet{}, eris.Errorf("sheet %s is empty", sheets[0])
	}

	header := rows[0]
	body := rows[1:]
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	set := columnSet{rows: len(body), cells: make(map[string][]string)}
	for _, name := range columns {
		i, ok := index[name]
		if !ok {
			continue
		}
		set.cells[name] = columnCells(body, i)
	}
	if i, ok := index[types.GeometryColumn]; ok {
		for _, cell := range columnCells(body, i) {
			set.geometry.addText(cell)
		}
	}
	return set, nil
}

func columnCells(rows [][]string, i int) []string {
	cells := make([]string, len(rows))
	for r, row := range rows {
		if i < len(row) {
			cells[r] = row[i]
		}
	}
	return cells
}
