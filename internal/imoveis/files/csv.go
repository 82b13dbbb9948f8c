package files

import (
	"bytes"
	"unicode/utf8"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ReadCSV parses a delimited export. The delimiter (';' or ',') is taken
// from the header line and non-UTF-8 input is decoded as Windows-1252, the
// encoding of the city's legacy exports. A ';' file is a Brazilian export:
// its numeric columns use '.' for thousands and ',' for decimals.
func ReadCSV(data []byte, columns []string) (columnSet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return columnSet{}, err
		}
		data = decoded
	}

	delimiter := detectDelimiter(data)
	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter(delimiter),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if err := df.Error(); err != nil {
		return columnSet{}, err
	}

	set := frameColumns(df, columns)
	if delimiter == ';' {
		normalizeNumbers(set)
	}
	return set, nil
}

// normalizeNumbers rewrites Brazilian-formatted cells of numeric columns so
// "250.000" is read as two hundred fifty thousand rather than 250.
func normalizeNumbers(set columnSet) {
	for raw, cells := range set.cells {
		name, err := types.CanonicalName(raw)
		if err != nil || types.KindOf(name) != types.KindFloat {
			continue
		}
		for i, c := range cells {
			cells[i] = utils.FromBrazilian(c)
		}
	}
}

func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) >= bytes.Count(header, []byte(",")) && bytes.Contains(header, []byte(";")) {
		return ';'
	}
	return ','
}

// frameColumns copies the requested columns of a string frame.
func frameColumns(df dataframe.DataFrame, columns []string) columnSet {
	set := columnSet{rows: df.Nrow(), cells: make(map[string][]string)}
	names := df.Names()

	for _, name := range columns {
		if utils.ContainsString(names, name) {
			set.cells[name] = utils.Cells(df.Col(name))
		}
	}
	if utils.ContainsString(names, types.GeometryColumn) {
		for _, cell := range utils.Cells(df.Col(types.GeometryColumn)) {
			set.geometry.addText(cell)
		}
	}
	return set
}
