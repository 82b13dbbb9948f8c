package dashboard

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rotisserie/eris"
)

// PreviewRows caps the rows returned for the detail table.
const PreviewRows = 1000

// ExportFilename is the suggested name for downloaded selections.
const ExportFilename = "dados_filtrados.csv"

// Locale selects the CSV dialect of an export.
type Locale string

const (
	// LocaleDefault writes comma-separated values with '.' decimals.
	LocaleDefault Locale = ""
	// LocalePtBR writes semicolon-separated values with ',' decimals, the
	// dialect spreadsheet software expects on Brazilian systems.
	LocalePtBR Locale = "pt-BR"
)

// ParseLocale accepts "pt-BR" (any case, '_' or '-'); anything else is the default.
func ParseLocale(s string) Locale {
	if strings.EqualFold(strings.ReplaceAll(s, "_", "-"), string(LocalePtBR)) {
		return LocalePtBR
	}
	return LocaleDefault
}

// Rows returns up to limit rows as records keyed by column name. Missing
// values are nil.
func Rows(df dataframe.DataFrame, limit int) []map[string]interface{} {
	if df.Nrow() == 0 {
		return []map[string]interface{}{}
	}
	if limit > 0 && df.Nrow() > limit {
		idx := make([]int, limit)
		for i := range idx {
			idx[i] = i
		}
		df = df.Subset(idx)
	}
	return df.Maps()
}

// WriteCSV writes the header and every row of df. Missing values are empty
// cells and floats keep their shortest exact representation.
func WriteCSV(w io.Writer, df dataframe.DataFrame, locale Locale) error {
	cw := csv.NewWriter(w)
	if locale == LocalePtBR {
		cw.Comma = ';'
	}

	names := df.Names()
	if err := cw.Write(names); err != nil {
		return eris.Wrap(err, "failed to write csv header")
	}

	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = df.Col(name)
	}

	record := make([]string, len(names))
	for r := 0; r < df.Nrow(); r++ {
		for c, col := range cols {
			record[c] = formatCell(col, r, locale)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrapf(err, "failed to write csv row %d", r)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "failed to flush csv")
}

func formatCell(col series.Series, r int, locale Locale) string {
	e := col.Elem(r)
	if e.IsNA() {
		return ""
	}

	switch col.Type() {
	case series.Float:
		s := strconv.FormatFloat(e.Float(), 'f', -1, 64)
		if locale == LocalePtBR {
			s = strings.Replace(s, ".", ",", 1)
		}
		return s
	case series.Bool:
		b, _ := e.Bool()
		return strconv.FormatBool(b)
	default:
		return e.String()
	}
}
