package converter

import (
	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rotisserie/eris"
)

// Canonicalize turns a raw string frame into the canonical table: every
// column renamed and typed, one code column per tier column present, and
// iptu_calculado. Columns follow the raw order, then tier codes, then IPTU.
func Canonicalize(raw dataframe.DataFrame) (dataframe.DataFrame, error) {
	names := raw.Names()
	cols := make([]series.Series, 0, len(names)+len(types.TierColumns)+1)

	for _, name := range names {
		canonical, err := types.CanonicalName(name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		cols = append(cols, typedColumn(canonical, utils.Cells(raw.Col(name))))
	}

	for _, tier := range types.TierColumns {
		if !utils.ContainsString(names, tier) {
			continue
		}
		cols = append(cols, TierCodes(types.TierCodeColumn(tier), utils.Cells(raw.Col(tier))))
	}

	cols = append(cols, utils.FloatSeries(types.ColIPTUCalculado, IPTU(
		columnOrEmpty(raw, types.RawAvaliacao),
		columnOrEmpty(raw, types.RawAliquota),
		columnOrEmpty(raw, types.RawCobrar),
		raw.Nrow(),
	)))

	df := dataframe.New(cols...)
	if err := df.Error(); err != nil {
		return dataframe.DataFrame{}, eris.Wrap(err, "failed to build canonical table")
	}
	return df, nil
}

// Empty builds a zero-row table with the given canonical columns, each with
// its canonical type.
func Empty(columns []string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(columns))
	for _, name := range columns {
		cols = append(cols, typedColumn(name, []string{}))
	}
	return dataframe.New(cols...)
}

func columnOrEmpty(df dataframe.DataFrame, name string) []string {
	if !utils.ContainsString(df.Names(), name) {
		return nil
	}
	return utils.Cells(df.Col(name))
}

func typedColumn(canonical string, cells []string) series.Series {
	switch types.KindOf(canonical) {
	case types.KindFloat:
		values := make([]float64, len(cells))
		for i, c := range cells {
			if canonical == types.ColAvaliacao || canonical == types.ColAliquota {
				values[i] = utils.ParseFloat(c)
				continue
			}
			values[i] = utils.ParseFloatOrNaN(c)
		}
		return utils.FloatSeries(canonical, values)
	case types.KindBool:
		values, valid := Chargeable(cells)
		return utils.BoolSeries(canonical, values, valid)
	case types.KindInt:
		values := make([]int, len(cells))
		valid := make([]bool, len(cells))
		for i, c := range cells {
			values[i], valid[i] = utils.ParseInt(c)
		}
		return utils.IntSeries(canonical, values, valid)
	default:
		return utils.StringSeries(canonical, cells)
	}
}

// TierCodes maps PSEI categories to their ordinal codes. Unknown or missing
// categories become missing codes.
func TierCodes(name string, categories []string) series.Series {
	values := make([]int, len(categories))
	valid := make([]bool, len(categories))
	for i, c := range categories {
		values[i], valid[i] = types.TierCode(c)
	}
	return utils.IntSeries(name, values, valid)
}

// Chargeable normalizes the COBRAR flag. valid is false where the cell is
// missing or not a recognizable boolean.
func Chargeable(cells []string) (values []bool, valid []bool) {
	values = make([]bool, len(cells))
	valid = make([]bool, len(cells))
	for i, c := range cells {
		values[i], valid[i] = utils.ParseBool(c)
	}
	return values, valid
}

// IPTU computes avaliacao * (aliquota / 100) on chargeable rows and 0 on the
// rest. A nil column means the snapshot lacks it: a missing flag makes every
// row non-chargeable and missing amounts count as 0.
func IPTU(avaliacao, aliquota, cobrar []string, rows int) []float64 {
	out := make([]float64, rows)
	if cobrar == nil {
		return out
	}

	chargeable, _ := Chargeable(cobrar)
	for i := 0; i < rows; i++ {
		if !chargeable[i] {
			continue
		}
		out[i] = cellFloat(avaliacao, i) * (cellFloat(aliquota, i) / 100)
	}
	return out
}

func cellFloat(cells []string, i int) float64 {
	if cells == nil {
		return 0
	}
	return utils.ParseFloat(cells[i])
}
