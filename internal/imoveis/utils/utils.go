package utils

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NA is how gota spells a missing value in string constructors.
const NA = "NaN"

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// ContainsString reports whether s is in slice.
func ContainsString(slice []string, s string) bool {
	return containsString(slice, s)
}

// HasColumn reports whether df carries a column named col.
func HasColumn(df *dataframe.DataFrame, col string) bool {
	if df == nil {
		return false
	}
	return containsString(df.Names(), col)
}

// GetStr returns the cell as text, "" for missing columns or values.
func GetStr(col string, rowIdx int, df *dataframe.DataFrame) string {
	if !HasColumn(df, col) {
		return ""
	}
	e := df.Col(col).Elem(rowIdx)
	if e.IsNA() {
		return ""
	}
	return e.String()
}

// GetFloat returns the cell as a float, 0 for missing columns or values.
func GetFloat(col string, rowIdx int, df *dataframe.DataFrame) float64 {
	if !HasColumn(df, col) {
		return 0
	}
	e := df.Col(col).Elem(rowIdx)
	if e.IsNA() {
		return 0
	}
	return e.Float()
}

// FloatSeries builds a float column where NaN entries become missing values.
func FloatSeries(name string, values []float64) series.Series {
	cells := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			cells[i] = NA
			continue
		}
		cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return series.New(cells, series.Float, name)
}

// IntSeries builds an int column; valid[i] false marks a missing value.
func IntSeries(name string, values []int, valid []bool) series.Series {
	cells := make([]string, len(values))
	for i, v := range values {
		if !valid[i] {
			cells[i] = NA
			continue
		}
		cells[i] = strconv.Itoa(v)
	}
	return series.New(cells, series.Int, name)
}

// BoolSeries builds a bool column; valid[i] false marks a missing value.
func BoolSeries(name string, values []bool, valid []bool) series.Series {
	cells := make([]string, len(values))
	for i, v := range values {
		if !valid[i] {
			cells[i] = NA
			continue
		}
		cells[i] = strconv.FormatBool(v)
	}
	return series.New(cells, series.Bool, name)
}

// StringSeries builds a string column; empty cells stay empty strings.
func StringSeries(name string, values []string) series.Series {
	return series.New(values, series.String, name)
}

// Cells returns the column as text, NA for missing values.
func Cells(s series.Series) []string {
	out := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = NA
			continue
		}
		out[i] = e.String()
	}
	return out
}
