package dashboard

import (
	"strings"

	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter is the multi-select state of the dashboard. An empty selection
// does not filter.
type Filter struct {
	Bairros    []string `json:"bairros"`
	Usos       []string `json:"usos"`
	Categorias []string `json:"categorias"`
}

// HasBairros reports whether a neighborhood selection is active. Some
// charts are only built for explicit neighborhood selections.
func (f Filter) HasBairros() bool {
	return len(f.Bairros) > 0
}

// ParseSelection turns query or flag values into one selection, dropping
// blanks and duplicates. A single value is a comma-separated list; repeated
// values are taken literally, so a label containing a comma is selected by
// repeating the parameter (categoria=Misto, comercial&categoria=Outro).
func ParseSelection(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		parts := []string{v}
		if len(values) == 1 {
			parts = strings.Split(v, ",")
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// Apply returns the filtered rows of the table as a new frame. Selecting
// categories on a snapshot without categoria_uso_psei matches nothing.
func (f Filter) Apply(table imoveis.Table) dataframe.DataFrame {
	df := table.Frame()
	if df.Nrow() == 0 {
		return df
	}

	selections := []struct {
		column   string
		selected []string
	}{
		{types.ColNomeBairro, f.Bairros},
		{types.ColUsoImovel, f.Usos},
		{types.ColCategoriaUsoPsei, f.Categorias},
	}

	for _, s := range selections {
		if len(s.selected) == 0 {
			continue
		}
		if !utils.HasColumn(&df, s.column) {
			return df.Filter(dataframe.F{Colname: types.ColNomeBairro, Comparator: series.In, Comparando: []string{}})
		}
		df = df.Filter(dataframe.F{Colname: s.column, Comparator: series.In, Comparando: s.selected})
		if df.Nrow() == 0 {
			return df
		}
	}
	return df
}

// Options lists the selectable values of each filter.
type Options struct {
	Bairros    []string `json:"bairros"`
	Usos       []string `json:"usos"`
	Categorias []string `json:"categorias,omitempty"`
}

// BuildOptions collects the distinct values of the filter columns, sorted
// with Portuguese collation. Missing and blank values are left out;
// Categorias is nil when the snapshot has no categoria_uso_psei.
func BuildOptions(table imoveis.Table) Options {
	df := table.Frame()
	opts := Options{
		Bairros: distinct(df, types.ColNomeBairro),
		Usos:    distinct(df, types.ColUsoImovel),
	}
	if utils.HasColumn(&df, types.ColCategoriaUsoPsei) {
		opts.Categorias = distinct(df, types.ColCategoriaUsoPsei)
	}
	return opts
}

func distinct(df dataframe.DataFrame, column string) []string {
	out := []string{}
	if !utils.HasColumn(&df, column) {
		return out
	}

	seen := make(map[string]bool)
	col := df.Col(column)
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.String()
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}

	collate.New(language.BrazilianPortuguese).SortStrings(out)
	return out
}
