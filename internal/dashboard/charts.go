package dashboard

import (
	"math"
	"sort"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
)

// TopBairros caps the per-neighborhood tax chart.
const TopBairros = 20

type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type CategoryTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// ComparisonPoint is one bar of the grouped scenario comparison.
type ComparisonPoint struct {
	Bairro     string  `json:"bairro"`
	TipoTaxa   string  `json:"tipo_taxa"`
	ValorTotal float64 `json:"valor_total"`
}

// TierDistribution counts rows per PSEI code for one tier column.
type TierDistribution struct {
	Column  string      `json:"column"`
	Counts  map[int]int `json:"counts"`
	Missing int         `json:"missing"`
}

type Charts struct {
	UsoCounts     []CategoryCount    `json:"uso_counts"`
	TaxaPorBairro []CategoryTotal    `json:"taxa_por_bairro,omitempty"`
	Comparativo   []ComparisonPoint  `json:"comparativo,omitempty"`
	Tiers         []TierDistribution `json:"tiers"`
}

// BuildCharts computes the chart series for a filtered frame. The
// neighborhood charts are only built when f selects neighborhoods.
func BuildCharts(df dataframe.DataFrame, f Filter) Charts {
	c := Charts{
		UsoCounts: CountByUso(df),
		Tiers:     TierDistributions(df),
	}
	if f.HasBairros() {
		c.TaxaPorBairro = TaxaPorBairro(df, TopBairros)
		c.Comparativo = CompareScenarios(df)
	}
	return c
}

// CountByUso counts rows per property use, most frequent first.
func CountByUso(df dataframe.DataFrame) []CategoryCount {
	counts := make(map[string]int)
	for _, label := range labels(df, types.ColUsoImovel) {
		counts[label]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, CategoryCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// TaxaPorBairro sums taxa_psei_ajustado per neighborhood, largest first,
// keeping at most limit entries.
func TaxaPorBairro(df dataframe.DataFrame, limit int) []CategoryTotal {
	totals := sumBy(df, types.ColNomeBairro, types.ColTaxaPseiAjustado)

	out := make([]CategoryTotal, 0, len(totals))
	for label, total := range totals {
		out = append(out, CategoryTotal{Label: label, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CompareScenarios sums both tax scenarios per neighborhood in long
// format: every neighborhood for the adjusted scenario, then every
// neighborhood for the installment-corrected one.
func CompareScenarios(df dataframe.DataFrame) []ComparisonPoint {
	scenarios := []string{types.ColTaxaPseiAjustado, types.ColTaxaPseiParcelamentoCorrigido}
	totals := make([]map[string]float64, len(scenarios))
	for i, col := range scenarios {
		totals[i] = sumBy(df, types.ColNomeBairro, col)
	}

	bairros := make([]string, 0)
	seen := make(map[string]bool)
	for _, b := range labels(df, types.ColNomeBairro) {
		if !seen[b] {
			seen[b] = true
			bairros = append(bairros, b)
		}
	}
	sort.Strings(bairros)

	out := make([]ComparisonPoint, 0, len(bairros)*len(scenarios))
	for i, col := range scenarios {
		for _, b := range bairros {
			out = append(out, ComparisonPoint{Bairro: b, TipoTaxa: col, ValorTotal: totals[i][b]})
		}
	}
	return out
}

// TierDistributions counts codes for every tier code column present.
func TierDistributions(df dataframe.DataFrame) []TierDistribution {
	out := []TierDistribution{}
	for _, raw := range types.TierColumns {
		name := types.TierCodeColumn(raw)
		if !utils.HasColumn(&df, name) {
			continue
		}

		dist := TierDistribution{Column: name, Counts: make(map[int]int)}
		col := df.Col(name)
		for i := 0; i < col.Len(); i++ {
			code, err := col.Elem(i).Int()
			if err != nil || col.Elem(i).IsNA() {
				dist.Missing++
				continue
			}
			dist.Counts[code]++
		}
		out = append(out, dist)
	}
	return out
}

// labels returns the non-missing values of a string column. Missing values
// are skipped, like a pandas group-by.
func labels(df dataframe.DataFrame, column string) []string {
	if !utils.HasColumn(&df, column) {
		return nil
	}
	col := df.Col(column)
	out := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if e := col.Elem(i); !e.IsNA() {
			out = append(out, e.String())
		}
	}
	return out
}

// sumBy groups valueCol by keyCol. Missing values count as 0 and rows with
// a missing key are skipped.
func sumBy(df dataframe.DataFrame, keyCol, valueCol string) map[string]float64 {
	totals := make(map[string]float64)
	if !utils.HasColumn(&df, keyCol) {
		return totals
	}

	keys := df.Col(keyCol)
	var vals []float64
	if utils.HasColumn(&df, valueCol) {
		vals = df.Col(valueCol).Float()
	}

	for i := 0; i < keys.Len(); i++ {
		k := keys.Elem(i)
		if k.IsNA() {
			continue
		}
		if vals != nil && !math.IsNaN(vals[i]) {
			totals[k.String()] += vals[i]
			continue
		}
		totals[k.String()] += 0
	}
	return totals
}
