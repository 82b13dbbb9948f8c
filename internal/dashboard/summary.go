package dashboard

import (
	"math"
	"sort"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the headline metrics of a filtered selection. Columns the
// snapshot lacks contribute 0.
type Summary struct {
	Imoveis                       int     `json:"imoveis"`
	ValorTotalLote                float64 `json:"valor_total_lote"`
	TaxaPseiAjustado              float64 `json:"taxa_psei_ajustado"`
	TaxaPseiParcelamentoCorrigido float64 `json:"taxa_psei_parcelamento_corrigido"`
	// Diferenca is ajustado minus parcelamento corrigido.
	Diferenca     float64 `json:"diferenca"`
	IPTUTotal     float64 `json:"iptu_total"`
	IPTUMedio     float64 `json:"iptu_medio"`
	IPTUMediano   float64 `json:"iptu_mediano"`
	ImoveisCobrar int     `json:"imoveis_cobrar"`
	Display       Display `json:"display"`
}

// Display carries the metrics formatted for Brazilian Portuguese.
type Display struct {
	Imoveis                       string `json:"imoveis"`
	ValorTotalLote                string `json:"valor_total_lote"`
	TaxaPseiAjustado              string `json:"taxa_psei_ajustado"`
	TaxaPseiParcelamentoCorrigido string `json:"taxa_psei_parcelamento_corrigido"`
	Diferenca                     string `json:"diferenca"`
	IPTUTotal                     string `json:"iptu_total"`
}

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatMoney renders v with two decimals and Brazilian separators (1.234,56).
func FormatMoney(v float64) string {
	return ptBR.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatCount renders n with Brazilian thousands separators.
func FormatCount(n int) string {
	return ptBR.Sprint(number.Decimal(n))
}

// Summarize computes the summary of an already filtered frame.
func Summarize(df dataframe.DataFrame) Summary {
	s := Summary{
		Imoveis:                       df.Nrow(),
		ValorTotalLote:                floats.Sum(values(df, types.ColValorTotalLote)),
		TaxaPseiAjustado:              floats.Sum(values(df, types.ColTaxaPseiAjustado)),
		TaxaPseiParcelamentoCorrigido: floats.Sum(values(df, types.ColTaxaPseiParcelamentoCorrigido)),
	}
	s.Diferenca = s.TaxaPseiAjustado - s.TaxaPseiParcelamentoCorrigido

	iptu := values(df, types.ColIPTUCalculado)
	if len(iptu) > 0 {
		s.IPTUTotal = floats.Sum(iptu)
		s.IPTUMedio = stat.Mean(iptu, nil)
		s.IPTUMediano = median(iptu)
	}

	if utils.HasColumn(&df, types.ColCobrar) {
		col := df.Col(types.ColCobrar)
		for i := 0; i < col.Len(); i++ {
			if b, err := col.Elem(i).Bool(); err == nil && b {
				s.ImoveisCobrar++
			}
		}
	}

	s.Display = Display{
		Imoveis:                       FormatCount(s.Imoveis),
		ValorTotalLote:                FormatMoney(s.ValorTotalLote),
		TaxaPseiAjustado:              FormatMoney(s.TaxaPseiAjustado),
		TaxaPseiParcelamentoCorrigido: FormatMoney(s.TaxaPseiParcelamentoCorrigido),
		Diferenca:                     FormatMoney(s.Diferenca),
		IPTUTotal:                     FormatMoney(s.IPTUTotal),
	}
	return s
}

// values returns the non-missing values of a numeric column.
func values(df dataframe.DataFrame, column string) []float64 {
	if !utils.HasColumn(&df, column) {
		return nil
	}
	all := df.Col(column).Float()
	out := make([]float64, 0, len(all))
	for _, v := range all {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
