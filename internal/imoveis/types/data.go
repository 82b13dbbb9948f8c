package types

// Kind is the storage type of a canonical column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
)

// floatColumns are canonical columns coerced to float64. Everything not
// listed here (and not a tier code or cobrar) stays a string.
var floatColumns = map[string]bool{
	ColValorTotalLote:                true,
	ColAvaliacao:                     true,
	ColAliquota:                      true,
	ColTaxaPseiAjustado:              true,
	ColTaxaPseiReclassificado80:      true,
	ColTaxaPseiParcelamentoCorrigido: true,
	ColIPTUCalculado:                 true,
	"valor_venal_sc":                 true,
	"fracao_ideal":                   true,
	"area_terreno":                   true,
	"area_edificada_imovel":          true,
	"valor_construcao":               true,
	"valor_terreno_lote":             true,
	"valor_edificacao_lote":          true,
	"calc_vu_medio":                  true,
	"calc_vu_medio_ajustado":         true,
	"calc_av_terreno_ajustado":       true,
	"calc_av_total_ajustado":         true,
	"sc_tamanho_testada":             true,
	"sc_tamanho_profundidade":        true,
	"sc_valor_padrao":                true,
	"sc_area_padrao":                 true,
	"sc_valor_m2":                    true,
	"censo_pop_2022":                 true,
	"censo_dom_2022":                 true,
	"censo_dd_2022":                  true,
	"censo_tgmca_2022":               true,
	"censo_renda_nom_2022":           true,
	"censo_renda_sal_min_2022":       true,
	"censo_ivs":                      true,
	"censo_variacao_renda":           true,
}

// KindOf returns the storage type of a canonical column.
func KindOf(canonical string) Kind {
	switch {
	case canonical == ColCobrar:
		return KindBool
	case floatColumns[canonical]:
		return KindFloat
	}
	for _, raw := range TierColumns {
		if canonical == TierCodeColumn(raw) {
			return KindInt
		}
	}
	return KindString
}

// tierCodes ranks the PSEI categories from the lowest band (BI) to the
// highest (AS).
var tierCodes = map[string]int{
	"BI": 1,
	"BM": 2,
	"BS": 3,
	"NI": 4,
	"NM": 5,
	"NS": 6,
	"AI": 7,
	"AM": 8,
	"AS": 9,
}

// TierCode returns the ordinal code of a PSEI category. Matching is exact:
// lowercase or padded values are not recognized.
func TierCode(category string) (int, bool) {
	code, ok := tierCodes[category]
	return code, ok
}

// TierCategories lists the known categories in code order.
func TierCategories() []string {
	return []string{"BI", "BM", "BS", "NI", "NM", "NS", "AI", "AM", "AS"}
}
