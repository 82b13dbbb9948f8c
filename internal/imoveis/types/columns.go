package types

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownColumn is returned when a raw column outside the rename table is requested.
var ErrUnknownColumn = eris.New("unknown raw column")

// Raw (vendor) column names used by the dashboard.
const (
	RawInscricao         = "INSCANT"
	RawNomeRegiao        = "tiqimo_NOMEREGIAO"
	RawNomeBairro        = "tiqimo_NOMEBAIRRO"
	RawUsoImovel         = "tiqimo_USOIMOVEL"
	RawValorTotalLote    = "tiqimo_VALORTOTALLOTE"
	RawAvaliacao         = "tiqimo_AVALIACAO"
	RawAliquota          = "tiqimo_ALIQUOTA"
	RawCobrar            = "COBRAR"
	RawCategoriaUsoPsei  = "CATEGORIA_USO_PSEI"
	RawPseiAjustado      = "PSEI_AJUSTADO"
	RawTaxaPseiAjustado  = "TAXA_PSEI_AJUSTADO"
	RawPseiReclass80     = "PSEI_RECLASS_80"
	RawTaxaPseiReclass80 = "TAXA_PSEI_RECLASS_80"
	RawPseiParcCorr      = "PSEI_PARC_CORRIGIDO"
	RawTaxaPseiParcCorr  = "TAXA_PSEI_PARC_CORR"
)

// Canonical column names.
const (
	ColNomeBairro                    = "nome_bairro"
	ColUsoImovel                     = "uso_imovel"
	ColCategoriaUsoPsei              = "categoria_uso_psei"
	ColValorTotalLote                = "valor_total_lote"
	ColAvaliacao                     = "avaliacao"
	ColAliquota                      = "aliquota"
	ColCobrar                        = "cobrar"
	ColPseiAjustado                  = "psei_ajustado"
	ColTaxaPseiAjustado              = "taxa_psei_ajustado"
	ColPseiReclassificado80          = "psei_reclassificado_80"
	ColTaxaPseiReclassificado80      = "taxa_psei_reclassificado_80"
	ColPseiParcelamentoCorrigido     = "psei_parcelamento_corrigido"
	ColTaxaPseiParcelamentoCorrigido = "taxa_psei_parcelamento_corrigido"
	ColIPTUCalculado                 = "iptu_calculado"
)

// GeometryColumn is the attribute GeoParquet and geo exports use for shapes.
// It is read when present and never part of the canonical table.
const GeometryColumn = "geometry"

// canonicalNames is the fixed raw -> canonical rename table.
var canonicalNames = map[string]string{
	RawInscricao:               "inscant",
	RawNomeRegiao:              "nome_regiao",
	RawNomeBairro:              ColNomeBairro,
	"tiqimo_PARCELAMEN":        "parcelamento",
	"tiqimo_PROPRIETAR":        "proprietario",
	"tiqimo_COMPROMISS":        "compromissario",
	"tiqimo_ADMINISTRA":        "administrador",
	"tiqimo_TAXACAO":           "taxacao",
	"tiqimo_DESCRICAOT":        "descricao_tax",
	RawUsoImovel:               ColUsoImovel,
	"tiqimo_VALORVENAL":        "valor_venal_sc",
	"tiqimo_FRACAOIDEA":        "fracao_ideal",
	"tiqimo_AREATERREN":        "area_terreno",
	"tiqimo_AREAEDIFICIMOVEL":  "area_edificada_imovel",
	"tiqimo_VALORCONST":        "valor_construcao",
	RawAvaliacao:               ColAvaliacao,
	"tiqimo_VALORTERRENOLOTE":  "valor_terreno_lote",
	"tiqimo_VALOREDIFICLOTE":   "valor_edificacao_lote",
	RawValorTotalLote:          ColValorTotalLote,
	RawAliquota:                ColAliquota,
	"PRECISAO":                 "precisao",
	RawCobrar:                  ColCobrar,
	RawCategoriaUsoPsei:        ColCategoriaUsoPsei,
	RawPseiAjustado:            ColPseiAjustado,
	RawTaxaPseiAjustado:        ColTaxaPseiAjustado,
	RawPseiReclass80:           ColPseiReclassificado80,
	RawTaxaPseiReclass80:       ColTaxaPseiReclassificado80,
	"GLEBAS_CATEG":             "glebas_categ",
	RawPseiParcCorr:            ColPseiParcelamentoCorrigido,
	RawTaxaPseiParcCorr:        ColTaxaPseiParcelamentoCorrigido,
	"CALC_NOME_CONDOMINIO":     "calc_nome_condominio",
	"CALC_VU_MEDIO":            "calc_vu_medio",
	"CALC_VU_MEDIO_AJUSTADO":   "calc_vu_medio_ajustado",
	"CALC_AV_TERRENO_AJUSTADO": "calc_av_terreno_ajustado",
	"CALC_AV_TOTAL_AJUSTADO":   "calc_av_total_ajustado",
	"sc_SETOR":                 "sc_setor",
	"sc_GRUPO":                 "sc_grupo",
	"sc_TAMANHO_TESTADA":       "sc_tamanho_testada",
	"sc_TAMANHO_PROFUNDIDADE":  "sc_tamanho_profundidade",
	"sc_VALOR_PADRAO":          "sc_valor_padrao",
	"sc_AREA_PADRAO":           "sc_area_padrao",
	"sc_SC_VALOR_M2":           "sc_valor_m2",
	"C_pop_2022":               "censo_pop_2022",
	"C_dom_2022":               "censo_dom_2022",
	"C_dd_2022":                "censo_dd_2022",
	"C_tgmca_2022":             "censo_tgmca_2022",
	"C_REND_NOMIN":             "censo_renda_nom_2022",
	"C_REND_SM202":             "censo_renda_sal_min_2022",
	"C_IVS":                    "censo_ivs",
	"C_VAR_RENDA":              "censo_variacao_renda",
}

// DefaultColumns is the raw allow-list read from every snapshot.
var DefaultColumns = []string{
	// dashboard
	RawNomeBairro,
	RawUsoImovel,
	RawCategoriaUsoPsei,
	RawValorTotalLote,
	RawTaxaPseiAjustado,
	RawTaxaPseiReclass80,
	RawTaxaPseiParcCorr,

	// tier code mapping
	RawPseiAjustado,
	RawPseiReclass80,
	RawPseiParcCorr,

	// IPTU
	RawAvaliacao,
	RawAliquota,
	RawCobrar,
}

// RequiredColumns identify the minimal canonical schema. A snapshot missing
// any of them cannot be loaded.
var RequiredColumns = []string{RawNomeBairro, RawUsoImovel}

// TierColumns are the raw PSEI category columns that get a numeric sibling.
var TierColumns = []string{RawPseiAjustado, RawPseiReclass80, RawPseiParcCorr}

// CanonicalName returns the canonical name for a raw column.
func CanonicalName(raw string) (string, error) {
	name, ok := canonicalNames[raw]
	if !ok {
		return "", eris.Wrapf(ErrUnknownColumn, "column %q", raw)
	}
	return name, nil
}

// IsKnown reports whether raw is in the rename table.
func IsKnown(raw string) bool {
	_, ok := canonicalNames[raw]
	return ok
}

// TierCodeColumn names the numeric sibling of a raw tier column
// (PSEI_RECLASS_80 -> psei_reclass_80_n).
func TierCodeColumn(raw string) string {
	return strings.ToLower(raw) + "_n"
}

// IsTierColumn reports whether raw is one of the PSEI category columns.
func IsTierColumn(raw string) bool {
	for _, c := range TierColumns {
		if c == raw {
			return true
		}
	}
	return false
}

// Projection returns the allow-list plus extra raw columns, deduplicated and
// in order. Every column must be in the rename table.
func Projection(extra ...string) ([]string, error) {
	seen := make(map[string]bool, len(DefaultColumns)+len(extra))
	out := make([]string, 0, len(DefaultColumns)+len(extra))

	for _, col := range append(append([]string{}, DefaultColumns...), extra...) {
		if !IsKnown(col) {
			return nil, eris.Wrapf(ErrUnknownColumn, "column %q", col)
		}
		if seen[col] {
			continue
		}
		seen[col] = true
		out = append(out, col)
	}
	return out, nil
}

// CanonicalColumns lists the output columns produced for a projection whose
// raw columns are all present: renamed columns, tier siblings, iptu_calculado.
func CanonicalColumns(projection []string) []string {
	out := make([]string, 0, len(projection)+len(TierColumns)+1)
	for _, raw := range projection {
		if name, ok := canonicalNames[raw]; ok {
			out = append(out, name)
		}
	}
	for _, raw := range TierColumns {
		if containsString(projection, raw) {
			out = append(out, TierCodeColumn(raw))
		}
	}
	return append(out, ColIPTUCalculado)
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
