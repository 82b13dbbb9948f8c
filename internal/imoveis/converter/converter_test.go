package converter

import (
	"testing"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrame(cols map[string][]string, order ...string) dataframe.DataFrame {
	ss := make([]series.Series, 0, len(order))
	for _, name := range order {
		ss = append(ss, utils.StringSeries(name, cols[name]))
	}
	return dataframe.New(ss...)
}

func TestCanonicalize(t *testing.T) {
	raw := rawFrame(map[string][]string{
		types.RawNomeBairro:    {"Centro", "Boa Vista"},
		types.RawUsoImovel:     {"Residencial", "Comercial"},
		types.RawPseiAjustado:  {"BI", "XX"},
		types.RawPseiReclass80: {"AS", utils.NA},
		types.RawAvaliacao:     {"100000", "n/a"},
		types.RawAliquota:      {"1.5", "2"},
		types.RawCobrar:        {"True", "1"},
	}, types.RawNomeBairro, types.RawUsoImovel, types.RawPseiAjustado, types.RawPseiReclass80,
		types.RawAvaliacao, types.RawAliquota, types.RawCobrar)

	df, err := Canonicalize(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{
		types.ColNomeBairro, types.ColUsoImovel, types.ColPseiAjustado, types.ColPseiReclassificado80,
		types.ColAvaliacao, types.ColAliquota, types.ColCobrar,
		"psei_ajustado_n", "psei_reclass_80_n", types.ColIPTUCalculado,
	}, df.Names())

	code := df.Col("psei_ajustado_n")
	assert.Equal(t, series.Int, code.Type())
	v, err := code.Elem(0).Int()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, code.Elem(1).IsNA())

	v, err = df.Col("psei_reclass_80_n").Elem(0).Int()
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.True(t, df.Col("psei_reclass_80_n").Elem(1).IsNA())

	assert.Equal(t, 0.0, df.Col(types.ColAvaliacao).Elem(1).Float())
	assert.InDelta(t, 1500.0, df.Col(types.ColIPTUCalculado).Elem(0).Float(), 1e-9)
	assert.Equal(t, 0.0, df.Col(types.ColIPTUCalculado).Elem(1).Float())
}

func TestCanonicalizeRejectsUnmappedColumn(t *testing.T) {
	raw := rawFrame(map[string][]string{"mystery": {"1"}}, "mystery")
	_, err := Canonicalize(raw)
	assert.Error(t, err)
}

func TestCanonicalizeWithoutIPTUColumns(t *testing.T) {
	raw := rawFrame(map[string][]string{
		types.RawNomeBairro: {"Centro", "Centro"},
		types.RawUsoImovel:  {"Residencial", "Comercial"},
		types.RawAvaliacao:  {"100", "200"},
		types.RawAliquota:   {"1", "1"},
	}, types.RawNomeBairro, types.RawUsoImovel, types.RawAvaliacao, types.RawAliquota)

	df, err := Canonicalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []float64{0, 0}, df.Col(types.ColIPTUCalculado).Float())
	assert.NotContains(t, df.Names(), "psei_ajustado_n")
}

func TestTierCodes(t *testing.T) {
	cats := append(types.TierCategories(), "", "bi", utils.NA, "ZZ")
	s := TierCodes("x_n", cats)
	for i := range types.TierCategories() {
		v, err := s.Elem(i).Int()
		require.NoError(t, err)
		assert.Equal(t, i+1, v)
	}
	for i := len(types.TierCategories()); i < len(cats); i++ {
		assert.True(t, s.Elem(i).IsNA(), cats[i])
	}
}

func TestIPTU(t *testing.T) {
	got := IPTU(
		[]string{"100000", "100000", "abc", "200000", ""},
		[]string{"1.5", "1.5", "2", "0,5", "3"},
		[]string{"true", "false", "true", "sim", "true"},
		5,
	)
	assert.InDelta(t, 1500.0, got[0], 1e-9)
	assert.Equal(t, 0.0, got[1])
	assert.Equal(t, 0.0, got[2])
	assert.InDelta(t, 1000.0, got[3], 1e-9)
	assert.Equal(t, 0.0, got[4])

	assert.Equal(t, []float64{0, 0}, IPTU([]string{"1", "2"}, []string{"1", "1"}, nil, 2))
	assert.Equal(t, []float64{0}, IPTU(nil, []string{"1"}, []string{"true"}, 1))
}

func TestChargeable(t *testing.T) {
	values, valid := Chargeable([]string{"true", "False", "", "maybe", "1"})
	assert.Equal(t, []bool{true, false, false, false, true}, values)
	assert.Equal(t, []bool{true, true, false, false, true}, valid)
}

func TestEmpty(t *testing.T) {
	cols := types.CanonicalColumns(types.DefaultColumns)
	df := Empty(cols)
	require.NoError(t, df.Error())
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, cols, df.Names())
	assert.Equal(t, series.Float, df.Col(types.ColIPTUCalculado).Type())
	assert.Equal(t, series.Bool, df.Col(types.ColCobrar).Type())
}
