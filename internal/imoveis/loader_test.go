package imoveis

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type parcel struct {
	NomeBairro   string  `parquet:"tiqimo_NOMEBAIRRO"`
	UsoImovel    string  `parquet:"tiqimo_USOIMOVEL"`
	ValorTotal   float64 `parquet:"tiqimo_VALORTOTALLOTE"`
	TaxaAjustado float64 `parquet:"TAXA_PSEI_AJUSTADO"`
	PseiAjustado *string `parquet:"PSEI_AJUSTADO,optional"`
	Avaliacao    float64 `parquet:"tiqimo_AVALIACAO"`
	Aliquota     float64 `parquet:"tiqimo_ALIQUOTA"`
	Cobrar       bool    `parquet:"COBRAR"`
}

type parcelNoCobrar struct {
	NomeBairro string  `parquet:"tiqimo_NOMEBAIRRO"`
	UsoImovel  string  `parquet:"tiqimo_USOIMOVEL"`
	Avaliacao  float64 `parquet:"tiqimo_AVALIACAO"`
	Aliquota   float64 `parquet:"tiqimo_ALIQUOTA"`
}

type parcelTextAssessed struct {
	NomeBairro string  `parquet:"tiqimo_NOMEBAIRRO"`
	UsoImovel  string  `parquet:"tiqimo_USOIMOVEL"`
	Avaliacao  string  `parquet:"tiqimo_AVALIACAO"`
	Aliquota   float64 `parquet:"tiqimo_ALIQUOTA"`
	Cobrar     string  `parquet:"COBRAR"`
}

type parcelNoBairro struct {
	UsoImovel string `parquet:"tiqimo_USOIMOVEL"`
}

func writeSnapshot[T any](t *testing.T, rows []T) string {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	_, err := w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "imoveis.parquet")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestLoader(t *testing.T, opts Options) *Loader {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	l, err := NewLoader(opts)
	require.NoError(t, err)
	return l
}

func ptr[T any](v T) *T { return &v }

func scenarioRows() []parcel {
	return []parcel{
		{NomeBairro: "Centro", UsoImovel: "Residencial", ValorTotal: 250000, TaxaAjustado: 120, PseiAjustado: ptr("AM"), Avaliacao: 100000, Aliquota: 1.5, Cobrar: true},
		{NomeBairro: "Centro", UsoImovel: "Residencial", ValorTotal: 250000, TaxaAjustado: 80, PseiAjustado: ptr("ZZ"), Avaliacao: 100000, Aliquota: 1.5, Cobrar: false},
		{NomeBairro: "Boa Vista", UsoImovel: "Comercial", ValorTotal: 90000, TaxaAjustado: 40, Avaliacao: 50000, Aliquota: 2, Cobrar: true},
	}
}

func TestLoadScenarios(t *testing.T) {
	path := writeSnapshot(t, scenarioRows())
	table, err := newTestLoader(t, Options{}).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, table.Nrow())
	assert.Equal(t, path, table.Source())
	assert.False(t, table.Empty())

	df := table.Frame()

	// A: chargeable row
	assert.Equal(t, "Centro", df.Col(types.ColNomeBairro).Elem(0).String())
	assert.Equal(t, "Residencial", df.Col(types.ColUsoImovel).Elem(0).String())
	assert.InDelta(t, 1500.0, df.Col(types.ColIPTUCalculado).Elem(0).Float(), 1e-9)

	// B: same row, not chargeable
	assert.Equal(t, 0.0, df.Col(types.ColIPTUCalculado).Elem(1).Float())

	// C: tier codes
	code, err := df.Col("psei_ajustado_n").Elem(0).Int()
	require.NoError(t, err)
	assert.Equal(t, 8, code)
	assert.True(t, df.Col("psei_ajustado_n").Elem(1).IsNA())
	assert.True(t, df.Col("psei_ajustado_n").Elem(2).IsNA())

	for _, raw := range []string{types.RawNomeBairro, types.RawCobrar, types.RawPseiAjustado} {
		assert.NotContains(t, table.Names(), raw)
	}
}

func TestLoadNonNumericAssessedValue(t *testing.T) {
	path := writeSnapshot(t, []parcelTextAssessed{
		{NomeBairro: "Centro", UsoImovel: "Residencial", Avaliacao: "n/a", Aliquota: 2.0, Cobrar: "true"},
		{NomeBairro: "Centro", UsoImovel: "Residencial", Avaliacao: "1.000,00", Aliquota: 2.0, Cobrar: "True"},
	})

	table, err := newTestLoader(t, Options{}).Load(context.Background(), path)
	require.NoError(t, err)

	df := table.Frame()
	assert.Equal(t, 0.0, df.Col(types.ColIPTUCalculado).Elem(0).Float())
	assert.InDelta(t, 20.0, df.Col(types.ColIPTUCalculado).Elem(1).Float(), 1e-9)
}

func TestLoadIsIdempotent(t *testing.T) {
	path := writeSnapshot(t, scenarioRows())
	l := newTestLoader(t, Options{})

	first, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	second, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, first.Frame().Records(), second.Frame().Records())
}

func TestLoadWithoutChargeableFlag(t *testing.T) {
	path := writeSnapshot(t, []parcelNoCobrar{
		{NomeBairro: "Centro", UsoImovel: "Residencial", Avaliacao: 100000, Aliquota: 1.5},
	})

	table, err := newTestLoader(t, Options{}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Nrow())
	assert.True(t, table.Has(types.ColIPTUCalculado))
	assert.Equal(t, 0.0, table.Frame().Col(types.ColIPTUCalculado).Elem(0).Float())
	assert.False(t, table.Has(types.ColCobrar))
	assert.False(t, table.Has("psei_ajustado_n"))
}

func TestLoadFailureShape(t *testing.T) {
	l := newTestLoader(t, Options{})
	want := l.CanonicalColumns()

	table, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.parquet"))
	assert.True(t, eris.Is(err, ErrSourceUnavailable))
	assert.True(t, IsUnavailable(err))
	assert.True(t, table.Empty())
	assert.Equal(t, want, table.Names())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	table, err = l.Load(context.Background(), srv.URL+"/imoveis.parquet")
	assert.True(t, eris.Is(err, ErrSourceUnavailable))
	assert.Equal(t, 0, table.Nrow())
	assert.Equal(t, want, table.Names())
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	path := writeSnapshot(t, []parcelNoBairro{{UsoImovel: "Residencial"}})
	l := newTestLoader(t, Options{})

	table, err := l.Load(context.Background(), path)
	assert.True(t, eris.Is(err, ErrSchemaMismatch))
	assert.True(t, IsUnavailable(err))
	assert.True(t, table.Empty())
	assert.Equal(t, l.CanonicalColumns(), table.Names())
}

func TestLoadFromURL(t *testing.T) {
	path := writeSnapshot(t, scenarioRows())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(data)
	}))
	defer srv.Close()

	table, err := newTestLoader(t, Options{}).Load(context.Background(), srv.URL+"/download?id=1")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Nrow())
}

func TestNewLoaderRejectsUnknownExtra(t *testing.T) {
	_, err := NewLoader(Options{ExtraColumns: []string{"NOT_A_COLUMN"}})
	assert.True(t, eris.Is(err, ErrUnknownColumn))

	l, err := NewLoader(Options{ExtraColumns: []string{"C_IVS"}, Logger: logger.Discard()})
	require.NoError(t, err)
	assert.Contains(t, l.Columns(), "C_IVS")
	assert.Contains(t, l.CanonicalColumns(), "censo_ivs")
}

func TestLoadReportsEveryAttempt(t *testing.T) {
	var mu sync.Mutex
	var reports []Report
	l := newTestLoader(t, Options{OnLoad: func(_ context.Context, r Report) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, r)
	}})

	path := writeSnapshot(t, scenarioRows())
	table, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	_, err = l.Load(context.Background(), path+".gone")
	require.Error(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, table.ID(), reports[0].ID)
	assert.Equal(t, "parquet", reports[0].Format)
	assert.Equal(t, 3, reports[0].Rows)
	assert.NoError(t, reports[0].Err)
	assert.Error(t, reports[1].Err)
}

func TestLoadXLSXWithThousandsFormat(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{types.RawNomeBairro, types.RawUsoImovel, types.RawAvaliacao, types.RawAliquota, types.RawCobrar}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Centro", "Residencial", 100000, 1.5, true}))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", style))

	path := filepath.Join(t.TempDir(), "imoveis.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := newTestLoader(t, Options{}).Load(context.Background(), path)
	require.NoError(t, err)
	df := table.Frame()
	assert.InDelta(t, 100000.0, df.Col(types.ColAvaliacao).Elem(0).Float(), 1e-9)
	assert.InDelta(t, 1500.0, df.Col(types.ColIPTUCalculado).Elem(0).Float(), 1e-9)
}

func TestLoadBrazilianCSV(t *testing.T) {
	text := "tiqimo_NOMEBAIRRO;tiqimo_USOIMOVEL;tiqimo_AVALIACAO;tiqimo_ALIQUOTA;COBRAR\n" +
		"Centro;Residencial;100.000,00;1,5;sim\n"
	path := filepath.Join(t.TempDir(), "imoveis.csv")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	table, err := newTestLoader(t, Options{}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 1500.0, table.Frame().Col(types.ColIPTUCalculado).Elem(0).Float(), 1e-9)
}
