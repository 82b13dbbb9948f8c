package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/dashboard"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/farxc/imoveis_dashboard/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type parcel struct {
	NomeBairro   string  `parquet:"tiqimo_NOMEBAIRRO"`
	UsoImovel    string  `parquet:"tiqimo_USOIMOVEL"`
	Categoria    string  `parquet:"CATEGORIA_USO_PSEI"`
	ValorTotal   float64 `parquet:"tiqimo_VALORTOTALLOTE"`
	TaxaAjustado float64 `parquet:"TAXA_PSEI_AJUSTADO"`
	TaxaParcCorr float64 `parquet:"TAXA_PSEI_PARC_CORR"`
	PseiAjustado string  `parquet:"PSEI_AJUSTADO"`
	Avaliacao    float64 `parquet:"tiqimo_AVALIACAO"`
	Aliquota     float64 `parquet:"tiqimo_ALIQUOTA"`
	Cobrar       bool    `parquet:"COBRAR"`
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	rows := []parcel{
		{NomeBairro: "Centro", UsoImovel: "Residencial", Categoria: "Habitacional", ValorTotal: 250000, TaxaAjustado: 120, TaxaParcCorr: 100, PseiAjustado: "AM", Avaliacao: 100000, Aliquota: 1.5, Cobrar: true},
		{NomeBairro: "Centro", UsoImovel: "Comercial", Categoria: "Comercio", ValorTotal: 400000, TaxaAjustado: 300, TaxaParcCorr: 250, PseiAjustado: "BI", Avaliacao: 200000, Aliquota: 2, Cobrar: false},
		{NomeBairro: "Boa Vista", UsoImovel: "Residencial", Categoria: "Habitacional", ValorTotal: 90000, TaxaAjustado: 40, TaxaParcCorr: 35.5, PseiAjustado: "NS", Avaliacao: 50000, Aliquota: 2, Cobrar: true},
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[parcel](&buf)
	_, err := w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "imoveis_relatorio.parquet")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestApplication(t *testing.T, source string, storage *store.Storage) *application {
	t.Helper()
	cfg := config{
		addr: ":0",
		snapshot: snapshotConfig{
			source:      source,
			httpTimeout: 5 * time.Second,
		},
	}
	app, err := newApplication(cfg, storage, logger.Discard())
	require.NoError(t, err)
	return app
}

func newTestStorage(t *testing.T) *store.Storage {
	t.Helper()
	conn, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "history.db")+"?_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, store.Migrate(context.Background(), conn))
	return store.NewStorage(conn)
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	rr := do(t, app.mount(), http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[map[string]any](t, rr)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, false, body["history"])
}

func TestGetOptions(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	rr := do(t, app.mount(), http.MethodGet, "/v1/imoveis/options", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[GetOptionsResponse](t, rr)
	assert.True(t, body.Success)
	assert.Equal(t, []string{"Boa Vista", "Centro"}, body.Data.Bairros)
	assert.Equal(t, []string{"Comercial", "Residencial"}, body.Data.Usos)
	assert.Equal(t, []string{"Comercio", "Habitacional"}, body.Data.Categorias)
	require.NotNil(t, body.Snapshot)
	assert.Equal(t, 3, body.Snapshot.Rows)
}

func TestGetSummary(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	h := app.mount()

	rr := do(t, h, http.MethodGet, "/v1/imoveis/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	all := decode[GetSummaryResponse](t, rr)
	assert.Equal(t, 3, all.Data.Imoveis)
	assert.InDelta(t, 740000, all.Data.ValorTotalLote, 1e-6)
	assert.InDelta(t, 460, all.Data.TaxaPseiAjustado, 1e-6)
	assert.InDelta(t, 385.5, all.Data.TaxaPseiParcelamentoCorrigido, 1e-6)
	assert.InDelta(t, 74.5, all.Data.Diferenca, 1e-6)
	// 1500 + 0 + 1000
	assert.InDelta(t, 2500, all.Data.IPTUTotal, 1e-6)
	assert.Equal(t, 2, all.Data.ImoveisCobrar)
	assert.Equal(t, "740.000,00", all.Data.Display.ValorTotalLote)

	rr = do(t, h, http.MethodGet, "/v1/imoveis/summary?bairro=Centro&uso=Residencial", "")
	require.Equal(t, http.StatusOK, rr.Code)
	one := decode[GetSummaryResponse](t, rr)
	assert.Equal(t, 1, one.Data.Imoveis)
	assert.Equal(t, 1, one.Snapshot.FilteredRows)
	assert.Equal(t, 3, one.Snapshot.Rows)
	assert.InDelta(t, 1500, one.Data.IPTUTotal, 1e-6)
	assert.Equal(t, all.Snapshot.ID, one.Snapshot.ID)

	rr = do(t, h, http.MethodGet, "/v1/imoveis/summary?bairro=Nowhere", "")
	require.Equal(t, http.StatusOK, rr.Code)
	none := decode[GetSummaryResponse](t, rr)
	assert.Equal(t, 0, none.Data.Imoveis)
	assert.NotEmpty(t, none.Message)
}

func TestGetCharts(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	h := app.mount()

	rr := do(t, h, http.MethodGet, "/v1/imoveis/charts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[GetChartsResponse](t, rr)
	require.NotEmpty(t, body.Data.UsoCounts)
	assert.Equal(t, dashboard.CategoryCount{Label: "Residencial", Count: 2}, body.Data.UsoCounts[0])
	assert.Empty(t, body.Data.TaxaPorBairro)

	rr = do(t, h, http.MethodGet, "/v1/imoveis/charts?bairro=Centro,Boa%20Vista", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode[GetChartsResponse](t, rr)
	require.Len(t, body.Data.TaxaPorBairro, 2)
	assert.Equal(t, "Centro", body.Data.TaxaPorBairro[0].Label)
	assert.InDelta(t, 420, body.Data.TaxaPorBairro[0].Total, 1e-6)
	assert.NotEmpty(t, body.Data.Comparativo)
}

func TestSummaryRepeatedParamsAreLiteral(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	h := app.mount()

	rr := do(t, h, http.MethodGet, "/v1/imoveis/summary?bairro=Centro&bairro=Boa%20Vista", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, decode[GetSummaryResponse](t, rr).Data.Imoveis)

	// One literal label with a comma matches nothing in this snapshot.
	rr = do(t, h, http.MethodGet, "/v1/imoveis/summary?bairro=Centro,Boa%20Vista&bairro=Derby", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[GetSummaryResponse](t, rr).Data.Imoveis)
}

func TestGetRowsLimit(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	rr := do(t, app.mount(), http.MethodGet, "/v1/imoveis/rows?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[GetRowsResponse](t, rr)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Centro", body.Data[0]["nome_bairro"])
	assert.Contains(t, body.Data[0], "iptu_calculado")
	assert.Contains(t, body.Data[0], "psei_ajustado_n")
}

func TestExportCSV(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	h := app.mount()

	rr := do(t, h, http.MethodGet, "/v1/imoveis/export.csv?bairro=Boa%20Vista", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), dashboard.ExportFilename)

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[0], "nome_bairro")
	assert.Contains(t, records[1], "35.5")

	rr = do(t, h, http.MethodGet, "/v1/imoveis/export.csv?bairro=Boa%20Vista&locale=pt-BR", "")
	require.Equal(t, http.StatusOK, rr.Code)
	r := csv.NewReader(rr.Body)
	r.Comma = ';'
	records, err = r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[1], "35,5")
}

func TestUnavailableSnapshot(t *testing.T) {
	app := newTestApplication(t, filepath.Join(t.TempDir(), "missing.parquet"), nil)
	h := app.mount()

	for _, path := range []string{"/v1/imoveis/options", "/v1/imoveis/summary", "/v1/imoveis/export.csv"} {
		rr := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "no data")
	}
}

func TestInvalidateSnapshot(t *testing.T) {
	source := writeSnapshot(t)
	app := newTestApplication(t, source, nil)
	h := app.mount()

	first := decode[GetSummaryResponse](t, do(t, h, http.MethodGet, "/v1/imoveis/summary", ""))
	again := decode[GetSummaryResponse](t, do(t, h, http.MethodGet, "/v1/imoveis/summary", ""))
	assert.Equal(t, first.Snapshot.ID, again.Snapshot.ID)

	rr := do(t, h, http.MethodPost, "/v1/snapshot/invalidate", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), source)

	reloaded := decode[GetSummaryResponse](t, do(t, h, http.MethodGet, "/v1/imoveis/summary", ""))
	assert.NotEqual(t, first.Snapshot.ID, reloaded.Snapshot.ID)

	rr = do(t, h, http.MethodPost, "/v1/snapshot/invalidate", `{"all":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/snapshot/invalidate", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoadHistory(t *testing.T) {
	storage := newTestStorage(t)
	source := writeSnapshot(t)
	app := newTestApplication(t, source, storage)
	h := app.mount()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/imoveis/summary", "").Code)

	rr := do(t, h, http.MethodGet, "/v1/snapshot/history?source="+source, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[GetLoadHistoryResponse](t, rr)
	require.Len(t, body.Data, 1)
	assert.Equal(t, store.StatusSuccess, body.Data[0].Status)
	assert.Equal(t, 3, body.Data[0].RowCount)
	assert.Equal(t, "parquet", body.Data[0].Format)
}

func TestLoadHistoryRecordsFailures(t *testing.T) {
	storage := newTestStorage(t)
	app := newTestApplication(t, filepath.Join(t.TempDir(), "missing.parquet"), storage)
	h := app.mount()

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/v1/imoveis/summary", "").Code)

	body := decode[GetLoadHistoryResponse](t, do(t, h, http.MethodGet, "/v1/snapshot/history", ""))
	require.Len(t, body.Data, 1)
	assert.Equal(t, store.StatusFailure, body.Data[0].Status)
	assert.NotEmpty(t, body.Data[0].Error)
}

func TestLoadHistoryWithoutStore(t *testing.T) {
	app := newTestApplication(t, writeSnapshot(t), nil)
	rr := do(t, app.mount(), http.MethodGet, "/v1/snapshot/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
