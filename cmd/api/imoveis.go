package main

import (
	"net/http"

	"github.com/farxc/imoveis_dashboard/internal/dashboard"
	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/response"
)

type GetOptionsResponse = response.APIResponse[dashboard.Options]
type GetSummaryResponse = response.APIResponse[dashboard.Summary]
type GetChartsResponse = response.APIResponse[dashboard.Charts]
type GetRowsResponse = response.APIResponse[[]map[string]interface{}]

// loadTable fetches the cached snapshot, answering 503 when it is empty.
func (app *application) loadTable(w http.ResponseWriter, r *http.Request) (imoveis.Table, bool) {
	table, err := app.snapshot(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no data: "+err.Error())
		return table, false
	}
	if table.Empty() {
		writeJSONError(w, http.StatusServiceUnavailable, "no data: snapshot has no rows")
		return table, false
	}
	return table, true
}

func snapshotInfo(table imoveis.Table, filteredRows int) *response.SnapshotInfo {
	return &response.SnapshotInfo{
		ID:           table.ID().String(),
		Source:       table.Source(),
		LoadedAt:     table.LoadedAt(),
		Rows:         table.Nrow(),
		FilteredRows: filteredRows,
	}
}

// @Summary		Filter options
// @Description	Distinct neighborhoods, property uses and PSEI use categories of the snapshot.
// @Tags			Imoveis
// @Produce		json
// @Success		200	{object}	GetOptionsResponse
// @Failure		503	{object}	response.ErrorResponse	"Snapshot unavailable"
// @Router			/imoveis/options [get]
func (app *application) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	table, ok := app.loadTable(w, r)
	if !ok {
		return
	}

	response := &GetOptionsResponse{
		Success:  true,
		Snapshot: snapshotInfo(table, table.Nrow()),
		Data:     dashboard.BuildOptions(table),
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Summary metrics
// @Description	Parcel count, lot value and tax scenario totals, IPTU statistics of the filtered parcels.
// @Tags			Imoveis
// @Produce		json
// @Param			bairro		query		[]string	false	"Neighborhoods"
// @Param			uso			query		[]string	false	"Property uses"
// @Param			categoria	query		[]string	false	"PSEI use categories"
// @Success		200			{object}	GetSummaryResponse
// @Failure		503			{object}	response.ErrorResponse	"Snapshot unavailable"
// @Router			/imoveis/summary [get]
func (app *application) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	table, ok := app.loadTable(w, r)
	if !ok {
		return
	}

	filtered := parseFilter(r).Apply(table)
	response := &GetSummaryResponse{
		Success:  true,
		Snapshot: snapshotInfo(table, filtered.Nrow()),
		Data:     dashboard.Summarize(filtered),
	}
	if filtered.Nrow() == 0 {
		response.Message = "no parcels match the selected filters"
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Chart series
// @Description	Counts per property use, tier distributions and, when neighborhoods are selected, tax totals per neighborhood.
// @Tags			Imoveis
// @Produce		json
// @Param			bairro		query		[]string	false	"Neighborhoods"
// @Param			uso			query		[]string	false	"Property uses"
// @Param			categoria	query		[]string	false	"PSEI use categories"
// @Success		200			{object}	GetChartsResponse
// @Failure		503			{object}	response.ErrorResponse	"Snapshot unavailable"
// @Router			/imoveis/charts [get]
func (app *application) handleGetCharts(w http.ResponseWriter, r *http.Request) {
	table, ok := app.loadTable(w, r)
	if !ok {
		return
	}

	filter := parseFilter(r)
	filtered := filter.Apply(table)
	response := &GetChartsResponse{
		Success:  true,
		Snapshot: snapshotInfo(table, filtered.Nrow()),
		Data:     dashboard.BuildCharts(filtered, filter),
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Detail rows
// @Description	The first filtered canonical rows.
// @Tags			Imoveis
// @Produce		json
// @Param			bairro		query		[]string	false	"Neighborhoods"
// @Param			uso			query		[]string	false	"Property uses"
// @Param			categoria	query		[]string	false	"PSEI use categories"
// @Param			limit		query		int			false	"Maximum rows"	default(1000)
// @Success		200			{object}	GetRowsResponse
// @Failure		503			{object}	response.ErrorResponse	"Snapshot unavailable"
// @Router			/imoveis/rows [get]
func (app *application) handleGetRows(w http.ResponseWriter, r *http.Request) {
	table, ok := app.loadTable(w, r)
	if !ok {
		return
	}

	filtered := parseFilter(r).Apply(table)
	limit := parseLimit(r, dashboard.PreviewRows, dashboard.PreviewRows)
	response := &GetRowsResponse{
		Success:  true,
		Snapshot: snapshotInfo(table, filtered.Nrow()),
		Data:     dashboard.Rows(filtered, limit),
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		CSV export
// @Description	Every filtered canonical row as CSV. locale=pt-BR switches to ';' and decimal commas.
// @Tags			Imoveis
// @Produce		text/csv
// @Param			bairro		query	[]string	false	"Neighborhoods"
// @Param			uso			query	[]string	false	"Property uses"
// @Param			categoria	query	[]string	false	"PSEI use categories"
// @Param			locale		query	string		false	"CSV dialect"	Enums(pt-BR)
// @Success		200
// @Failure		503	{object}	response.ErrorResponse	"Snapshot unavailable"
// @Router			/imoveis/export.csv [get]
func (app *application) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	table, ok := app.loadTable(w, r)
	if !ok {
		return
	}

	filtered := parseFilter(r).Apply(table)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+dashboard.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)

	if err := dashboard.WriteCSV(w, filtered, dashboard.ParseLocale(r.URL.Query().Get("locale"))); err != nil {
		app.logger.Error("API", "CSV export failed: %v", err)
	}
}
