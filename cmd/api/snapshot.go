package main

import (
	"net/http"

	"github.com/farxc/imoveis_dashboard/internal/response"
	"github.com/farxc/imoveis_dashboard/internal/store"
)

type InvalidateSnapshotResponse = response.APIResponse[map[string]any]
type GetLoadHistoryResponse = response.APIResponse[[]store.LoadHistory]

// @Summary		Invalidate cached snapshot
// @Description	Drops the cached table so the next request reloads it. An empty body targets the configured source.
// @Tags			Snapshot
// @Accept			json
// @Produce		json
// @Param			request	body		object{source:string,all:bool}	false	"What to invalidate"
// @Success		200		{object}	InvalidateSnapshotResponse
// @Failure		400		{object}	response.ErrorResponse	"Invalid request payload"
// @Router			/snapshot/invalidate [post]
func (app *application) handleInvalidateSnapshot(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Source string `json:"source"`
		All    bool   `json:"all"`
	}

	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	data := map[string]any{}
	if input.All {
		app.cache.InvalidateAll()
		data["all"] = true
	} else {
		source := input.Source
		if source == "" {
			source = app.config.snapshot.source
		}
		app.cache.Invalidate(source)
		data["source"] = source
	}

	response := &InvalidateSnapshotResponse{
		Success: true,
		Data:    data,
		Message: "Snapshot cache invalidated",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get load history
// @Description	Get a list of the latest snapshot load attempts.
// @Tags			Snapshot
// @Produce		json
// @Param			limit	query		int						false	"Limit the number of results"	default(10)
// @Param			source	query		string					false	"Only loads of this source"
// @Success		200		{object}	GetLoadHistoryResponse	"Successfully retrieved latest load records"
// @Failure		500		{object}	response.ErrorResponse	"Failed to get load history"
// @Failure		503		{object}	response.ErrorResponse	"Load history not configured"
// @Router			/snapshot/history [get]
func (app *application) handleGetLoadHistory(w http.ResponseWriter, r *http.Request) {
	if app.store == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "load history is not configured")
		return
	}

	limit := parseLimit(r, 10, 100)
	source := r.URL.Query().Get("source")

	ctx := r.Context()
	var (
		data []store.LoadHistory
		err  error
	)
	if source != "" {
		data, err = app.store.LoadHistory.GetLatestBySource(ctx, source, limit)
	} else {
		data, err = app.store.LoadHistory.GetLatest(ctx, limit)
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get load history: "+err.Error())
		return
	}

	response := &GetLoadHistoryResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved latest load records",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
