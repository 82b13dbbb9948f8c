package main

import "net/http"

// @Summary		Health check
// @Description	returns the status of the service and of the cached snapshot
// @Tags			Health
// @Produce		json
// @Success		200	{object}	map[string]any
// @Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {

	data := map[string]any{
		"status":         "available",
		"version":        "0.1.0",
		"source":         app.config.snapshot.source,
		"cached_sources": app.cache.Sources(),
		"history":        app.store != nil,
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
