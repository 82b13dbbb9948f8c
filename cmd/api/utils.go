package main

import (
	"net/http"
	"strconv"

	"github.com/farxc/imoveis_dashboard/internal/dashboard"
)

// parseFilter reads the bairro, uso and categoria query parameters. A
// parameter given once is comma-separated; repeated ones are literal values.
func parseFilter(r *http.Request) dashboard.Filter {
	q := r.URL.Query()
	return dashboard.Filter{
		Bairros:    dashboard.ParseSelection(q["bairro"]),
		Usos:       dashboard.ParseSelection(q["uso"]),
		Categorias: dashboard.ParseSelection(q["categoria"]),
	}
}

func parseLimit(r *http.Request, defaultLimit, maxLimit int) int {
	limit := defaultLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
