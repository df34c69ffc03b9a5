package http

import (
	"log/slog"
	"net/http"

	"fatture/internal/core"
)

// handleCustomersTable renders the customer table with per-customer invoice
// counts and pending/paid totals, filtered on name or email.
func (s *Server) handleCustomersTable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	params := ParseListParams(r.URL.Query())

	rows, found := s.customersCache.Get(params.Query)
	if !found {
		var err error
		rows, err = s.dashboard.FilteredCustomers(r.Context(), params.Query)
		if err != nil {
			slog.ErrorContext(r.Context(), "Filtered customers error",
				"error", err, "filter", params.Query)
			InternalServerError("Errore caricando i clienti").Write(w)
			return
		}
		s.customersCache.Set(params.Query, rows)
	} else {
		slog.DebugContext(r.Context(), "Customer table cache hit", "filter", params.Query)
	}

	data := struct {
		Rows  []core.CustomerRow
		Query string
	}{Rows: rows, Query: params.Query}

	if err := s.templates.ExecuteTemplate(w, "customers_table.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "customers_table.html")
		InternalServerError("Errore rendering clienti").Write(w)
	}
}
