package http

import (
	"fmt"
	"log/slog"
	"net/http"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requests, rateLimited, errors := s.metrics.snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", requests)
	fmt.Fprintf(w, "http_rate_limited_total %d\n", rateLimited)
	fmt.Fprintf(w, "http_error_responses_total %d\n", errors)
	fmt.Fprintf(w, "cache_invoice_pages %d\n", s.invoicesCache.Size())
	fmt.Fprintf(w, "cache_customer_tables %d\n", s.customersCache.Size())
}

// handleIndex renders the dashboard shell; the partials load themselves via
// HTMX.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Pagina non trovata").Write(w)
		return
	}

	customers, err := s.dashboard.Customers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Customer list error", "error", err)
	}

	params := ParseListParams(r.URL.Query())
	data := struct {
		Customers []struct{ ID, Name string }
		Query     string
		Page      int
	}{Query: params.Query, Page: params.Page}
	for _, c := range customers {
		data.Customers = append(data.Customers, struct{ ID, Name string }{c.ID, c.Name})
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed",
			"error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
