package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"fatture/internal/core"
)

// handleCards renders the four summary cards. The result is cached briefly;
// mutations invalidate it.
func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	cards, found := s.cardsCache.Get(cardsKey)
	if !found {
		var err error
		cards, err = s.dashboard.CardData(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Card data error", "error", err)
			InternalServerError("Errore caricando il riepilogo").Write(w)
			return
		}
		s.cardsCache.Set(cardsKey, cards)
	} else {
		slog.DebugContext(r.Context(), "Card data cache hit")
	}

	if err := s.templates.ExecuteTemplate(w, "cards.html", cards); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "cards.html")
		InternalServerError("Errore rendering riepilogo").Write(w)
	}
}

// handleRevenue renders the monthly revenue chart partial.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	rows, found := s.revenueCache.Get(revenueKey)
	if !found {
		var err error
		rows, err = s.dashboard.Revenue(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Revenue error", "error", err)
			InternalServerError("Errore caricando i ricavi").Write(w)
			return
		}
		s.revenueCache.Set(revenueKey, rows)
	}

	// Scale bars against the largest month
	var maxCents int64
	for _, row := range rows {
		if row.Revenue.Cents > maxCents {
			maxCents = row.Revenue.Cents
		}
	}

	type bar struct {
		Month  string
		Amount string
		Width  int
	}
	data := struct {
		Rows []bar
	}{}
	for _, row := range rows {
		width := 0
		if maxCents > 0 && row.Revenue.Cents > 0 {
			width = int((row.Revenue.Cents*100 + maxCents/2) / maxCents)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, bar{
			Month:  row.Month,
			Amount: row.Revenue.Format(),
			Width:  width,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "revenue.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "revenue.html")
		InternalServerError("Errore rendering ricavi").Write(w)
	}
}

// handleLatestInvoices renders the five most recent invoices.
func (s *Server) handleLatestInvoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	rows, found := s.latestCache.Get(latestKey)
	if !found {
		var err error
		rows, err = s.dashboard.LatestInvoices(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Latest invoices error", "error", err)
			InternalServerError("Errore caricando le ultime fatture").Write(w)
			return
		}
		s.latestCache.Set(latestKey, rows)
	}

	data := struct {
		Rows []core.LatestInvoice
	}{Rows: rows}

	if err := s.templates.ExecuteTemplate(w, "latest_invoices.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "latest_invoices.html")
		InternalServerError("Errore rendering ultime fatture").Write(w)
	}
}

// handleInvoicesTable renders one page of the filtered invoice table plus
// its pagination controls. Page data and page count are cached together
// keyed on filter and page.
func (s *Server) handleInvoicesTable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	params := ParseListParams(r.URL.Query())
	key := params.Query + "|" + strconv.Itoa(params.Page)

	page, found := s.invoicesCache.Get(key)
	if !found {
		rows, err := s.dashboard.FilteredInvoices(r.Context(), params.Query, params.Page)
		if err != nil {
			slog.ErrorContext(r.Context(), "Filtered invoices error",
				"error", err, "filter", params.Query, "page", params.Page)
			InternalServerError("Errore caricando le fatture").Write(w)
			return
		}
		pages, err := s.dashboard.InvoicePages(r.Context(), params.Query)
		if err != nil {
			slog.ErrorContext(r.Context(), "Invoice pages error",
				"error", err, "filter", params.Query)
			InternalServerError("Errore caricando le fatture").Write(w)
			return
		}
		page = invoicePage{Rows: rows, Pages: pages, Page: params.Page, Query: params.Query}
		s.invoicesCache.Set(key, page)
	} else {
		slog.DebugContext(r.Context(), "Invoice table cache hit",
			"filter", params.Query, "page", params.Page)
	}

	if err := s.templates.ExecuteTemplate(w, "invoices_table.html", page); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "invoices_table.html")
		InternalServerError("Errore rendering fatture").Write(w)
	}
}
