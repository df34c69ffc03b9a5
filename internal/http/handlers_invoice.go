package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"fatture/internal/core"
	"fatture/internal/storage"
)

// handleCreateInvoice validates the form payload and creates the invoice.
// The server assigns id and date; the client is redirected back to the
// dashboard on success.
func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	input := ParseInvoiceInput(r.Form)
	inv, err := s.invoices.Create(r.Context(), input)
	if err != nil {
		s.writeInvoiceError(w, r, err, "create")
		return
	}

	s.invalidateAfterMutation()
	NewHTMXResponse().
		TriggerInvoiceCreated(inv.ID).
		TriggerFormReset().
		Redirect("/").
		BodyHTML(`<div class="success">Fattura registrata: ` +
			template.HTMLEscapeString(inv.Amount.Format()) + `</div>`).
		Write(w)
}

// handleUpdateInvoice rewrites customer, amount and status for an existing
// invoice. Id and date never change.
func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		BadRequestError("Identificativo fattura mancante").Write(w)
		return
	}

	input := ParseInvoiceInput(r.Form)
	if err := s.invoices.Update(r.Context(), id, input); err != nil {
		s.writeInvoiceError(w, r, err, "update")
		return
	}

	s.invalidateAfterMutation()
	NewHTMXResponse().
		TriggerInvoiceUpdated(id).
		Redirect("/").
		BodyHTML(`<div class="success">Fattura aggiornata</div>`).
		Write(w)
}

// handleDeleteInvoice removes an invoice and refreshes the affected partials
// via trigger; no redirect, the table refreshes in place.
func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		id = sanitizeInput(r.URL.Query().Get("id"))
	}
	if id == "" {
		BadRequestError("Identificativo fattura mancante").Write(w)
		return
	}

	if err := s.invoices.Delete(r.Context(), id); err != nil {
		s.writeInvoiceError(w, r, err, "delete")
		return
	}

	s.invalidateAfterMutation()
	NewHTMXResponse().
		TriggerInvoiceDeleted(id).
		BodyHTML(`<div class="success">Fattura eliminata</div>`).
		Write(w)
}

// handleInvoiceForm renders the edit form partial for one invoice, with the
// stored cents converted back to a decimal amount.
func (s *Server) handleInvoiceForm(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.URL.Query().Get("id"))
	if id == "" {
		BadRequestError("Identificativo fattura mancante").Write(w)
		return
	}

	form, err := s.invoices.Form(r.Context(), id)
	if err != nil {
		s.writeInvoiceError(w, r, err, "form")
		return
	}

	customers, err := s.dashboard.Customers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Customer list error", "error", err)
	}

	data := struct {
		Form      core.InvoiceForm
		Customers []core.CustomerField
	}{Form: form, Customers: customers}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "invoice_form.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "invoice_form.html", "invoice_id", id)
		InternalServerError("Errore rendering form").Write(w)
	}
}

// writeInvoiceError maps service errors to HTMX error responses: validation
// failures are 422, missing rows 404, everything else 500.
func (s *Server) writeInvoiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, core.ErrMissingCustomer):
		UnprocessableEntityError("Seleziona un cliente").Write(w)
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Importo non valido").Write(w)
	case errors.Is(err, core.ErrInvalidStatus):
		UnprocessableEntityError("Stato non valido").Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("Fattura non trovata").Write(w)
	default:
		slog.ErrorContext(r.Context(), "Invoice operation failed", "op", op, "error", err)
		InternalServerError("Errore nel salvataggio").Write(w)
	}
}
