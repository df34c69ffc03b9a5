// Package http provides the HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// the free-text filter and page number on list endpoints, and the invoice
// form payload on mutations.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fatture/internal/core"
)

// ListParams holds the free-text filter and 1-based page number parsed from
// query parameters.
type ListParams struct {
	Query string
	Page  int
}

// ParseListParams extracts "query" and "page" from URL query values. A
// missing or malformed page defaults to 1; pages below 1 are clamped.
func ParseListParams(query url.Values) ListParams {
	params := ListParams{
		Query: sanitizeInput(query.Get("query")),
		Page:  1,
	}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			params.Page = p
		}
	}

	return params
}

// ParseInvoiceInput extracts the invoice form fields from parsed form values.
// Validation happens downstream in core; this only sanitizes the raw strings.
func ParseInvoiceInput(form url.Values) core.InvoiceInput {
	return core.InvoiceInput{
		CustomerID: sanitizeInput(form.Get("customer_id")),
		Amount:     sanitizeInput(form.Get("amount")),
		Status:     sanitizeInput(form.Get("status")),
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato richiesta non valido")
	}
	return nil
}
