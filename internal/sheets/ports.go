package sheets

import (
	"context"

	"fatture/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// InvoiceExporter appends invoice rows to the export spreadsheet.
	InvoiceExporter interface {
		AppendInvoice(ctx context.Context, inv core.FilteredInvoice) (rowRef string, err error)
	}

	// CancellationWriter records removed invoices. Rows already exported are
	// never rewritten in place; a cancellation row is appended instead.
	CancellationWriter interface {
		AppendCancellation(ctx context.Context, invoiceID string) (rowRef string, err error)
	}
)
