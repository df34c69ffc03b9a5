package services

import (
	"context"

	"fatture/internal/core"
)

// InvoiceStore is the write-side storage contract used by InvoiceService.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv core.Invoice) error
	UpdateInvoice(ctx context.Context, id string, p core.ParsedInvoice) error
	DeleteInvoice(ctx context.Context, id string) error
	GetInvoice(ctx context.Context, id string) (core.Invoice, error)
}

// DashboardStore is the read-side storage contract used by DashboardService.
type DashboardStore interface {
	Revenue(ctx context.Context) ([]core.Revenue, error)
	RecentInvoices(ctx context.Context) ([]core.RecentInvoice, error)
	CountInvoices(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	StatusTotals(ctx context.Context) (core.StatusTotals, error)
	FilteredInvoices(ctx context.Context, query string, limit, offset int) ([]core.FilteredInvoice, error)
	CountFilteredInvoices(ctx context.Context, query string) (int64, error)
	Customers(ctx context.Context) ([]core.CustomerField, error)
	FilteredCustomers(ctx context.Context, query string) ([]core.CustomerAggregate, error)
}

// SyncPublisher notifies the export pipeline about invoice mutations.
// A nil publisher disables export, mutations still succeed locally.
type SyncPublisher interface {
	PublishInvoiceSync(ctx context.Context, id string, version int64) error
	PublishInvoiceDelete(ctx context.Context, id string) error
}
