package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fatture/internal/core"
)

// DashboardService serves the read side of the dashboard. Query errors are
// always propagated to the caller wrapped with context, never swallowed into
// empty results.
type DashboardService struct {
	store           DashboardStore
	invoicesPerPage int
}

func NewDashboardService(store DashboardStore, invoicesPerPage int) *DashboardService {
	return &DashboardService{
		store:           store,
		invoicesPerPage: invoicesPerPage,
	}
}

// Revenue returns the monthly revenue rows for the chart.
func (s *DashboardService) Revenue(ctx context.Context) ([]core.Revenue, error) {
	rows, err := s.store.Revenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch revenue: %w", err)
	}
	return rows, nil
}

// LatestInvoices returns the five most recent invoices with amounts
// formatted for display.
func (s *DashboardService) LatestInvoices(ctx context.Context) ([]core.LatestInvoice, error) {
	rows, err := s.store.RecentInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest invoices: %w", err)
	}

	out := make([]core.LatestInvoice, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.LatestInvoice{
			ID:       r.ID,
			Name:     r.Name,
			Email:    r.Email,
			ImageURL: r.ImageURL,
			Amount:   r.Amount.Format(),
		})
	}
	return out, nil
}

// CardData gathers the four summary numbers with three concurrent reads.
// The first failed read cancels the others and fails the whole call.
func (s *DashboardService) CardData(ctx context.Context) (core.CardData, error) {
	var (
		invoiceCount  int64
		customerCount int64
		totals        core.StatusTotals
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountInvoices(ctx)
		if err != nil {
			return fmt.Errorf("count invoices: %w", err)
		}
		invoiceCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountCustomers(ctx)
		if err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		customerCount = n
		return nil
	})
	g.Go(func() error {
		t, err := s.store.StatusTotals(ctx)
		if err != nil {
			return fmt.Errorf("fetch status totals: %w", err)
		}
		totals = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.CardData{}, fmt.Errorf("fetch card data: %w", err)
	}

	return core.CardData{
		NumberOfCustomers:    customerCount,
		NumberOfInvoices:     invoiceCount,
		TotalPaidInvoices:    totals.Paid.Format(),
		TotalPendingInvoices: totals.Pending.Format(),
	}, nil
}

// FilteredInvoices returns one page of the invoice table matching the
// free-text filter, newest first. Pages are 1-based; anything below 1 is
// treated as the first page.
func (s *DashboardService) FilteredInvoices(ctx context.Context, query string, page int) ([]core.InvoiceRow, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.invoicesPerPage

	rows, err := s.store.FilteredInvoices(ctx, query, s.invoicesPerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch filtered invoices: %w", err)
	}

	out := make([]core.InvoiceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.InvoiceRow{
			ID:         r.ID,
			CustomerID: r.CustomerID,
			Name:       r.Name,
			Email:      r.Email,
			ImageURL:   r.ImageURL,
			Date:       r.Date,
			Amount:     r.Amount.Format(),
			Status:     r.Status,
		})
	}
	return out, nil
}

// InvoicePages returns the number of pages needed for the filtered invoice
// table: ceiling of matches over the page size, zero when nothing matches.
func (s *DashboardService) InvoicePages(ctx context.Context, query string) (int, error) {
	n, err := s.store.CountFilteredInvoices(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count invoice pages: %w", err)
	}
	pages := (n + int64(s.invoicesPerPage) - 1) / int64(s.invoicesPerPage)
	return int(pages), nil
}

// Customers returns every customer id and name for the dropdown, name
// ascending.
func (s *DashboardService) Customers(ctx context.Context) ([]core.CustomerField, error) {
	rows, err := s.store.Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch customers: %w", err)
	}
	return rows, nil
}

// FilteredCustomers returns the customer table with per-customer invoice
// counts and formatted pending/paid totals.
func (s *DashboardService) FilteredCustomers(ctx context.Context, query string) ([]core.CustomerRow, error) {
	rows, err := s.store.FilteredCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch filtered customers: %w", err)
	}

	out := make([]core.CustomerRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.CustomerRow{
			ID:            r.ID,
			Name:          r.Name,
			Email:         r.Email,
			ImageURL:      r.ImageURL,
			TotalInvoices: r.TotalInvoices,
			TotalPending:  r.TotalPending.Format(),
			TotalPaid:     r.TotalPaid.Format(),
		})
	}
	return out, nil
}
