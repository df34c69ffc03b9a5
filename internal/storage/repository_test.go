package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"fatture/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedCustomer(t *testing.T, repo *Repository, id, name, email string) {
	t.Helper()
	err := repo.CreateCustomer(context.Background(), core.Customer{
		ID:       id,
		Name:     name,
		Email:    email,
		ImageURL: "/customers/" + id + ".png",
	})
	if err != nil {
		t.Fatalf("CreateCustomer(%s): %v", id, err)
	}
}

func TestCreateAndGetInvoice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	inv := core.Invoice{
		ID:         "inv-1",
		CustomerID: "c1",
		Amount:     core.Money{Cents: 4250},
		Status:     core.StatusPending,
		Date:       "2026-08-29",
	}
	if err := repo.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	got, err := repo.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got != inv {
		t.Errorf("GetInvoice = %+v, want %+v", got, inv)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetInvoice(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInvoice error = %v, want ErrNotFound", err)
	}
}

func TestUpdateInvoicePreservesIDAndDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")
	seedCustomer(t, repo, "c2", "Grace Hopper", "grace@example.com")

	if err := repo.CreateInvoice(ctx, core.Invoice{
		ID:         "inv-1",
		CustomerID: "c1",
		Amount:     core.Money{Cents: 1000},
		Status:     core.StatusPending,
		Date:       "2026-01-15",
	}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	err := repo.UpdateInvoice(ctx, "inv-1", core.ParsedInvoice{
		CustomerID: "c2",
		Amount:     core.Money{Cents: 9999},
		Status:     core.StatusPaid,
	})
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}

	got, err := repo.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.ID != "inv-1" {
		t.Errorf("ID = %s, want inv-1", got.ID)
	}
	if got.Date != "2026-01-15" {
		t.Errorf("Date = %s, want original 2026-01-15", got.Date)
	}
	if got.CustomerID != "c2" || got.Amount.Cents != 9999 || got.Status != core.StatusPaid {
		t.Errorf("updated fields = %+v", got)
	}
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateInvoice(context.Background(), "missing", core.ParsedInvoice{
		CustomerID: "c1",
		Amount:     core.Money{Cents: 100},
		Status:     core.StatusPaid,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateInvoice error = %v, want ErrNotFound", err)
	}
}

func TestDeleteInvoice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	if err := repo.CreateInvoice(ctx, core.Invoice{
		ID:         "inv-1",
		CustomerID: "c1",
		Amount:     core.Money{Cents: 100},
		Status:     core.StatusPaid,
		Date:       "2026-08-29",
	}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if err := repo.DeleteInvoice(ctx, "inv-1"); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if _, err := repo.GetInvoice(ctx, "inv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInvoice after delete = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteInvoice(ctx, "inv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteInvoice = %v, want ErrNotFound", err)
	}
}

func TestFilteredInvoicesPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	// Eight invoices across eight days; page size 6 gives two pages.
	for i := 1; i <= 8; i++ {
		err := repo.CreateInvoice(ctx, core.Invoice{
			ID:         fmt.Sprintf("inv-%d", i),
			CustomerID: "c1",
			Amount:     core.Money{Cents: int64(i) * 100},
			Status:     core.StatusPaid,
			Date:       fmt.Sprintf("2026-08-%02d", i),
		})
		if err != nil {
			t.Fatalf("CreateInvoice %d: %v", i, err)
		}
	}

	page1, err := repo.FilteredInvoices(ctx, "", 6, 0)
	if err != nil {
		t.Fatalf("FilteredInvoices page 1: %v", err)
	}
	if len(page1) != 6 {
		t.Fatalf("page 1 len = %d, want 6", len(page1))
	}
	if page1[0].ID != "inv-8" {
		t.Errorf("page 1 first = %s, want inv-8 (newest first)", page1[0].ID)
	}
	if page1[5].ID != "inv-3" {
		t.Errorf("page 1 last = %s, want inv-3", page1[5].ID)
	}

	page2, err := repo.FilteredInvoices(ctx, "", 6, 6)
	if err != nil {
		t.Fatalf("FilteredInvoices page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 len = %d, want 2", len(page2))
	}
	if page2[0].ID != "inv-2" || page2[1].ID != "inv-1" {
		t.Errorf("page 2 = [%s %s], want [inv-2 inv-1]", page2[0].ID, page2[1].ID)
	}

	n, err := repo.CountFilteredInvoices(ctx, "")
	if err != nil {
		t.Fatalf("CountFilteredInvoices: %v", err)
	}
	if n != 8 {
		t.Errorf("count = %d, want 8", n)
	}
}

func TestFilteredInvoicesMatching(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")
	seedCustomer(t, repo, "c2", "Grace Hopper", "grace@example.com")

	invoices := []core.Invoice{
		{ID: "inv-1", CustomerID: "c1", Amount: core.Money{Cents: 4250}, Status: core.StatusPaid, Date: "2026-08-01"},
		{ID: "inv-2", CustomerID: "c2", Amount: core.Money{Cents: 100}, Status: core.StatusPending, Date: "2026-08-02"},
	}
	for _, inv := range invoices {
		if err := repo.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("CreateInvoice %s: %v", inv.ID, err)
		}
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "by customer name case-insensitive", query: "ADA", wantIDs: []string{"inv-1"}},
		{name: "by email", query: "grace@", wantIDs: []string{"inv-2"}},
		{name: "by status", query: "pending", wantIDs: []string{"inv-2"}},
		{name: "by amount substring", query: "4250", wantIDs: []string{"inv-1"}},
		{name: "no match", query: "zzz", wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FilteredInvoices(ctx, tt.query, 6, 0)
			if err != nil {
				t.Fatalf("FilteredInvoices(%q): %v", tt.query, err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("row %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestCountFilteredInvoicesMatchesDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	if err := repo.CreateInvoice(ctx, core.Invoice{
		ID:         "inv-1",
		CustomerID: "c1",
		Amount:     core.Money{Cents: 100},
		Status:     core.StatusPaid,
		Date:       "2026-08-29",
	}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	// The count filter also matches the date text.
	n, err := repo.CountFilteredInvoices(ctx, "2026-08")
	if err != nil {
		t.Fatalf("CountFilteredInvoices: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestStatusTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	empty, err := repo.StatusTotals(ctx)
	if err != nil {
		t.Fatalf("StatusTotals on empty table: %v", err)
	}
	if empty.Paid.Cents != 0 || empty.Pending.Cents != 0 {
		t.Errorf("empty totals = %+v, want zeros", empty)
	}

	invoices := []core.Invoice{
		{ID: "inv-1", CustomerID: "c1", Amount: core.Money{Cents: 1000}, Status: core.StatusPaid, Date: "2026-08-01"},
		{ID: "inv-2", CustomerID: "c1", Amount: core.Money{Cents: 2500}, Status: core.StatusPaid, Date: "2026-08-02"},
		{ID: "inv-3", CustomerID: "c1", Amount: core.Money{Cents: 700}, Status: core.StatusPending, Date: "2026-08-03"},
	}
	for _, inv := range invoices {
		if err := repo.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("CreateInvoice %s: %v", inv.ID, err)
		}
	}

	got, err := repo.StatusTotals(ctx)
	if err != nil {
		t.Fatalf("StatusTotals: %v", err)
	}
	if got.Paid.Cents != 3500 {
		t.Errorf("Paid = %d, want 3500", got.Paid.Cents)
	}
	if got.Pending.Cents != 700 {
		t.Errorf("Pending = %d, want 700", got.Pending.Cents)
	}
}

func TestRecentInvoicesLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	for i := 1; i <= 7; i++ {
		err := repo.CreateInvoice(ctx, core.Invoice{
			ID:         fmt.Sprintf("inv-%d", i),
			CustomerID: "c1",
			Amount:     core.Money{Cents: int64(i) * 100},
			Status:     core.StatusPaid,
			Date:       fmt.Sprintf("2026-08-%02d", i),
		})
		if err != nil {
			t.Fatalf("CreateInvoice %d: %v", i, err)
		}
	}

	got, err := repo.RecentInvoices(ctx)
	if err != nil {
		t.Fatalf("RecentInvoices: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].ID != "inv-7" {
		t.Errorf("first = %s, want inv-7 (newest)", got[0].ID)
	}
	if got[0].Name != "Ada Lovelace" {
		t.Errorf("Name = %s, want joined customer name", got[0].Name)
	}
}

func TestCustomersOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Grace Hopper", "grace@example.com")
	seedCustomer(t, repo, "c2", "Ada Lovelace", "ada@example.com")

	got, err := repo.Customers(ctx)
	if err != nil {
		t.Fatalf("Customers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Ada Lovelace" || got[1].Name != "Grace Hopper" {
		t.Errorf("order = [%s %s], want name ascending", got[0].Name, got[1].Name)
	}
}

func TestFilteredCustomersAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")
	seedCustomer(t, repo, "c2", "Grace Hopper", "grace@example.com")

	invoices := []core.Invoice{
		{ID: "inv-1", CustomerID: "c1", Amount: core.Money{Cents: 1000}, Status: core.StatusPaid, Date: "2026-08-01"},
		{ID: "inv-2", CustomerID: "c1", Amount: core.Money{Cents: 500}, Status: core.StatusPending, Date: "2026-08-02"},
		{ID: "inv-3", CustomerID: "c1", Amount: core.Money{Cents: 250}, Status: core.StatusPending, Date: "2026-08-03"},
	}
	for _, inv := range invoices {
		if err := repo.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("CreateInvoice %s: %v", inv.ID, err)
		}
	}

	got, err := repo.FilteredCustomers(ctx, "")
	if err != nil {
		t.Fatalf("FilteredCustomers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (customers without invoices included)", len(got))
	}

	ada := got[0]
	if ada.Name != "Ada Lovelace" {
		t.Fatalf("first = %s, want Ada Lovelace", ada.Name)
	}
	if ada.TotalInvoices != 3 {
		t.Errorf("TotalInvoices = %d, want 3", ada.TotalInvoices)
	}
	if ada.TotalPaid.Cents != 1000 {
		t.Errorf("TotalPaid = %d, want 1000", ada.TotalPaid.Cents)
	}
	if ada.TotalPending.Cents != 750 {
		t.Errorf("TotalPending = %d, want 750", ada.TotalPending.Cents)
	}

	grace := got[1]
	if grace.TotalInvoices != 0 || grace.TotalPaid.Cents != 0 || grace.TotalPending.Cents != 0 {
		t.Errorf("customer without invoices = %+v, want zero aggregates", grace)
	}

	filtered, err := repo.FilteredCustomers(ctx, "ada")
	if err != nil {
		t.Fatalf("FilteredCustomers(ada): %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "c1" {
		t.Errorf("filtered = %+v, want only c1", filtered)
	}
}

func TestExportStatusLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")

	if err := repo.CreateInvoice(ctx, core.Invoice{
		ID:         "inv-1",
		CustomerID: "c1",
		Amount:     core.Money{Cents: 100},
		Status:     core.StatusPaid,
		Date:       "2026-08-29",
	}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	pending, err := repo.PendingExportInvoices(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExportInvoices: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "inv-1" || pending[0].Version != 1 {
		t.Fatalf("pending = %+v, want inv-1 version 1", pending)
	}

	if err := repo.MarkExported(ctx, "inv-1"); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	pending, err = repo.PendingExportInvoices(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExportInvoices after mark: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after MarkExported = %+v, want empty", pending)
	}

	// Update flips the row back to pending and bumps the version.
	err = repo.UpdateInvoice(ctx, "inv-1", core.ParsedInvoice{
		CustomerID: "c1",
		Amount:     core.Money{Cents: 200},
		Status:     core.StatusPaid,
	})
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	pending, err = repo.PendingExportInvoices(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExportInvoices after update: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("pending after update = %+v, want inv-1 version 2", pending)
	}
}

func TestRevenueUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	months := []core.Revenue{
		{Month: "Jan", Revenue: core.Money{Cents: 200000}},
		{Month: "Feb", Revenue: core.Money{Cents: 180000}},
	}
	for _, m := range months {
		if err := repo.SetRevenue(ctx, m); err != nil {
			t.Fatalf("SetRevenue(%s): %v", m.Month, err)
		}
	}
	// Upsert overwrites.
	if err := repo.SetRevenue(ctx, core.Revenue{Month: "Jan", Revenue: core.Money{Cents: 210000}}); err != nil {
		t.Fatalf("SetRevenue upsert: %v", err)
	}

	got, err := repo.Revenue(ctx)
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	byMonth := map[string]int64{}
	for _, r := range got {
		byMonth[r.Month] = r.Revenue.Cents
	}
	if byMonth["Jan"] != 210000 {
		t.Errorf("Jan = %d, want upserted 210000", byMonth["Jan"])
	}
	if byMonth["Feb"] != 180000 {
		t.Errorf("Feb = %d, want 180000", byMonth["Feb"])
	}
}

func TestCardCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, repo, "c1", "Ada Lovelace", "ada@example.com")
	seedCustomer(t, repo, "c2", "Grace Hopper", "grace@example.com")

	if err := repo.CreateInvoice(ctx, core.Invoice{
		ID:         "inv-1",
		CustomerID: "c1",
		Amount:     core.Money{Cents: 100},
		Status:     core.StatusPaid,
		Date:       "2026-08-29",
	}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	customers, err := repo.CountCustomers(ctx)
	if err != nil {
		t.Fatalf("CountCustomers: %v", err)
	}
	if customers != 2 {
		t.Errorf("CountCustomers = %d, want 2", customers)
	}
	invoices, err := repo.CountInvoices(ctx)
	if err != nil {
		t.Fatalf("CountInvoices: %v", err)
	}
	if invoices != 1 {
		t.Errorf("CountInvoices = %d, want 1", invoices)
	}
}
