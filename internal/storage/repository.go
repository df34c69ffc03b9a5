// Package storage implements the SQLite persistence layer. Every mutation is
// a single statement: atomicity per write is delegated to the database, no
// multi-statement transactions are coordinated here.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fatture/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an id matches no row.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateInvoice inserts one row. The caller supplies the server-assigned id
// and date; the row starts in sync_status 'pending' for the export worker.
func (r *Repository) CreateInvoice(ctx context.Context, inv core.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, customer_id, amount, status, date)
		VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.CustomerID, inv.Amount.Cents, string(inv.Status), inv.Date)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"amount_cents", inv.Amount.Cents,
		"status", inv.Status,
		"date", inv.Date)
	return nil
}

// UpdateInvoice rewrites customer_id, amount and status for the row matching
// id. The id and the original creation date are never touched.
func (r *Repository) UpdateInvoice(ctx context.Context, id string, p core.ParsedInvoice) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET customer_id = ?, amount = ?, status = ?,
		    version = version + 1, sync_status = 'pending',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.CustomerID, p.Amount.Cents, string(p.Status), id)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update invoice %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteInvoice(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete invoice %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repository) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	var inv core.Invoice
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount, status, date
		FROM invoices WHERE id = ?`, id).
		Scan(&inv.ID, &inv.CustomerID, &inv.Amount.Cents, &status, &inv.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	inv.Status = core.InvoiceStatus(status)
	return inv, nil
}

// CreateCustomer exists for seeding and tests; customers are otherwise
// read-only in this service.
func (r *Repository) CreateCustomer(ctx context.Context, c core.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, image_url)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.ImageURL)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// SetRevenue upserts one month of the revenue projection.
func (r *Repository) SetRevenue(ctx context.Context, rev core.Revenue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revenue (month, revenue) VALUES (?, ?)
		ON CONFLICT(month) DO UPDATE SET revenue = excluded.revenue`,
		rev.Month, rev.Revenue.Cents)
	if err != nil {
		return fmt.Errorf("upsert revenue: %w", err)
	}
	return nil
}
