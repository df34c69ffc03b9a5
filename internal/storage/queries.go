package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fatture/internal/core"
)

// Revenue returns every row of the revenue projection.
func (r *Repository) Revenue(ctx context.Context) ([]core.Revenue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT month, revenue FROM revenue`)
	if err != nil {
		return nil, fmt.Errorf("query revenue: %w", err)
	}
	defer rows.Close()

	var out []core.Revenue
	for rows.Next() {
		var rev core.Revenue
		if err := rows.Scan(&rev.Month, &rev.Revenue.Cents); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// RecentInvoices reads the precomputed recent_invoices view (latest five).
func (r *Repository) RecentInvoices(ctx context.Context) ([]core.RecentInvoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, image_url, amount FROM recent_invoices`)
	if err != nil {
		return nil, fmt.Errorf("query recent invoices: %w", err)
	}
	defer rows.Close()

	var out []core.RecentInvoice
	for rows.Next() {
		var ri core.RecentInvoice
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.Email, &ri.ImageURL, &ri.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan recent invoice: %w", err)
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

func (r *Repository) CountInvoices(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// StatusTotals reads the single-row invoice_status aggregate view.
func (r *Repository) StatusTotals(ctx context.Context) (core.StatusTotals, error) {
	var st core.StatusTotals
	err := r.db.QueryRowContext(ctx, `SELECT paid, pending FROM invoice_status`).
		Scan(&st.Paid.Cents, &st.Pending.Cents)
	if err != nil {
		return core.StatusTotals{}, fmt.Errorf("query status totals: %w", err)
	}
	return st, nil
}

// FilteredInvoices runs the case-insensitive OR filter over status,
// amount-as-text, customer name and customer email against the denormalized
// view, newest first, with LIMIT/OFFSET pagination. Joined customer fields
// fall back to empty strings.
func (r *Repository) FilteredInvoices(ctx context.Context, query string, limit, offset int) ([]core.FilteredInvoice, error) {
	pattern := likePattern(query)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, customer_name, customer_email, image_url,
		       date_text, amount, status
		FROM invoices_with_cast
		WHERE LOWER(status) LIKE ?
		   OR amount_text LIKE ?
		   OR LOWER(customer_name) LIKE ?
		   OR LOWER(customer_email) LIKE ?
		ORDER BY date_text DESC
		LIMIT ? OFFSET ?`,
		pattern, pattern, pattern, pattern, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query filtered invoices: %w", err)
	}
	defer rows.Close()

	var out []core.FilteredInvoice
	for rows.Next() {
		var fi core.FilteredInvoice
		var name, email, image sql.NullString
		var status string
		if err := rows.Scan(&fi.ID, &fi.CustomerID, &name, &email, &image,
			&fi.Date, &fi.Amount.Cents, &status); err != nil {
			return nil, fmt.Errorf("scan filtered invoice: %w", err)
		}
		fi.Name = name.String
		fi.Email = email.String
		fi.ImageURL = image.String
		fi.Status = core.InvoiceStatus(status)
		out = append(out, fi)
	}
	return out, rows.Err()
}

// CountFilteredInvoices counts rows matching the substring filter. The count
// filter additionally matches the date text, mirroring the page-count query
// of the original dashboard.
func (r *Repository) CountFilteredInvoices(ctx context.Context, query string) (int64, error) {
	pattern := likePattern(query)
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM invoices_with_cast
		WHERE LOWER(customer_name) LIKE ?
		   OR LOWER(customer_email) LIKE ?
		   OR amount_text LIKE ?
		   OR date_text LIKE ?
		   OR LOWER(status) LIKE ?`,
		pattern, pattern, pattern, pattern, pattern).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count filtered invoices: %w", err)
	}
	return n, nil
}

// InvoiceDetail reads one row of the denormalized view, used by the export
// worker to build a spreadsheet row without a second customer lookup.
func (r *Repository) InvoiceDetail(ctx context.Context, id string) (core.FilteredInvoice, error) {
	var fi core.FilteredInvoice
	var name, email, image sql.NullString
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, customer_name, customer_email, image_url,
		       date_text, amount, status
		FROM invoices_with_cast WHERE id = ?`, id).
		Scan(&fi.ID, &fi.CustomerID, &name, &email, &image,
			&fi.Date, &fi.Amount.Cents, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FilteredInvoice{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.FilteredInvoice{}, fmt.Errorf("get invoice detail: %w", err)
	}
	fi.Name = name.String
	fi.Email = email.String
	fi.ImageURL = image.String
	fi.Status = core.InvoiceStatus(status)
	return fi, nil
}

// Customers returns id and name for every customer, name ascending.
func (r *Repository) Customers(ctx context.Context) ([]core.CustomerField, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM customers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []core.CustomerField
	for rows.Next() {
		var cf core.CustomerField
		if err := rows.Scan(&cf.ID, &cf.Name); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, cf)
	}
	return out, rows.Err()
}

// FilteredCustomers joins customers to invoices and aggregates invoice count
// plus pending/paid sums per customer, filtered on name or email.
func (r *Repository) FilteredCustomers(ctx context.Context, query string) ([]core.CustomerAggregate, error) {
	pattern := likePattern(query)
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.email, c.image_url,
		       COUNT(i.id),
		       COALESCE(SUM(CASE WHEN i.status = 'pending' THEN i.amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN i.status = 'paid' THEN i.amount ELSE 0 END), 0)
		FROM customers c
		LEFT JOIN invoices i ON c.id = i.customer_id
		WHERE LOWER(c.name) LIKE ? OR LOWER(c.email) LIKE ?
		GROUP BY c.id, c.name, c.email, c.image_url
		ORDER BY c.name ASC`,
		pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("query filtered customers: %w", err)
	}
	defer rows.Close()

	var out []core.CustomerAggregate
	for rows.Next() {
		var ca core.CustomerAggregate
		if err := rows.Scan(&ca.ID, &ca.Name, &ca.Email, &ca.ImageURL,
			&ca.TotalInvoices, &ca.TotalPending.Cents, &ca.TotalPaid.Cents); err != nil {
			return nil, fmt.Errorf("scan filtered customer: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// PendingExportInvoice is the minimal shape queued for the export worker.
type PendingExportInvoice struct {
	ID      string
	Version int64
}

// PendingExportInvoices returns invoices not yet exported, oldest first.
func (r *Repository) PendingExportInvoices(ctx context.Context, limit int) ([]PendingExportInvoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version FROM invoices
		WHERE sync_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending export invoices: %w", err)
	}
	defer rows.Close()

	var out []PendingExportInvoice
	for rows.Next() {
		var p PendingExportInvoice
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending export invoice: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark invoice exported: %w", err)
	}
	return nil
}

func (r *Repository) MarkExportError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark invoice export error: %w", err)
	}
	return nil
}

func likePattern(query string) string {
	return "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
}
