// Package worker drives the export of invoices from SQLite to the
// spreadsheet backend.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fatture/internal/amqp"
	"fatture/internal/core"
	"fatture/internal/sheets"
	"fatture/internal/storage"
)

// ExportStore is the storage surface the worker needs: load the denormalized
// invoice row and track its export state.
type ExportStore interface {
	InvoiceDetail(ctx context.Context, id string) (core.FilteredInvoice, error)
	PendingExportInvoices(ctx context.Context, limit int) ([]storage.PendingExportInvoice, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

// ExportWorker consumes invoice sync messages and appends rows to the
// spreadsheet, with a pending-row sweep as backup for lost messages.
type ExportWorker struct {
	store     ExportStore
	exporter  sheets.InvoiceExporter
	canceller sheets.CancellationWriter
	batchSize int
}

func NewExportWorker(store ExportStore, exporter sheets.InvoiceExporter, canceller sheets.CancellationWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		canceller: canceller,
		batchSize: batchSize,
	}
}

// HandleMessage dispatches one AMQP delivery on its operation.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.InvoiceSyncMessage) error {
	switch msg.Op {
	case amqp.OpDelete:
		return w.handleDelete(ctx, msg)
	default:
		return w.handleUpsert(ctx, msg)
	}
}

func (w *ExportWorker) handleUpsert(ctx context.Context, msg *amqp.InvoiceSyncMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"invoice_id", msg.ID,
		"version", msg.Version)

	inv, err := w.store.InvoiceDetail(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get invoice from storage: %w", err)
	}

	if err := w.exportInvoice(ctx, inv); err != nil {
		return fmt.Errorf("export invoice: %w", err)
	}
	return nil
}

func (w *ExportWorker) handleDelete(ctx context.Context, msg *amqp.InvoiceSyncMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "invoice_id", msg.ID)

	if w.canceller == nil {
		slog.WarnContext(ctx, "No cancellation writer configured, skipping",
			"invoice_id", msg.ID)
		return nil
	}

	ref, err := w.canceller.AppendCancellation(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("append cancellation: %w", err)
	}

	slog.InfoContext(ctx, "Recorded invoice cancellation",
		"invoice_id", msg.ID,
		"sheets_ref", ref)
	return nil
}

// ProcessPendingInvoices exports invoices still marked pending. This is the
// backup path for lost AMQP messages; it runs on a timer.
func (w *ExportWorker) ProcessPendingInvoices(ctx context.Context) error {
	return w.sweepPending(ctx, w.batchSize)
}

// StartupSyncCheck drains pending invoices accumulated while the worker was
// down, using a larger batch than the periodic sweep.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.PendingExportInvoices(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending invoices for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending invoices found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending invoices on startup, processing",
		"count", len(pending))

	synced, failed := w.exportBatch(ctx, pending)
	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *ExportWorker) sweepPending(ctx context.Context, limit int) error {
	pending, err := w.store.PendingExportInvoices(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending invoices: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending invoices", "count", len(pending))
	w.exportBatch(ctx, pending)
	return nil
}

func (w *ExportWorker) exportBatch(ctx context.Context, pending []storage.PendingExportInvoice) (synced, failed int) {
	for _, p := range pending {
		inv, err := w.store.InvoiceDetail(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load invoice", "invoice_id", p.ID, "error", err)
			if err := w.store.MarkExportError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "invoice_id", p.ID, "error", err)
			}
			failed++
			continue
		}
		if err := w.exportInvoice(ctx, inv); err != nil {
			slog.ErrorContext(ctx, "Failed to export invoice", "invoice_id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed
}

func (w *ExportWorker) exportInvoice(ctx context.Context, inv core.FilteredInvoice) error {
	ref, err := w.exporter.AppendInvoice(ctx, inv)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, inv.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"invoice_id", inv.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkExported(ctx, inv.ID); err != nil {
		// The append went through, keep the result and log the bookkeeping failure
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"invoice_id", inv.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported invoice",
		"invoice_id", inv.ID,
		"sheets_ref", ref,
		"amount_cents", inv.Amount.Cents)
	return nil
}
