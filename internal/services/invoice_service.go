// Package services orchestrates invoice mutations and dashboard reads across
// the SQLite repository and the AMQP export pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fatture/internal/core"
)

// InvoiceService validates form input and applies invoice mutations.
// Validation always runs before any write: a payload that fails the schema
// never reaches storage.
type InvoiceService struct {
	store     InvoiceStore
	publisher SyncPublisher
}

func NewInvoiceService(store InvoiceStore, publisher SyncPublisher) *InvoiceService {
	return &InvoiceService{
		store:     store,
		publisher: publisher,
	}
}

// Create validates the form payload, assigns a fresh id and today's date,
// and persists the invoice. The export notification is best-effort: a broker
// failure is logged, the local write stands.
func (s *InvoiceService) Create(ctx context.Context, in core.InvoiceInput) (core.Invoice, error) {
	parsed, err := in.Parse()
	if err != nil {
		return core.Invoice{}, fmt.Errorf("validate invoice: %w", err)
	}

	inv := core.Invoice{
		ID:         uuid.NewString(),
		CustomerID: parsed.CustomerID,
		Amount:     parsed.Amount,
		Status:     parsed.Status,
		Date:       core.Today(),
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	if err := s.publishSync(ctx, inv.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"invoice_id", inv.ID, "error", err)
		// Don't fail the request, the invoice is saved locally
	}

	return inv, nil
}

// Update validates the payload and rewrites customer, amount and status for
// the invoice matching id. The id and original date are never modified.
func (s *InvoiceService) Update(ctx context.Context, id string, in core.InvoiceInput) error {
	parsed, err := in.Parse()
	if err != nil {
		return fmt.Errorf("validate invoice: %w", err)
	}

	if err := s.store.UpdateInvoice(ctx, id, parsed); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}

	if err := s.publishSync(ctx, id, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"invoice_id", id, "error", err)
	}

	return nil
}

// Delete removes the invoice matching id.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"invoice_id", id, "error", err)
	}

	return nil
}

// Form loads a stored invoice shaped for the edit form, with cents converted
// back to a decimal amount string.
func (s *InvoiceService) Form(ctx context.Context, id string) (core.InvoiceForm, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return core.InvoiceForm{}, fmt.Errorf("load invoice form: %w", err)
	}
	return core.InvoiceForm{
		ID:         inv.ID,
		CustomerID: inv.CustomerID,
		Amount:     inv.Amount.Decimal(),
		Status:     inv.Status,
	}, nil
}

func (s *InvoiceService) publishSync(ctx context.Context, id string, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishInvoiceSync(ctx, id, version)
}

func (s *InvoiceService) publishDelete(ctx context.Context, id string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishInvoiceDelete(ctx, id)
}
