// Package memory is an in-process InvoiceExporter used by tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fatture/internal/core"
)

type Store struct {
	mu        sync.Mutex
	rows      []core.FilteredInvoice
	cancelled []string
	failWith  error
}

func New() *Store {
	return &Store{}
}

// FailWith makes every append return err until called again with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// AppendInvoice stores the row and returns a synthetic row reference.
func (s *Store) AppendInvoice(_ context.Context, inv core.FilteredInvoice) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return "", s.failWith
	}
	s.rows = append(s.rows, inv)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// AppendCancellation records the removed invoice id.
func (s *Store) AppendCancellation(_ context.Context, invoiceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return "", s.failWith
	}
	s.cancelled = append(s.cancelled, invoiceID)
	return fmt.Sprintf("mem:cancel:%d", len(s.cancelled)), nil
}

// Rows returns a copy of the appended invoice rows.
func (s *Store) Rows() []core.FilteredInvoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.FilteredInvoice(nil), s.rows...)
}

// Cancelled returns a copy of the recorded cancellation ids.
func (s *Store) Cancelled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cancelled...)
}
