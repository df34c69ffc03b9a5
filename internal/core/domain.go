package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
)

type (
	InvoiceStatus string

	// Invoice is the persisted record. ID and Date are server-assigned:
	// never taken from form input on create, never changed on update.
	Invoice struct {
		ID         string
		CustomerID string
		Amount     Money
		Status     InvoiceStatus
		Date       string // ISO date, YYYY-MM-DD
	}

	// Customer is read-only in this service; rows come from migrations
	// or an external onboarding flow.
	Customer struct {
		ID       string
		Name     string
		Email    string
		ImageURL string
	}

	// CustomerField is the minimal shape for the customer dropdown.
	CustomerField struct {
		ID   string
		Name string
	}

	// InvoiceInput is the raw form payload for create and update.
	// Amount arrives as a decimal string and is coerced to cents.
	InvoiceInput struct {
		CustomerID string
		Amount     string
		Status     string
	}

	// ParsedInvoice is a validated InvoiceInput.
	ParsedInvoice struct {
		CustomerID string
		Amount     Money
		Status     InvoiceStatus
	}
)

var (
	ErrMissingCustomer = errors.New("missing customer")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidStatus   = errors.New("invalid status")
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid:
		return true
	default:
		return false
	}
}

// Parse validates the form payload and coerces the amount to cents.
// It is the single schema for both create and update: id and date are
// excluded by construction because the server assigns them.
func (in InvoiceInput) Parse() (ParsedInvoice, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return ParsedInvoice{}, ErrMissingCustomer
	}
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return ParsedInvoice{}, err
	}
	status := InvoiceStatus(strings.TrimSpace(in.Status))
	if !status.Valid() {
		return ParsedInvoice{}, ErrInvalidStatus
	}
	return ParsedInvoice{
		CustomerID: strings.TrimSpace(in.CustomerID),
		Amount:     Money{Cents: cents},
		Status:     status,
	}, nil
}

// Today returns the server-assigned invoice date: the current day in UTC,
// date-only ISO form.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
