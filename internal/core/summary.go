package core

// Revenue is one row of the precomputed revenue table.
type Revenue struct {
	Month   string
	Revenue Money
}

// RecentInvoice is a raw row from the recent_invoices view.
type RecentInvoice struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
	Amount   Money
}

// LatestInvoice is a RecentInvoice shaped for display, with the amount
// formatted as a currency string.
type LatestInvoice struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
	Amount   string
}

// StatusTotals holds the paid/pending sums from the invoice_status view.
type StatusTotals struct {
	Paid    Money
	Pending Money
}

// CardData is the dashboard summary combined from three independent reads.
type CardData struct {
	NumberOfCustomers    int64
	NumberOfInvoices     int64
	TotalPaidInvoices    string
	TotalPendingInvoices string
}

// FilteredInvoice is a raw row from the invoices_with_cast view. Joined
// customer fields fall back to empty strings when missing.
type FilteredInvoice struct {
	ID         string
	CustomerID string
	Name       string
	Email      string
	ImageURL   string
	Date       string
	Amount     Money
	Status     InvoiceStatus
}

// InvoiceRow is a FilteredInvoice shaped for the invoice table, with the
// amount formatted as a currency string.
type InvoiceRow struct {
	ID         string
	CustomerID string
	Name       string
	Email      string
	ImageURL   string
	Date       string
	Amount     string
	Status     InvoiceStatus
}

// InvoiceForm is a stored invoice shaped for the edit form: cents are
// converted back to a decimal amount string.
type InvoiceForm struct {
	ID         string
	CustomerID string
	Amount     string
	Status     InvoiceStatus
}

// CustomerAggregate is one row of the filtered customer table: per-customer
// invoice count plus pending/paid sums.
type CustomerAggregate struct {
	ID            string
	Name          string
	Email         string
	ImageURL      string
	TotalInvoices int64
	TotalPending  Money
	TotalPaid     Money
}

// CustomerRow is a CustomerAggregate shaped for display.
type CustomerRow struct {
	ID            string
	Name          string
	Email         string
	ImageURL      string
	TotalInvoices int64
	TotalPending  string
	TotalPaid     string
}
