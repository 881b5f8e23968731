package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The invoice API speaks bare JSON numbers for money, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultPageSize is the number of invoices the API returns per page
const DefaultPageSize = 10

// Invoice is a billable record as returned by the API.
// ID is zero until the server has accepted the first create.
type Invoice struct {
	ID            int64           `json:"id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Date          string          `json:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount"` // Server-computed
	Details       []LineItem      `json:"details"`
}

// LineItem has no identity of its own; its position in Details is its display order
type LineItem struct {
	Description string          `json:"description" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// Page is one slice of the invoice collection.
// Count is the total number of invoices matching the active filter.
type Page struct {
	Results []*Invoice `json:"results"`
	Count   int        `json:"count"`
}

// NewLineItem returns the blank entry appended by "add line item"
func NewLineItem() LineItem {
	return LineItem{Description: "", Quantity: 1, UnitPrice: decimal.Zero}
}

// Amount returns quantity * unit price
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// TotalPages returns ceil(count / pageSize), never less than 1
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// Clone returns a deep copy of the invoice
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	out := *i
	out.Details = append([]LineItem(nil), i.Details...)
	return &out
}
