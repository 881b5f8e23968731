package repository

import (
	"context"

	"github.com/andy/invoicedesk/internal/domain"
)

// InvoiceRepository manages invoices held by the remote API
type InvoiceRepository interface {
	// List returns one page of invoices, filtered by customer name when filter is non-empty
	List(ctx context.Context, page int, filter string) (*domain.Page, error)
	Create(ctx context.Context, draft *domain.Draft) (*domain.Invoice, error)
	Update(ctx context.Context, id int64, draft *domain.Draft) (*domain.Invoice, error)
	Delete(ctx context.Context, id int64) error
}
