package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/andy/invoicedesk/internal/repository"
	"github.com/samber/lo"
)

// InvoiceService wraps the remote invoice collection and logs every call
type InvoiceService interface {
	// ListPage fetches one page, filtered by customer name
	ListPage(ctx context.Context, page int, filter string) (*domain.Page, error)

	// Save creates the draft when selectedID is nil, otherwise updates that invoice
	Save(ctx context.Context, selectedID *int64, draft *domain.Draft) (*domain.Invoice, error)

	// Delete removes an invoice
	Delete(ctx context.Context, id int64) error

	// Find scans the filtered collection page by page for an invoice id
	Find(ctx context.Context, id int64, filter string) (*domain.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	log         *logger.Logger
	pageSize    int
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, log *logger.Logger, pageSize int) InvoiceService {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		log:         log,
		pageSize:    pageSize,
	}
}

func (s *invoiceService) ListPage(ctx context.Context, page int, filter string) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}

	start := time.Now()
	p, err := s.invoiceRepo.List(ctx, page, filter)
	if err != nil {
		s.log.Errorw("list invoices failed", "page", page, "filter", filter, "duration", time.Since(start), "error", err)
		return nil, err
	}

	s.log.Debugw("listed invoices", "page", page, "filter", filter, "count", p.Count, "returned", len(p.Results), "duration", time.Since(start))
	return p, nil
}

func (s *invoiceService) Save(ctx context.Context, selectedID *int64, draft *domain.Draft) (*domain.Invoice, error) {
	if err := draft.Validate(); err != nil {
		s.log.Infow("draft rejected", "error", err)
		return nil, err
	}

	start := time.Now()
	if selectedID == nil {
		inv, err := s.invoiceRepo.Create(ctx, draft)
		if err != nil {
			s.log.Errorw("create invoice failed", "invoice_number", draft.InvoiceNumber, "duration", time.Since(start), "error", err)
			return nil, err
		}
		s.log.Infow("created invoice", "id", inv.ID, "invoice_number", draft.InvoiceNumber, "duration", time.Since(start))
		return inv, nil
	}

	id := *selectedID
	inv, err := s.invoiceRepo.Update(ctx, id, draft)
	if err != nil {
		s.log.Errorw("update invoice failed", "id", id, "duration", time.Since(start), "error", err)
		return nil, err
	}
	s.log.Infow("updated invoice", "id", id, "invoice_number", draft.InvoiceNumber, "duration", time.Since(start))
	return inv, nil
}

func (s *invoiceService) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		s.log.Errorw("delete invoice failed", "id", id, "duration", time.Since(start), "error", err)
		return err
	}
	s.log.Infow("deleted invoice", "id", id, "duration", time.Since(start))
	return nil
}

func (s *invoiceService) Find(ctx context.Context, id int64, filter string) (*domain.Invoice, error) {
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		p, err := s.ListPage(ctx, page, filter)
		if err != nil {
			return nil, err
		}
		if inv, ok := lo.Find(p.Results, func(inv *domain.Invoice) bool { return inv.ID == id }); ok {
			return inv, nil
		}
		totalPages = domain.TotalPages(p.Count, s.pageSize)
	}

	return nil, ierr.NewError(fmt.Sprintf("invoice %d not found", id)).
		WithHintf("Invoice %d was not found", id).
		Mark(ierr.ErrNotFound)
}
