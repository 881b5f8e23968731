package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/httpclient"
)

// invoicesPath is the collection path appended to a prefix
const invoicesPath = "/invoices/"

// apiPrefix is used by list, create and update
const apiPrefix = "/api"

// InvoiceRepo implements InvoiceRepository over the REST API
type InvoiceRepo struct {
	client       httpclient.Client
	baseURL      string
	deletePrefix string
}

// NewInvoiceRepo creates a new invoice repository. deletePrefix is the path
// prefix used for DELETE only ("/api" normally).
func NewInvoiceRepo(client httpclient.Client, baseURL, deletePrefix string) *InvoiceRepo {
	return &InvoiceRepo{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		deletePrefix: "/" + strings.Trim(deletePrefix, "/"),
	}
}

func (r *InvoiceRepo) collectionURL(prefix string) string {
	if prefix == "/" {
		prefix = ""
	}
	return r.baseURL + prefix + invoicesPath
}

func (r *InvoiceRepo) itemURL(prefix string, id int64) string {
	return r.collectionURL(prefix) + strconv.FormatInt(id, 10) + "/"
}

// List fetches GET /api/invoices/?page=N[&customer_name=S]
func (r *InvoiceRepo) List(ctx context.Context, page int, filter string) (*domain.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if filter != "" {
		q.Set("customer_name", filter)
	}

	resp, err := r.client.Send(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    r.collectionURL(apiPrefix) + "?" + q.Encode(),
	})
	if err != nil {
		return nil, err
	}

	var p domain.Page
	if err := decode(resp.Body, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		p.Results = make([]*domain.Invoice, 0)
	}
	return &p, nil
}

// Create sends POST /api/invoices/
func (r *InvoiceRepo) Create(ctx context.Context, draft *domain.Draft) (*domain.Invoice, error) {
	return r.write(ctx, http.MethodPost, r.collectionURL(apiPrefix), draft)
}

// Update sends PUT /api/invoices/<id>/
func (r *InvoiceRepo) Update(ctx context.Context, id int64, draft *domain.Draft) (*domain.Invoice, error) {
	if id <= 0 {
		return nil, ierr.NewError(fmt.Sprintf("invalid invoice id %d", id)).
			WithHint("Select an existing invoice to update").
			Mark(ierr.ErrValidation)
	}
	return r.write(ctx, http.MethodPut, r.itemURL(apiPrefix, id), draft)
}

// Delete sends DELETE <deletePrefix>/invoices/<id>/
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.client.Send(ctx, &httpclient.Request{
		Method: http.MethodDelete,
		URL:    r.itemURL(r.deletePrefix, id),
	})
	return err
}

func (r *InvoiceRepo) write(ctx context.Context, method, u string, draft *domain.Draft) (*domain.Invoice, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := r.client.Send(ctx, &httpclient.Request{Method: method, URL: u, Body: body})
	if err != nil {
		return nil, err
	}

	var inv domain.Invoice
	if len(resp.Body) == 0 {
		return &inv, nil
	}
	if err := decode(resp.Body, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return ierr.WithError(err).
			WithHint("The invoice server sent a response that could not be read").
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
