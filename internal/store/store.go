// Package store holds the client-side view of the remote invoice collection
// and the invoice form, and keeps them in step with the server.
//
// Remote calls are split in three steps so a UI event loop never blocks:
// Begin* records intent under the lock and returns a request value, the
// request runs without the lock, and Apply/Finish folds the result back in.
// Every fetch carries a generation number; only the most recently issued
// fetch may replace the collection.
package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/andy/invoicedesk/internal/service"
	"github.com/samber/lo"
)

// FormState is the lifecycle of the invoice form
type FormState int

const (
	FormIdle       FormState = iota // empty draft, nothing selected
	FormEditing                     // draft seeded from a selected invoice
	FormSubmitting                  // create/update in flight
)

func (f FormState) String() string {
	switch f {
	case FormIdle:
		return "idle"
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// State is a snapshot of everything the views render
type State struct {
	Invoices []*domain.Invoice
	Count    int
	Page     int
	PageSize int
	Filter   string
	Loaded   bool // at least one page has arrived, so TotalPages is known
	Loading  bool
	ListErr  error // last fetch or delete failure

	Selected *domain.Invoice
	Draft    *domain.Draft
	Form     FormState
	FormErr  error // last submit failure; the draft is kept

	Status string // last successful mutation
}

// TotalPages is ceil(Count / PageSize), at least 1
func (s State) TotalPages() int {
	return domain.TotalPages(s.Count, s.PageSize)
}

// CanPrev reports whether "Previous" is enabled
func (s State) CanPrev() bool {
	return s.Page > 1
}

// CanNext reports whether "Next" is enabled
func (s State) CanNext() bool {
	return s.Page < s.TotalPages()
}

// Query is one collection fetch to perform. Epoch identifies the store that
// issued it; Gen orders queries within that store.
type Query struct {
	Epoch  uint64
	Gen    uint64
	Page   int
	Filter string
}

// FetchResult is the outcome of a Query
type FetchResult struct {
	Query Query
	Page  *domain.Page
	Err   error
}

// SubmitRequest is one create or update to perform
type SubmitRequest struct {
	SelectedID *int64
	Draft      *domain.Draft
	prevForm   FormState
}

// SubmitResult is the outcome of a SubmitRequest
type SubmitResult struct {
	Request SubmitRequest
	Invoice *domain.Invoice
	Err     error
}

// Options tune store behaviour
type Options struct {
	PageSize          int
	ResetPageOnFilter bool
}

// Store is safe for concurrent use
type Store struct {
	mu    sync.Mutex
	svc   service.InvoiceService
	log   *logger.Logger
	opts  Options
	state State
	epoch uint64
	gen   uint64
}

var epochs atomic.Uint64

// New creates a store positioned on page 1 with an empty draft
func New(svc service.InvoiceService, log *logger.Logger, opts Options) *Store {
	if opts.PageSize <= 0 {
		opts.PageSize = domain.DefaultPageSize
	}
	return &Store{
		svc:   svc,
		log:   log,
		opts:  opts,
		epoch: epochs.Add(1),
		state: State{
			Invoices: make([]*domain.Invoice, 0),
			Page:     1,
			PageSize: opts.PageSize,
			Draft:    domain.NewDraft(),
			Form:     FormIdle,
		},
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Invoices = lo.Map(s.state.Invoices, func(inv *domain.Invoice, _ int) *domain.Invoice {
		return inv.Clone()
	})
	out.Selected = s.state.Selected.Clone()
	out.Draft = s.state.Draft.Clone()
	return out
}

// ---- collection ----

// BeginFetch starts a fetch of the current page and filter, superseding any
// fetch still in flight.
func (s *Store) BeginFetch() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginFetchLocked()
}

func (s *Store) beginFetchLocked() Query {
	s.gen++
	s.state.Loading = true
	return Query{Epoch: s.epoch, Gen: s.gen, Page: s.state.Page, Filter: s.state.Filter}
}

// Fetch runs a query against the server. It does not touch state.
func (s *Store) Fetch(ctx context.Context, q Query) FetchResult {
	page, err := s.svc.ListPage(ctx, q.Page, q.Filter)
	return FetchResult{Query: q, Page: page, Err: err}
}

// Apply folds a fetch result into state. Results from superseded queries, or
// from queries another store issued, are dropped and applied is false. When the result shows the current page no
// longer exists, the page is clamped and a follow-up query is returned.
func (s *Store) Apply(r FetchResult) (next *Query, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Query.Epoch != s.epoch {
		s.log.Debugw("dropping page from another store", "epoch", r.Query.Epoch, "page", r.Query.Page)
		return nil, false
	}
	if r.Query.Gen != s.gen {
		s.log.Debugw("dropping stale page", "gen", r.Query.Gen, "latest", s.gen, "page", r.Query.Page)
		return nil, false
	}
	s.state.Loading = false

	if r.Err != nil {
		if ierr.IsNotFound(r.Err) && s.state.Page > 1 {
			// The page vanished (filter narrowed or rows deleted)
			s.state.Page = 1
			q := s.beginFetchLocked()
			return &q, true
		}
		s.state.ListErr = r.Err
		return nil, true
	}

	s.state.Invoices = r.Page.Results
	if s.state.Invoices == nil {
		s.state.Invoices = make([]*domain.Invoice, 0)
	}
	s.state.Count = r.Page.Count
	s.state.Loaded = true
	s.state.ListErr = nil

	if total := s.state.TotalPages(); s.state.Page > total {
		s.state.Page = total
		q := s.beginFetchLocked()
		return &q, true
	}
	return nil, true
}

// Refresh fetches the current page synchronously
func (s *Store) Refresh(ctx context.Context) error {
	q := s.BeginFetch()
	// A clamp can trigger one follow-up; a second would mean the server
	// disagrees with itself, so stop there.
	for i := 0; i < 2; i++ {
		r := s.Fetch(ctx, q)
		next, _ := s.Apply(r)
		if next == nil {
			return r.Err
		}
		q = *next
	}
	return nil
}

// SetFilter changes the customer-name filter and starts a fetch. The page is
// kept unless ResetPageOnFilter is set.
func (s *Store) SetFilter(text string) Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Filter = text
	if s.opts.ResetPageOnFilter {
		s.state.Page = 1
	}
	return s.beginFetchLocked()
}

// NextPage advances one page if "Next" is enabled
func (s *Store) NextPage() (Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CanNext() {
		return Query{}, false
	}
	s.state.Page++
	return s.beginFetchLocked(), true
}

// PrevPage goes back one page if "Previous" is enabled
func (s *Store) PrevPage() (Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CanPrev() {
		return Query{}, false
	}
	s.state.Page--
	return s.beginFetchLocked(), true
}

// SetPage jumps to page n. Once the page count is known, n is clamped to it.
func (s *Store) SetPage(n int) Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Loaded {
		n = min(n, s.state.TotalPages())
	}
	s.state.Page = max(n, 1)
	return s.beginFetchLocked()
}

// ---- form ----

// Select seeds the form from an invoice
func (s *Store) Select(inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	s.state.Selected = inv.Clone()
	s.state.Draft = domain.DraftFromInvoice(inv)
	s.state.Form = FormEditing
	s.state.FormErr = nil
	return nil
}

// ClearSelection resets the form to an empty create draft
func (s *Store) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	s.resetFormLocked()
	return nil
}

func (s *Store) resetFormLocked() {
	s.state.Selected = nil
	s.state.Draft = domain.NewDraft()
	s.state.Form = FormIdle
	s.state.FormErr = nil
}

func (s *Store) checkEditableLocked() error {
	if s.state.Form == FormSubmitting {
		return ierr.NewError("form is submitting").
			WithHint("Save in progress").
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

// AddLineItem appends a blank line item to the draft
func (s *Store) AddLineItem() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	s.state.Draft.AddLineItem()
	return nil
}

// SetHeader updates a header field of the draft
func (s *Store) SetHeader(field domain.HeaderField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	return s.state.Draft.SetHeader(field, value)
}

// SetLineItem updates one line item field of the draft from raw text
func (s *Store) SetLineItem(index int, field domain.LineField, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	return s.state.Draft.SetLineItem(index, field, raw)
}

// BeginSubmit moves the form to submitting and returns the request to send:
// a create when nothing is selected, an update of the selected id otherwise.
func (s *Store) BeginSubmit() (SubmitRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return SubmitRequest{}, err
	}

	req := SubmitRequest{
		Draft:    s.state.Draft.Clone(),
		prevForm: s.state.Form,
	}
	if s.state.Selected != nil {
		req.SelectedID = lo.ToPtr(s.state.Selected.ID)
	}
	s.state.Form = FormSubmitting
	s.state.FormErr = nil
	s.state.Status = ""
	return req, nil
}

// Save sends a submit request. It does not touch state.
func (s *Store) Save(ctx context.Context, req SubmitRequest) SubmitResult {
	inv, err := s.svc.Save(ctx, req.SelectedID, req.Draft)
	return SubmitResult{Request: req, Invoice: inv, Err: err}
}

// FinishSubmit folds a submit result into state. On success the form is
// cleared; the caller re-fetches the collection. On failure the draft is kept,
// the form returns to where it was and the error is recorded.
func (s *Store) FinishSubmit(r SubmitResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Err != nil {
		s.state.Form = r.Request.prevForm
		s.state.FormErr = r.Err
		return r.Err
	}

	verb := "Created"
	if r.Request.SelectedID != nil {
		verb = "Updated"
	}
	number := r.Request.Draft.InvoiceNumber
	if r.Invoice != nil && r.Invoice.InvoiceNumber != "" {
		number = r.Invoice.InvoiceNumber
	}
	s.state.Status = fmt.Sprintf("%s invoice %s", verb, number)
	s.resetFormLocked()
	return nil
}

// Submit runs BeginSubmit, Save and FinishSubmit synchronously
func (s *Store) Submit(ctx context.Context) error {
	req, err := s.BeginSubmit()
	if err != nil {
		return err
	}
	return s.FinishSubmit(s.Save(ctx, req))
}

// Delete removes an invoice on the server. The caller re-fetches.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.svc.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state.ListErr = err
		return err
	}

	if s.state.Selected != nil && s.state.Selected.ID == id && s.state.Form != FormSubmitting {
		s.resetFormLocked()
	}
	s.state.ListErr = nil
	s.state.Status = fmt.Sprintf("Deleted invoice %d", id)
	return nil
}
