package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/httpclient"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestRepo(t *testing.T, deletePrefix string, handler func(w http.ResponseWriter, r *http.Request)) (*InvoiceRepo, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.body))
		}
		calls = append(calls, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.NewDefaultClient(httpclient.ClientConfig{Timeout: time.Second}, logger.NewNop())
	return NewInvoiceRepo(client, srv.URL+"/", deletePrefix), &calls
}

func TestListBuildsQueryAndDecodesPage(t *testing.T) {
	repo, calls := newTestRepo(t, "/api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":1,"invoice_number":"INV-1","customer_name":"Acme","total_amount":150,"details":[]}],"count":23}`))
	})

	page, err := repo.List(context.Background(), 2, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, 23, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "INV-1", page.Results[0].InvoiceNumber)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodGet, c.method)
	assert.Equal(t, "/api/invoices/", c.path)
	assert.Equal(t, "customer_name=Acme+Corp&page=2", c.query)
}

func TestListWithoutFilterOmitsCustomerName(t *testing.T) {
	repo, calls := newTestRepo(t, "/api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":0}`))
	})

	page, err := repo.List(context.Background(), 1, "")
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Equal(t, "page=1", (*calls)[0].query)
}

func TestCreatePostsDraft(t *testing.T) {
	repo, calls := newTestRepo(t, "/api", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"invoice_number":"INV-42","customer_name":"Acme","date":"2024-01-02","total_amount":30,"details":[{"description":"x","quantity":3,"unit_price":10}]}`))
	})

	d := domain.NewDraft()
	d.InvoiceNumber = "INV-42"
	d.CustomerName = "Acme"
	d.Date = "2024-01-02"
	d.Details[0].Description = "x"
	require.NoError(t, d.SetLineItem(0, domain.LineQuantity, "3"))
	require.NoError(t, d.SetLineItem(0, domain.LineUnitPrice, "10"))

	inv, err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, int64(42), inv.ID)
	assert.Equal(t, "30", inv.TotalAmount.String())

	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/api/invoices/", c.path)
	assert.Equal(t, "INV-42", c.body["invoice_number"])
	assert.NotContains(t, c.body, "id")
	assert.NotContains(t, c.body, "total_amount")
}

func TestUpdatePutsToItemURL(t *testing.T) {
	repo, calls := newTestRepo(t, "/api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7,"invoice_number":"INV-7"}`))
	})

	_, err := repo.Update(context.Background(), 7, domain.NewDraft())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	assert.Equal(t, "/api/invoices/7/", (*calls)[0].path)

	_, err = repo.Update(context.Background(), 0, domain.NewDraft())
	assert.True(t, ierr.IsValidation(err))
	assert.Len(t, *calls, 1)
}

func TestDeleteHonoursPrefix(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	repo, calls := newTestRepo(t, "/api", ok)
	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.Equal(t, "/api/invoices/1/", (*calls)[0].path)
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)

	bare, bareCalls := newTestRepo(t, "", ok)
	require.NoError(t, bare.Delete(context.Background(), 1))
	assert.Equal(t, "/invoices/1/", (*bareCalls)[0].path)
}

func TestListSurfacesMalformedBody(t *testing.T) {
	repo, _ := newTestRepo(t, "/api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := repo.List(context.Background(), 1, "")
	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))
}
