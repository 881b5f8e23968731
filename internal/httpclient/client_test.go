package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSetsHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	c := NewDefaultClient(ClientConfig{Timeout: time.Second, Token: "tok"}, logger.NewNop())
	resp, err := c.Send(context.Background(), &Request{Method: http.MethodPost, URL: srv.URL, Body: []byte(`{"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"id":1}`, string(resp.Body))
}

func TestSendClassifiesStatusCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Invalid page."}`))
		case "/invalid":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"invoice_number":["This field is required."]}`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	c := NewDefaultClient(ClientConfig{Timeout: time.Second}, logger.NewNop())
	ctx := context.Background()

	_, err := c.Send(ctx, &Request{Method: http.MethodGet, URL: srv.URL + "/missing"})
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
	assert.Equal(t, "Invalid page.", ierr.DisplayMessage(err))

	_, err = c.Send(ctx, &Request{Method: http.MethodPost, URL: srv.URL + "/invalid", Body: []byte(`{}`)})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Equal(t, "invoice_number: This field is required.", ierr.DisplayMessage(err))
	httpErr, ok := IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)

	_, err = c.Send(ctx, &Request{Method: http.MethodDelete, URL: srv.URL + "/x"})
	assert.True(t, ierr.IsPermissionDenied(err))
}

func TestPostIsNeverRetried(t *testing.T) {
	var gets, posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		} else {
			gets.Add(1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewDefaultClient(ClientConfig{Timeout: time.Second, RetryMax: 2}, logger.NewNop())
	ctx := context.Background()

	_, err := c.Send(ctx, &Request{Method: http.MethodPost, URL: srv.URL, Body: []byte(`{}`)})
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Equal(t, int32(1), posts.Load())

	_, err = c.Send(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Equal(t, int32(3), gets.Load())
}

func TestSendTransportError(t *testing.T) {
	c := NewDefaultClient(ClientConfig{Timeout: 200 * time.Millisecond}, logger.NewNop())
	_, err := c.Send(context.Background(), &Request{Method: http.MethodPost, URL: "http://127.0.0.1:1/"})
	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Equal(t, "Could not reach the invoice server", ierr.DisplayMessage(err))
}
