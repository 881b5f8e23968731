package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/andy/invoicedesk/internal/config"
	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKeyring struct{ token string }

func (k *memKeyring) GetToken() (string, error) {
	if k.token == "" {
		return "", ierr.NewError("missing").Mark(ierr.ErrNotFound)
	}
	return k.token, nil
}
func (k *memKeyring) SetToken(token string) error { k.token = token; return nil }
func (k *memKeyring) DeleteToken() error          { k.token = ""; return nil }
func (k *memKeyring) IsAvailable() bool           { return true }

func testConfig(t *testing.T, baseURL string) *config.Config {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Log.Path = filepath.Join(dir, "invoicedesk.log")
	cfg.Export.OutputDir = filepath.Join(dir, "exports")
	return cfg
}

func TestNewWithConfigWiresStoredToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(domain.Page{Count: 0})
	}))
	defer srv.Close()

	a, err := NewWithConfig(context.Background(), testConfig(t, srv.URL), &memKeyring{token: "abc"})
	require.NoError(t, err)
	defer a.Close()

	s := a.NewStore()
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, "Bearer abc", auth)
	assert.True(t, s.Snapshot().Loaded)
}

func TestApplyConfigRewiresBaseURL(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(domain.Page{Count: 0})
	}))
	defer srv.Close()

	a, err := NewWithConfig(context.Background(), testConfig(t, "http://127.0.0.1:1"), &memKeyring{})
	require.NoError(t, err)
	defer a.Close()

	next := *a.Config
	next.API.BaseURL = srv.URL
	require.NoError(t, a.ApplyConfig(&next))

	_, err = a.InvoiceService.ListPage(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	bad := *a.Config
	bad.UI.Theme = "neon"
	assert.Error(t, a.ApplyConfig(&bad))
	assert.Equal(t, srv.URL, a.Config.API.BaseURL)
}
