package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/andy/invoicedesk/internal/app"
	"github.com/andy/invoicedesk/internal/config"
	"github.com/andy/invoicedesk/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// invoiceServer is an in-memory invoice API
type invoiceServer struct {
	mu       sync.Mutex
	invoices []*domain.Invoice
	nextID   int64
	puts     map[int64]domain.Draft
}

func newInvoiceServer(n int) *invoiceServer {
	s := &invoiceServer{nextID: int64(n) + 1, puts: make(map[int64]domain.Draft)}
	for i := 1; i <= n; i++ {
		s.invoices = append(s.invoices, &domain.Invoice{
			ID:            int64(i),
			InvoiceNumber: fmt.Sprintf("INV-%d", i),
			CustomerName:  lo.Ternary(i%2 == 0, "Acme", "Globex"),
			Date:          "2024-01-01",
			TotalAmount:   decimal.NewFromInt(int64(i * 100)),
			Details: []domain.LineItem{
				{Description: "Consulting", Quantity: i, UnitPrice: decimal.NewFromInt(100)},
			},
		})
	}
	return s
}

func (s *invoiceServer) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.invoices, func(inv *domain.Invoice, _ int) int64 { return inv.ID })
}

func fromDraft(id int64, d domain.Draft) *domain.Invoice {
	inv := &domain.Invoice{ID: id, InvoiceNumber: d.InvoiceNumber, CustomerName: d.CustomerName, Date: d.Date, Details: d.Details}
	for _, li := range d.Details {
		inv.TotalAmount = inv.TotalAmount.Add(li.Amount())
	}
	return inv
}

func (s *invoiceServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/invoices/"), "/")
	w.Header().Set("Content-Type", "application/json")

	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			filter := strings.ToLower(r.URL.Query().Get("customer_name"))
			matching := lo.Filter(s.invoices, func(inv *domain.Invoice, _ int) bool {
				return strings.Contains(strings.ToLower(inv.CustomerName), filter)
			})
			start := (page - 1) * domain.DefaultPageSize
			if page > 1 && start >= len(matching) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"detail":"Invalid page."}`))
				return
			}
			end := min(start+domain.DefaultPageSize, len(matching))
			_ = json.NewEncoder(w).Encode(domain.Page{Results: matching[start:end], Count: len(matching)})
		case http.MethodPost:
			var d domain.Draft
			_ = json.NewDecoder(r.Body).Decode(&d)
			inv := fromDraft(s.nextID, d)
			s.nextID++
			s.invoices = append(s.invoices, inv)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(inv)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, _ := strconv.ParseInt(rest, 10, 64)
	_, idx, ok := lo.FindIndexOf(s.invoices, func(inv *domain.Invoice) bool { return inv.ID == id })
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var d domain.Draft
		_ = json.NewDecoder(r.Body).Decode(&d)
		s.puts[id] = d
		s.invoices[idx] = fromDraft(id, d)
		_ = json.NewEncoder(w).Encode(s.invoices[idx])
	case http.MethodDelete:
		s.invoices = append(s.invoices[:idx], s.invoices[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setupCLI(t *testing.T, api http.Handler) *app.App {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvAPIURL, "")

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.API.RetryMax = 0
	cfg.Log.Path = filepath.Join(home, "invoicedesk.log")
	cfg.Export.OutputDir = filepath.Join(home, "exports")

	a, err := app.NewWithConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	SetApp(a)
	t.Cleanup(func() {
		SetApp(nil)
		_ = a.Close()
	})
	return a
}

// resetFlags puts every flag back to its default between executions
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestInvoicesList(t *testing.T) {
	setupCLI(t, newInvoiceServer(12))

	out, err := execute(t, "", "invoices", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "INV-1 ")
	assert.Contains(t, out, "$1,000.00")
	assert.NotContains(t, out, "INV-11")
	assert.Contains(t, out, "Page 1 of 2 (12 invoice(s))")

	out, err = execute(t, "", "invoices", "list", "--customer", "acme")
	require.NoError(t, err)
	assert.NotContains(t, out, "Globex")
	assert.Contains(t, out, "Page 1 of 1 (6 invoice(s))")

	out, err = execute(t, "", "invoices", "list", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "INV-12")
	assert.Contains(t, out, "Page 2 of 2")
}

func TestInvoicesShowFindsLaterPages(t *testing.T) {
	setupCLI(t, newInvoiceServer(15))

	out, err := execute(t, "", "invoices", "show", "13")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice #:  INV-13")
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "$1,300.00")

	_, err = execute(t, "", "invoices", "show", "99")
	assert.Error(t, err)

	_, err = execute(t, "", "invoices", "show", "abc")
	assert.Error(t, err)
}

func TestInvoicesCreate(t *testing.T) {
	api := newInvoiceServer(0)
	setupCLI(t, api)

	out, err := execute(t, "", "invoices", "create",
		"--number", "INV-99", "--customer", "Initech", "--date", "2024-05-01",
		"--item", "Support:2:12.5", "--item", "Hosting:1:25")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice created: INV-99 (ID 1)")
	assert.Contains(t, out, "Total: $50.00")
	assert.Equal(t, []int64{1}, api.ids())

	// Missing fields are rejected before anything is sent
	_, err = execute(t, "", "invoices", "create", "--number", "INV-100")
	assert.Error(t, err)
	assert.Equal(t, []int64{1}, api.ids())
}

func TestInvoicesUpdateKeepsUnsetFields(t *testing.T) {
	api := newInvoiceServer(3)
	setupCLI(t, api)

	out, err := execute(t, "", "invoices", "update", "2", "--customer", "New Co")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice updated: INV-2")

	sent := api.puts[2]
	assert.Equal(t, "INV-2", sent.InvoiceNumber)
	assert.Equal(t, "New Co", sent.CustomerName)
	assert.Equal(t, "2024-01-01", sent.Date)
	require.Len(t, sent.Details, 1)
	assert.Equal(t, 2, sent.Details[0].Quantity)
}

func TestInvoicesDelete(t *testing.T) {
	api := newInvoiceServer(3)
	setupCLI(t, api)

	out, err := execute(t, "n\n", "invoices", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete invoice #1? [y/N]")
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, []int64{1, 2, 3}, api.ids())

	out, err = execute(t, "y\n", "invoices", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice #1 deleted")
	assert.Equal(t, []int64{2, 3}, api.ids())

	out, err = execute(t, "", "invoices", "delete", "3", "--yes")
	require.NoError(t, err)
	assert.NotContains(t, out, "[y/N]")
	assert.Equal(t, []int64{2}, api.ids())
}

func TestInvoicesExport(t *testing.T) {
	a := setupCLI(t, newInvoiceServer(2))

	out, err := execute(t, "", "invoices", "export", "2")
	require.NoError(t, err)
	path := filepath.Join(a.Config.Export.OutputDir, "INV-2.txt")
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Invoice #:  INV-2")

	pdfPath := filepath.Join(t.TempDir(), "out.pdf")
	_, err = execute(t, "", "invoices", "export", "1", "--format", "pdf", "-o", pdfPath)
	require.NoError(t, err)
	data, err = os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = execute(t, "", "invoices", "export", "1", "--format", "docx")
	assert.Error(t, err)
}

func TestConfigSetSaves(t *testing.T) {
	a := setupCLI(t, newInvoiceServer(0))

	out, err := execute(t, "", "config", "set", "api.page_size", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "api.page_size = 20")
	assert.Equal(t, 20, a.Config.API.PageSize)

	saved, err := config.Load(config.DefaultConfigPath())
	require.NoError(t, err)
	assert.Equal(t, 20, saved.API.PageSize)

	_, err = execute(t, "", "config", "set", "api.nope", "1")
	assert.Error(t, err)
}
