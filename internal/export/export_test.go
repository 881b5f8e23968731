package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *domain.Invoice {
	return &domain.Invoice{
		ID:            7,
		InvoiceNumber: "INV/2024-07",
		CustomerName:  "Acme Corp",
		Date:          "2024-07-15",
		TotalAmount:   decimal.RequireFromString("1234.50"),
		Details: []domain.LineItem{
			{Description: "Consulting", Quantity: 10, UnitPrice: decimal.NewFromInt(100)},
			{Description: "A very long description that will not fit the column", Quantity: 1, UnitPrice: decimal.RequireFromString("234.50")},
		},
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5.5", "$5.50"},
		{"999.999", "$1,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-42", "-$42.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("docx")
	assert.True(t, ierr.IsValidation(err))
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleInvoice())

	assert.Contains(t, out, "Invoice #:  INV/2024-07")
	assert.Contains(t, out, "Date:       Jul 15, 2024")
	assert.Contains(t, out, "  Acme Corp\n")
	assert.Contains(t, out, "Consulting")
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "A very long description t...      1")
	assert.Contains(t, out, "$1,234.50")
}

func TestRenderTextKeepsMultiByteCharacters(t *testing.T) {
	inv := sampleInvoice()
	inv.Details[1].Description = strings.Repeat("a", 24) + "éééééééé"

	out := RenderText(inv)

	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("a", 24)+"é...      1")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"Globex Corporation", 10, "Globex ..."},
		{"Société Générale", 10, "Société..."},
		{"日本語のテキスト", 7, "日本..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.width)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, utf8.ValidString(got), tt.in)
	}
}

func TestTotalFallsBackToLineItems(t *testing.T) {
	inv := sampleInvoice()
	inv.TotalAmount = decimal.Zero
	assert.Equal(t, "1234.5", Total(inv).String())
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(sampleInvoice(), &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestExportWritesDefaultPath(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(filepath.Join(dir, "exports"), logger.NewNop())

	path, err := e.Export(sampleInvoice(), FormatText, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "INV_2024-07.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme Corp")

	path, err = e.Export(sampleInvoice(), FormatPDF, filepath.Join(dir, "custom.pdf"))
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportRequiresInvoice(t *testing.T) {
	e := NewExporter(t.TempDir(), logger.NewNop())
	_, err := e.Export(nil, FormatText, "")
	assert.True(t, ierr.IsValidation(err))
}
