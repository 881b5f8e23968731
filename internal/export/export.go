// Package export renders invoices to files the user can send to a customer.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
)

// Format is an export file type
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "txt", "text" or "pdf"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text", "":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", ierr.NewError(fmt.Sprintf("unknown export format %q", s)).
			WithHint("Export format must be txt or pdf").
			Mark(ierr.ErrValidation)
	}
}

// Exporter writes invoices into an output directory
type Exporter struct {
	outputDir string
	log       *logger.Logger
}

func NewExporter(outputDir string, log *logger.Logger) *Exporter {
	return &Exporter{outputDir: outputDir, log: log}
}

// DefaultPath returns <outputDir>/<invoice number>.<format>
func (e *Exporter) DefaultPath(inv *domain.Invoice, format Format) string {
	name := safeFileName(inv.InvoiceNumber)
	if name == "" {
		name = fmt.Sprintf("invoice-%d", inv.ID)
	}
	return filepath.Join(e.outputDir, name+"."+string(format))
}

// Export writes inv to path, or to DefaultPath when path is empty, and
// returns the path written.
func (e *Exporter) Export(inv *domain.Invoice, format Format, path string) (string, error) {
	if inv == nil {
		return "", ierr.NewError("nothing to export").
			WithHint("Select an invoice to export").
			Mark(ierr.ErrValidation)
	}
	if path == "" {
		path = e.DefaultPath(inv, format)
	}

	var data []byte
	switch format {
	case FormatText:
		data = []byte(RenderText(inv))
	case FormatPDF:
		var buf bytes.Buffer
		if err := RenderPDF(inv, &buf); err != nil {
			return "", err
		}
		data = buf.Bytes()
	default:
		return "", ierr.NewError(fmt.Sprintf("unknown export format %q", format)).
			Mark(ierr.ErrValidation)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", ierr.WithError(err).
			WithHintf("Could not create %s", filepath.Dir(path)).
			Mark(ierr.ErrSystem)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", ierr.WithError(err).
			WithHintf("Could not write %s", path).
			Mark(ierr.ErrSystem)
	}

	e.log.Infow("exported invoice", "id", inv.ID, "number", inv.InvoiceNumber, "format", format, "path", path)
	return path, nil
}

// RenderText formats an invoice as a plain-text document
func RenderText(inv *domain.Invoice) string {
	var b strings.Builder

	sep := strings.Repeat("=", 60)
	line := strings.Repeat("-", 60)

	b.WriteString("INVOICE\n")
	b.WriteString(sep + "\n")
	b.WriteString(fmt.Sprintf("Invoice #:  %s\n", inv.InvoiceNumber))
	b.WriteString(fmt.Sprintf("Date:       %s\n", displayDate(inv.Date)))

	b.WriteString("\nBill To:\n")
	b.WriteString(fmt.Sprintf("  %s\n", inv.CustomerName))

	b.WriteString("\n" + line + "\n")
	b.WriteString(fmt.Sprintf("%-28s %6s %11s %12s\n", "Description", "Qty", "Unit", "Amount"))
	b.WriteString(line + "\n")

	for _, item := range inv.Details {
		b.WriteString(fmt.Sprintf("%s %6d %11s %12s\n",
			runewidth.FillRight(Truncate(item.Description, 28), 28),
			item.Quantity,
			FormatMoney(item.UnitPrice),
			FormatMoney(item.Amount()),
		))
	}

	b.WriteString(line + "\n")
	b.WriteString(fmt.Sprintf("%47s %12s\n", "TOTAL", FormatMoney(Total(inv))))
	b.WriteString(sep + "\n")

	return b.String()
}

// Truncate shortens s to at most width terminal cells, ending in "..." when
// cut. Multi-byte and wide characters are never split.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// Total is the server total when present, otherwise the line item sum
func Total(inv *domain.Invoice) decimal.Decimal {
	if !inv.TotalAmount.IsZero() || len(inv.Details) == 0 {
		return inv.TotalAmount
	}
	sum := decimal.Zero
	for _, li := range inv.Details {
		sum = sum.Add(li.Amount())
	}
	return sum
}

// FormatMoney formats an amount as "$X,XXX.XX"
func FormatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	prefix := "$"
	if negative {
		prefix = "-$"
	}
	return prefix + string(result) + decPart
}

func displayDate(s string) string {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 02, 2006")
}

func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		case r == ' ' || r == '/' || r == '\\':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(s))
}
