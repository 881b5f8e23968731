package export

import (
	"fmt"
	"io"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/jung-kurt/gofpdf"
)

// column widths in mm, A4 portrait leaves 190mm between margins
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 95, "L"},
	{"Qty", 20, "R"},
	{"Unit price", 35, "R"},
	{"Amount", 40, "R"},
}

// RenderPDF writes an A4 invoice document to w
func RenderPDF(inv *domain.Invoice, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(0, 12, "INVOICE")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 7, "Invoice #:")
	pdf.Cell(0, 7, inv.InvoiceNumber)
	pdf.Ln(7)
	pdf.Cell(40, 7, "Date:")
	pdf.Cell(0, 7, displayDate(inv.Date))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Bill To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, inv.CustomerName)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Details {
		cells := []string{
			item.Description,
			fmt.Sprintf("%d", item.Quantity),
			FormatMoney(item.UnitPrice),
			FormatMoney(item.Amount()),
		}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	labelWidth := pdfColumns[0].width + pdfColumns[1].width + pdfColumns[2].width
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(labelWidth, 9, "TOTAL", "", 0, "R", false, 0, "")
	pdf.CellFormat(pdfColumns[3].width, 9, FormatMoney(Total(inv)), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if err := pdf.Output(w); err != nil {
		return ierr.WithError(err).
			WithHint("Could not render the PDF").
			Mark(ierr.ErrSystem)
	}
	return nil
}
