package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/invoicedesk/internal/domain"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/andy/invoicedesk/internal/export"
	"github.com/spf13/cobra"
)

// draftFlags are the invoice fields shared by create and update
type draftFlags struct {
	number   string
	customer string
	date     string
	items    []string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.number, "number", "", "Invoice number")
	cmd.Flags().StringVar(&f.customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&f.date, "date", "", "Invoice date (YYYY-MM-DD or 'today')")
	cmd.Flags().StringArrayVar(&f.items, "item", nil, "Line item as description:quantity:unit_price (repeatable)")
}

// apply copies the flags that were set onto d. Line items replace the
// existing ones when at least one --item is given.
func (f *draftFlags) apply(cmd *cobra.Command, d *domain.Draft) error {
	if cmd.Flags().Changed("number") {
		d.InvoiceNumber = f.number
	}
	if cmd.Flags().Changed("customer") {
		d.CustomerName = f.customer
	}
	if cmd.Flags().Changed("date") {
		date, err := parseDate(f.date)
		if err != nil {
			return err
		}
		d.Date = date
	}

	if len(f.items) == 0 {
		return nil
	}
	d.Details = d.Details[:0]
	for i, raw := range f.items {
		d.AddLineItem()
		if err := parseItem(d, i, raw); err != nil {
			return err
		}
	}
	return nil
}

// parseItem fills line i of d from "description:quantity:unit_price". The
// description may itself contain colons.
func parseItem(d *domain.Draft, i int, raw string) error {
	priceAt := strings.LastIndex(raw, ":")
	if priceAt < 0 {
		return itemFormatError(raw)
	}
	qtyAt := strings.LastIndex(raw[:priceAt], ":")
	if qtyAt < 0 {
		return itemFormatError(raw)
	}

	if err := d.SetLineItem(i, domain.LineDescription, raw[:qtyAt]); err != nil {
		return err
	}
	if err := d.SetLineItem(i, domain.LineQuantity, raw[qtyAt+1:priceAt]); err != nil {
		return err
	}
	return d.SetLineItem(i, domain.LineUnitPrice, raw[priceAt+1:])
}

func itemFormatError(raw string) error {
	return ierr.NewError(fmt.Sprintf("bad item %q", raw)).
		WithHintf("Item %q must look like description:quantity:unit_price", raw).
		Mark(ierr.ErrValidation)
}

// parseDate accepts YYYY-MM-DD or "today"
func parseDate(s string) (string, error) {
	if s == "today" {
		return time.Now().Format(domain.DateLayout), nil
	}
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return "", ierr.WithError(err).
			WithHint("Date must be YYYY-MM-DD or 'today'").
			Mark(ierr.ErrValidation)
	}
	return s, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ierr.NewError(fmt.Sprintf("invalid invoice id %q", s)).
			WithHintf("Invalid invoice ID %q", s).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

func truncate(s string, maxLen int) string {
	return export.Truncate(s, maxLen)
}
