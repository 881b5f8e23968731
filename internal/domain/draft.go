package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// HeaderField names an editable invoice header field
type HeaderField string

const (
	FieldInvoiceNumber HeaderField = "invoice_number"
	FieldCustomerName  HeaderField = "customer_name"
	FieldDate          HeaderField = "date"
)

// LineField names an editable line item field
type LineField string

const (
	LineDescription LineField = "description"
	LineQuantity    LineField = "quantity"
	LineUnitPrice   LineField = "unit_price"
)

// DateLayout is the wire format of Invoice.Date
const DateLayout = "2006-01-02"

// Draft is the invoice being edited in the form. It never carries an id or a
// total: the id travels in the URL and the total is computed by the server.
// Details always holds at least one entry.
type Draft struct {
	InvoiceNumber string     `json:"invoice_number" validate:"required"`
	CustomerName  string     `json:"customer_name" validate:"required"`
	Date          string     `json:"date" validate:"required,datetime=2006-01-02"`
	Details       []LineItem `json:"details" validate:"min=1,dive"`

	// numeric text that failed to parse, keyed by "details[i].field"
	fieldErrors map[string]string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// NewDraft returns an empty draft with a single blank line item
func NewDraft() *Draft {
	return &Draft{Details: []LineItem{NewLineItem()}}
}

// DraftFromInvoice seeds a draft from an existing invoice
func DraftFromInvoice(inv *Invoice) *Draft {
	d := &Draft{
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		Date:          inv.Date,
		Details:       append([]LineItem(nil), inv.Details...),
	}
	if len(d.Details) == 0 {
		d.Details = []LineItem{NewLineItem()}
	}
	return d
}

// Clone returns a deep copy of the draft
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Details = append([]LineItem(nil), d.Details...)
	out.fieldErrors = lo.Assign(d.fieldErrors)
	return &out
}

// AddLineItem appends a blank line item
func (d *Draft) AddLineItem() {
	d.Details = append(d.Details, NewLineItem())
}

// SetHeader updates one header field
func (d *Draft) SetHeader(field HeaderField, value string) error {
	switch field {
	case FieldInvoiceNumber:
		d.InvoiceNumber = value
	case FieldCustomerName:
		d.CustomerName = value
	case FieldDate:
		d.Date = value
	default:
		return ierr.NewError(fmt.Sprintf("unknown header field %q", field)).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SetLineItem updates one field of the line item at index from raw text.
// Numeric text that does not parse leaves the previous value in place and is
// reported by FieldErrors and Validate until corrected.
func (d *Draft) SetLineItem(index int, field LineField, raw string) error {
	if index < 0 || index >= len(d.Details) {
		return ierr.NewError(fmt.Sprintf("line item %d out of range", index)).
			WithHintf("There is no line %d", index+1).
			Mark(ierr.ErrValidation)
	}

	item := &d.Details[index]
	key := fieldKey(index, field)

	switch field {
	case LineDescription:
		item.Description = raw
		return nil

	case LineQuantity:
		q, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return d.recordFieldError(key, fmt.Sprintf("quantity on line %d must be a whole number", index+1))
		}
		item.Quantity = q

	case LineUnitPrice:
		p, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return d.recordFieldError(key, fmt.Sprintf("unit price on line %d must be a number", index+1))
		}
		item.UnitPrice = p

	default:
		return ierr.NewError(fmt.Sprintf("unknown line item field %q", field)).
			Mark(ierr.ErrValidation)
	}

	delete(d.fieldErrors, key)
	return nil
}

func (d *Draft) recordFieldError(key, msg string) error {
	if d.fieldErrors == nil {
		d.fieldErrors = make(map[string]string)
	}
	d.fieldErrors[key] = msg
	return ierr.NewError(msg).WithHint(msg).Mark(ierr.ErrValidation)
}

// FieldErrors returns outstanding parse errors keyed by "details[i].field"
func (d *Draft) FieldErrors() map[string]string {
	return lo.Assign(d.fieldErrors)
}

// Subtotal is a preview of the line item sum. It is never sent; the server
// computes total_amount.
func (d *Draft) Subtotal() decimal.Decimal {
	return lo.Reduce(d.Details, func(acc decimal.Decimal, li LineItem, _ int) decimal.Decimal {
		return acc.Add(li.Amount())
	}, decimal.Zero)
}

// Validate enforces the form's input constraints: every field required,
// quantity >= 1, unit price >= 0, a YYYY-MM-DD date and no unparsed numbers.
func (d *Draft) Validate() error {
	if len(d.fieldErrors) > 0 {
		keys := lo.Keys(d.fieldErrors)
		first := lo.Min(keys)
		return ierr.NewError("draft has unparsed fields").
			WithHint(d.fieldErrors[first]).
			WithReportableDetails(lo.MapValues(d.fieldErrors, func(v string, _ string) any { return v })).
			Mark(ierr.ErrValidation)
	}

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if ierr.As(err, &verrs) && len(verrs) > 0 {
			details := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				details[fe.Namespace()] = fe.Tag()
			}
			return ierr.WithError(err).
				WithHint(describe(verrs[0])).
				WithReportableDetails(details).
				Mark(ierr.ErrValidation)
		}
		return ierr.WithError(err).Mark(ierr.ErrValidation)
	}
	return nil
}

func fieldKey(index int, field LineField) string {
	return fmt.Sprintf("details[%d].%s", index, field)
}

// describe turns a validator error into a sentence for the form
func describe(fe validator.FieldError) string {
	line := ""
	if i := strings.Index(fe.Namespace(), "Details["); i >= 0 {
		rest := fe.Namespace()[i+len("Details["):]
		if j := strings.Index(rest, "]"); j >= 0 {
			if n, err := strconv.Atoi(rest[:j]); err == nil {
				line = fmt.Sprintf(" on line %d", n+1)
			}
		}
	}

	name := map[string]string{
		"InvoiceNumber": "invoice number",
		"CustomerName":  "customer name",
		"Date":          "date",
		"Details":       "line items",
		"Description":   "description",
		"Quantity":      "quantity",
		"UnitPrice":     "unit price",
	}[fe.Field()]
	if name == "" {
		name = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s%s is required", name, line)
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD", name)
	case "gte":
		return fmt.Sprintf("%s%s must be at least %s", name, line, fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", name, fe.Param())
	default:
		return fmt.Sprintf("%s%s is invalid", name, line)
	}
}
