package tui

import (
	"github.com/andy/invoicedesk/internal/export"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/shopspring/decimal"
)

// formatMoney formats money as "$X,XXX.XX" with comma separators
func formatMoney(amount decimal.Decimal) string {
	return export.FormatMoney(amount)
}

// truncateStr truncates a string to maxLen cells with ellipsis
func truncateStr(s string, maxLen int) string {
	return export.Truncate(s, maxLen)
}

// errText is the user-facing text of err
func errText(err error) string {
	return ierr.DisplayMessage(err)
}

// newInput builds a text input with a steady cursor
func newInput(placeholder string, charLimit, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = charLimit
	ti.Width = width
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}
