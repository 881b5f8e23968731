package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andy/invoicedesk/internal/domain"
	"github.com/andy/invoicedesk/internal/store"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// header field indices; line item inputs follow in groups of lineFieldCount
const (
	formFieldNumber = iota
	formFieldCustomer
	formFieldDate
	headerFieldCount
)

const lineFieldCount = 3

var (
	headerFields = []domain.HeaderField{domain.FieldInvoiceNumber, domain.FieldCustomerName, domain.FieldDate}
	headerLabels = []string{"Invoice #:", "Customer:", "Date (YYYY-MM-DD):"}
	lineFields   = []domain.LineField{domain.LineDescription, domain.LineQuantity, domain.LineUnitPrice}
)

// openForm switches to form mode with inputs seeded from the store's draft
func (m *InvoicesModel) openForm() tea.Cmd {
	m.sync()
	m.mode = invoiceModeForm
	m.statusMsg = ""
	m.err = nil
	m.initForm(m.state.Draft)
	return m.fields[m.fieldFocus].Focus()
}

func (m *InvoicesModel) initForm(d *domain.Draft) {
	m.fields = make([]textinput.Model, 0, headerFieldCount+lineFieldCount*len(d.Details))

	number := newInput("INV-001", 50, 30)
	number.SetValue(d.InvoiceNumber)
	customer := newInput("Customer name", 100, 40)
	customer.SetValue(d.CustomerName)
	date := newInput("2006-01-02", 10, 12)
	date.SetValue(d.Date)
	m.fields = append(m.fields, number, customer, date)

	for _, li := range d.Details {
		m.appendLineInputs(li)
	}

	m.fieldFocus = formFieldNumber
}

func (m *InvoicesModel) appendLineInputs(li domain.LineItem) {
	desc := newInput("Description", 200, 30)
	desc.SetValue(li.Description)
	qty := newInput("1", 6, 6)
	qty.SetValue(strconv.Itoa(li.Quantity))
	price := newInput("0.00", 14, 12)
	price.SetValue(li.UnitPrice.String())
	m.fields = append(m.fields, desc, qty, price)
}

func (m *InvoicesModel) focusField(i int) tea.Cmd {
	m.fields[m.fieldFocus].Blur()
	m.fieldFocus = (i + len(m.fields)) % len(m.fields)
	return m.fields[m.fieldFocus].Focus()
}

func (m *InvoicesModel) submit() tea.Cmd {
	req, err := m.store.BeginSubmit()
	m.sync()
	if err != nil {
		m.err = err
		return nil
	}

	s := m.store
	return func() tea.Msg {
		return invoiceSubmittedMsg{result: s.Save(context.Background(), req)}
	}
}

func (m *InvoicesModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The draft is frozen until the server answers
	if m.Busy() {
		return m, nil
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Back):
		if err := m.store.ClearSelection(); err != nil {
			m.err = err
			return m, nil
		}
		m.sync()
		m.mode = invoiceModeList
		m.fields = nil
		return m, nil

	case key.Matches(msg, DefaultKeyMap.NextField):
		return m, m.focusField(m.fieldFocus + 1)

	case key.Matches(msg, DefaultKeyMap.PrevField):
		return m, m.focusField(m.fieldFocus - 1)

	case key.Matches(msg, DefaultKeyMap.AddLine):
		if err := m.store.AddLineItem(); err != nil {
			m.err = err
			return m, nil
		}
		m.sync()
		m.appendLineInputs(domain.NewLineItem())
		return m, m.focusField(len(m.fields) - lineFieldCount)

	case key.Matches(msg, DefaultKeyMap.Save):
		return m, m.submit()

	case key.Matches(msg, DefaultKeyMap.Select):
		if m.fieldFocus == len(m.fields)-1 {
			return m, m.submit()
		}
		return m, m.focusField(m.fieldFocus + 1)
	}

	before := m.fields[m.fieldFocus].Value()
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	if value := m.fields[m.fieldFocus].Value(); value != before {
		m.pushField(m.fieldFocus, value)
	}
	return m, cmd
}

// pushField writes one input into the draft. Parse failures are kept on the
// draft and rendered next to the line; they are not key handling errors.
func (m *InvoicesModel) pushField(i int, value string) {
	if i < headerFieldCount {
		_ = m.store.SetHeader(headerFields[i], value)
	} else {
		line := (i - headerFieldCount) / lineFieldCount
		col := (i - headerFieldCount) % lineFieldCount
		_ = m.store.SetLineItem(line, lineFields[col], value)
	}
	m.sync()
}

func (m *InvoicesModel) viewForm() string {
	var s string

	action := "Create Invoice"
	if m.state.Selected != nil {
		action = "Update Invoice"
		s += titleStyle.Render("Edit Invoice "+selectedLabel(m.state.Selected)) + "\n\n"
	} else {
		s += titleStyle.Render("New Invoice") + "\n\n"
	}

	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	for i := 0; i < headerFieldCount && i < len(m.fields); i++ {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			indicator = "> "
			labelStyle = focusStyle
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(headerLabels[i]), m.fields[i].View())
	}

	s += subtitleStyle.Render(fmt.Sprintf("  %-3s %-32s %-8s %-14s %12s", "#", "Description", "Qty", "Unit price", "Amount")) + "\n"

	fieldErrs := m.state.Draft.FieldErrors()
	for line := range m.state.Draft.Details {
		base := headerFieldCount + line*lineFieldCount
		if base+lineFieldCount > len(m.fields) {
			break
		}

		indicator := "  "
		if m.fieldFocus >= base && m.fieldFocus < base+lineFieldCount {
			indicator = "> "
		}
		li := m.state.Draft.Details[line]
		s += fmt.Sprintf("%s%-3d %s %s %s %12s\n",
			indicator,
			line+1,
			m.fields[base].View(),
			m.fields[base+1].View(),
			m.fields[base+2].View(),
			formatMoney(li.Amount()),
		)

		for _, f := range lineFields[1:] {
			if msg, ok := fieldErrs[fmt.Sprintf("details[%d].%s", line, f)]; ok {
				s += lipgloss.NewStyle().Foreground(errorColor).Render("      "+msg) + "\n"
			}
		}
	}

	s += "\n" + subtitleStyle.Render(fmt.Sprintf("  Subtotal (server computes the total): %s", formatMoney(m.state.Draft.Subtotal()))) + "\n\n"

	if m.state.Form == store.FormSubmitting {
		s += lipgloss.NewStyle().Foreground(warningColor).Render("  Saving...") + "\n\n"
	}

	if m.state.FormErr != nil {
		s += lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("  Error: %s", errText(m.state.FormErr))) + "\n\n"
	} else if m.err != nil {
		s += lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("  Error: %s", errText(m.err))) + "\n\n"
	}

	s += helpStyle.Render(fmt.Sprintf("  tab/shift+tab: navigate fields  ctrl+a: add line item  ctrl+s: %s  esc: cancel", action))
	return s
}
