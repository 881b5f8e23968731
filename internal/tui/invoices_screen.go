package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicedesk/internal/app"
	"github.com/andy/invoicedesk/internal/domain"
	"github.com/andy/invoicedesk/internal/export"
	"github.com/andy/invoicedesk/internal/store"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type invoiceMode int

const (
	invoiceModeList          invoiceMode = iota
	invoiceModeFilter                    // Typing into the customer filter
	invoiceModeConfirmDelete             // Waiting for y/n
	invoiceModeForm                      // Create or edit form
)

// InvoicesModel lists one page of the remote collection and hosts the
// create/edit form. All invoice state lives in the store; the model keeps the
// latest snapshot for rendering.
type InvoicesModel struct {
	app       *app.App
	store     *store.Store
	state     store.State
	mode      invoiceMode
	cursor    int
	err       error // export or key handling failure
	statusMsg string

	filterInput textinput.Model
	confirmID   int64

	// Form state: three header inputs, then three inputs per line item
	fields     []textinput.Model
	fieldFocus int
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	m := &InvoicesModel{
		app:         a,
		store:       a.NewStore(),
		mode:        invoiceModeList,
		filterInput: newInput("customer name", 100, 30),
	}
	m.filterInput.Prompt = ""
	m.sync()
	return m
}

// IsCapturingInput returns true when a text input or the delete prompt is active
func (m *InvoicesModel) IsCapturingInput() bool {
	return m.mode != invoiceModeList
}

// Busy reports whether a create or update is in flight
func (m *InvoicesModel) Busy() bool {
	return m.state.Form == store.FormSubmitting
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.fetch(m.store.BeginFetch())
}

// sync copies the store state and keeps the cursor on a row
func (m *InvoicesModel) sync() {
	m.state = m.store.Snapshot()
	if m.cursor >= len(m.state.Invoices) {
		m.cursor = max(len(m.state.Invoices)-1, 0)
	}
}

func (m *InvoicesModel) fetch(q store.Query) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return invoicesFetchedMsg{result: s.Fetch(context.Background(), q)}
	}
}

func (m *InvoicesModel) refresh() tea.Cmd {
	q := m.store.BeginFetch()
	m.sync()
	return m.fetch(q)
}

func (m *InvoicesModel) deleteInvoice(id int64) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return invoiceDeletedMsg{id: id, err: s.Delete(context.Background(), id)}
	}
}

func (m *InvoicesModel) exportInvoice(inv *domain.Invoice, format export.Format) tea.Cmd {
	exporter := m.app.Exporter
	return func() tea.Msg {
		path, err := exporter.Export(inv, format, "")
		return invoiceExportedMsg{path: path, err: err}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		return m, m.refresh()

	case invoicesFetchedMsg:
		next, _ := m.store.Apply(msg.result)
		m.sync()
		if next != nil {
			return m, m.fetch(*next)
		}
		return m, nil

	case invoiceSubmittedMsg:
		err := m.store.FinishSubmit(msg.result)
		m.sync()
		if err != nil {
			// Form stays open with the draft and the error inline
			return m, nil
		}
		m.mode = invoiceModeList
		m.fields = nil
		m.statusMsg = ""
		return m, m.refresh()

	case invoiceDeletedMsg:
		m.sync()
		if msg.err != nil {
			return m, nil
		}
		m.statusMsg = ""
		return m, m.refresh()

	case invoiceExportedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Exported to %s", msg.path)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case invoiceModeFilter:
			return m.updateFilter(msg)
		case invoiceModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case invoiceModeForm:
			return m.updateForm(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m *InvoicesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.state.Invoices)-1 {
			m.cursor++
		}

	case key.Matches(msg, DefaultKeyMap.PrevPage):
		if q, ok := m.store.PrevPage(); ok {
			m.cursor = 0
			m.sync()
			return m, m.fetch(q)
		}

	case key.Matches(msg, DefaultKeyMap.NextPage):
		if q, ok := m.store.NextPage(); ok {
			m.cursor = 0
			m.sync()
			return m, m.fetch(q)
		}

	case key.Matches(msg, DefaultKeyMap.Filter):
		m.mode = invoiceModeFilter
		return m, m.filterInput.Focus()

	case key.Matches(msg, DefaultKeyMap.Refresh):
		return m, m.refresh()

	case key.Matches(msg, DefaultKeyMap.Select), key.Matches(msg, DefaultKeyMap.Edit):
		if inv := m.highlighted(); inv != nil {
			if err := m.store.Select(inv); err != nil {
				m.err = err
				return m, nil
			}
			return m, m.openForm()
		}

	case key.Matches(msg, DefaultKeyMap.New):
		if err := m.store.ClearSelection(); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.openForm()

	case key.Matches(msg, DefaultKeyMap.Delete):
		if inv := m.highlighted(); inv != nil {
			m.confirmID = inv.ID
			m.mode = invoiceModeConfirmDelete
		}

	case key.Matches(msg, DefaultKeyMap.Export):
		if inv := m.highlighted(); inv != nil {
			return m, m.exportInvoice(inv, export.FormatText)
		}

	case key.Matches(msg, DefaultKeyMap.PDF):
		if inv := m.highlighted(); inv != nil {
			return m, m.exportInvoice(inv, export.FormatPDF)
		}
	}

	return m, nil
}

func (m *InvoicesModel) highlighted() *domain.Invoice {
	if m.cursor < 0 || m.cursor >= len(m.state.Invoices) {
		return nil
	}
	return m.state.Invoices[m.cursor]
}

// updateFilter re-fetches on every keystroke; the store drops any response
// that a later keystroke superseded.
func (m *InvoicesModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "tab":
		m.filterInput.Blur()
		m.mode = invoiceModeList
		return m, nil
	}

	before := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)

	if value := m.filterInput.Value(); value != before {
		q := m.store.SetFilter(value)
		m.sync()
		return m, tea.Batch(cmd, m.fetch(q))
	}
	return m, cmd
}

func (m *InvoicesModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Confirm):
		m.mode = invoiceModeList
		return m, m.deleteInvoice(m.confirmID)
	case key.Matches(msg, DefaultKeyMap.Cancel):
		m.mode = invoiceModeList
		m.confirmID = 0
	}
	return m, nil
}

func (m *InvoicesModel) View() string {
	switch m.mode {
	case invoiceModeForm:
		return m.viewForm()
	default:
		return m.viewList()
	}
}

func (m *InvoicesModel) viewList() string {
	var s string
	s += titleStyle.Render("Invoices") + "\n\n"

	// Filter row
	filterLabel := subtitleStyle.Render("  Filter: ")
	if m.mode == invoiceModeFilter {
		filterLabel = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render("> Filter: ")
		s += filterLabel + m.filterInput.View() + "\n\n"
	} else if m.state.Filter != "" {
		s += filterLabel + m.state.Filter + "\n\n"
	} else {
		s += filterLabel + subtitleStyle.Render("(none, press / to filter)") + "\n\n"
	}

	if status := m.status(); status != "" {
		s += lipgloss.NewStyle().Foreground(successColor).
			Render("  "+status) + "\n\n"
	}

	if err := m.listErr(); err != nil {
		s += lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("  Error: %s", errText(err))) + "\n\n"
	}

	switch {
	case !m.state.Loaded && m.state.Loading:
		s += subtitleStyle.Render("  Loading...") + "\n"
	case len(m.state.Invoices) == 0:
		s += subtitleStyle.Render("  No invoices found. Press 'n' to create one.") + "\n"
	default:
		s += subtitleStyle.Render(fmt.Sprintf(
			"  %-16s  %-26s  %-12s  %14s",
			"Invoice #", "Customer", "Date", "Total",
		)) + "\n"

		for i, inv := range m.state.Invoices {
			line := fmt.Sprintf("  %-16s  %-26s  %-12s  %14s",
				truncateStr(inv.InvoiceNumber, 16),
				truncateStr(inv.CustomerName, 26),
				inv.Date,
				formatMoney(inv.TotalAmount),
			)
			if i == m.cursor {
				s += selectedStyle.Render(line) + "\n"
			} else {
				s += line + "\n"
			}
		}
	}

	s += "\n" + m.viewPager() + "\n"

	if m.mode == invoiceModeConfirmDelete {
		s += "\n" + lipgloss.NewStyle().Bold(true).Foreground(warningColor).
			Render(fmt.Sprintf("  Delete invoice #%d? (y/n)", m.confirmID)) + "\n"
		return s
	}

	if m.mode == invoiceModeFilter {
		s += "\n" + helpStyle.Render("  type to filter by customer  enter/esc: done")
		return s
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  [/]: page  enter/e: edit  n: new  d: delete  /: filter  x/X: export txt/pdf  r: refresh")
	return s
}

func (m *InvoicesModel) viewPager() string {
	prev := disabledStyle.Render("‹ Previous")
	if m.state.CanPrev() {
		prev = enabledStyle.Render("‹ Previous")
	}
	next := disabledStyle.Render("Next ›")
	if m.state.CanNext() {
		next = enabledStyle.Render("Next ›")
	}

	page := fmt.Sprintf("Page %d of %d", m.state.Page, m.state.TotalPages())
	if m.state.Loading {
		page += subtitleStyle.Render("  (loading)")
	}
	return fmt.Sprintf("  %s   %s   %s", prev, page, next)
}

// status prefers the local message (exports) over the store's last mutation
func (m *InvoicesModel) status() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}
	return m.state.Status
}

func (m *InvoicesModel) listErr() error {
	if m.err != nil {
		return m.err
	}
	return m.state.ListErr
}

// selectedLabel describes the selection for headers
func selectedLabel(inv *domain.Invoice) string {
	if inv == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("#%d %s", inv.ID, inv.InvoiceNumber))
}
