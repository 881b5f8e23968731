package tui

import (
	"fmt"
	"strings"

	"github.com/andy/invoicedesk/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenInvoices Screen = iota
	ScreenSettings
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenInvoices:
		return "Invoices"
	case ScreenSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	app           *app.App
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	invoices tea.Model
	settings tea.Model

	// rebuildInvoices is set when settings changed during a save
	rebuildInvoices bool

	// Error state
	err     error
	quitMsg string // shown when quit is blocked
	notice  string
}

// New creates a new root model
func New(a *app.App) Model {
	applyTheme(a.Config.UI.Theme)
	return Model{
		app:           a,
		currentScreen: ScreenInvoices,
		invoices:      NewInvoicesModel(a),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if m.invoices != nil {
		return m.invoices.Init()
	}
	return nil
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	switch screen {
	case ScreenInvoices:
		if m.invoices == nil {
			m.invoices = NewInvoicesModel(m.app)
			return m.invoices.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	case ScreenSettings:
		if m.settings == nil {
			m.settings = NewSettingsModel(m.app)
			return m.settings.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global keys (I, comma, T, Q) are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

// busyScreen is implemented by screens with a remote write in flight
type busyScreen interface {
	Busy() bool
}

func (m *Model) activeScreen() tea.Model {
	switch m.currentScreen {
	case ScreenInvoices:
		return m.invoices
	case ScreenSettings:
		return m.settings
	}
	return nil
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.activeScreen().(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// submitting reports whether an invoice save is in flight on any screen
func (m *Model) submitting() bool {
	if b, ok := m.invoices.(busyScreen); ok {
		return b.Busy()
	}
	return false
}

func (m *Model) toggleTheme() tea.Cmd {
	theme := otherTheme(m.app.Config.UI.Theme)
	m.app.Config.UI.Theme = theme
	applyTheme(theme)

	a := m.app
	return func() tea.Msg {
		return themeSavedMsg{err: a.SaveConfig()}
	}
}

// invoicesIdle reports whether the invoices screen is back on its list with
// nothing in flight
func (m *Model) invoicesIdle() bool {
	if m.submitting() {
		return false
	}
	if ic, ok := m.invoices.(InputCapturer); ok {
		return !ic.IsCapturingInput()
	}
	return true
}

// finishRebuild swaps in an invoices screen bound to the current settings
// once the old one has settled.
func (m *Model) finishRebuild() tea.Cmd {
	if !m.rebuildInvoices || !m.invoicesIdle() {
		return nil
	}
	m.rebuildInvoices = false
	m.notice = ""
	m.invoices = nil
	if m.currentScreen == ScreenInvoices {
		return m.initScreen(ScreenInvoices)
	}
	return nil
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Clear quit warning on any keypress
		m.quitMsg = ""

		if key.Matches(msg, DefaultKeyMap.ForceQuit) {
			if m.submitting() {
				m.quitMsg = "Save in progress. Wait for the server to answer before quitting."
				return m, nil
			}
			return m, tea.Quit
		}

		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				if m.submitting() {
					m.quitMsg = "Save in progress. Wait for the server to answer before quitting."
					return m, nil
				}
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Invoices):
				m.currentScreen = ScreenInvoices
				cmd := m.initScreen(ScreenInvoices)
				return m, cmd

			case key.Matches(msg, DefaultKeyMap.Settings):
				m.currentScreen = ScreenSettings
				cmd := m.initScreen(ScreenSettings)
				return m, cmd

			case key.Matches(msg, DefaultKeyMap.Theme):
				return m, m.toggleTheme()
			}
		}

	case themeSavedMsg:
		m.err = msg.err
		return m, nil

	case ConfigChangedMsg:
		applyTheme(m.app.Config.UI.Theme)
		// The invoices screen holds a store bound to the old API settings
		if m.submitting() {
			m.rebuildInvoices = true
			m.notice = "Settings saved. The invoice list reloads once the current save finishes."
			return m, nil
		}
		m.invoices = nil
		return m, nil

	case SwitchScreenMsg:
		m.currentScreen = msg.Screen
		cmd := m.initScreen(msg.Screen)
		return m, cmd

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case invoicesFetchedMsg, invoiceSubmittedMsg, invoiceDeletedMsg, invoiceExportedMsg:
		// Remote results belong to the invoices screen wherever the user is now
		var cmd tea.Cmd
		if m.invoices != nil {
			m.invoices, cmd = m.invoices.Update(msg)
		}
		return m, tea.Batch(cmd, m.finishRebuild())
	}

	// Route message to current screen
	var cmd tea.Cmd
	switch m.currentScreen {
	case ScreenInvoices:
		if m.invoices != nil {
			m.invoices, cmd = m.invoices.Update(msg)
			cmd = tea.Batch(cmd, m.finishRebuild())
		}
	case ScreenSettings:
		if m.settings != nil {
			m.settings, cmd = m.settings.Update(msg)
		}
	}

	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Header
	header := headerStyle.Render(fmt.Sprintf("invoicedesk - %s", m.currentScreen.String())) +
		subtitleStyle.Render("  "+m.app.Config.API.BaseURL)

	// Footer with navigation keys
	footer := footerStyle.Render(fmt.Sprintf("[I]nvoices  [,] Settings  [T]heme: %s  [Q]uit", currentTheme))

	// Current screen content
	content := "Loading..."
	if screen := m.activeScreen(); screen != nil {
		content = screen.View()
	}

	// Error/warning display
	errorDisplay := ""
	if m.quitMsg != "" {
		errorDisplay = lipgloss.NewStyle().
			Foreground(warningColor).
			Render(fmt.Sprintf("\n%s", m.quitMsg))
	} else if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", errText(m.err)))
	} else if m.notice != "" {
		errorDisplay = lipgloss.NewStyle().
			Foreground(warningColor).
			Render("\n" + m.notice)
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
