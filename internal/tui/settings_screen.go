package tui

import (
	"fmt"
	"strconv"

	"github.com/andy/invoicedesk/internal/app"
	"github.com/andy/invoicedesk/internal/config"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldBaseURL = iota
	settingsFieldDeletePrefix
	settingsFieldTimeout
	settingsFieldTheme
	settingsFieldCount
)

// settingsKeys maps form fields to config keys
var settingsKeys = [settingsFieldCount]string{
	settingsFieldBaseURL:      "api.base_url",
	settingsFieldDeletePrefix: "api.delete_prefix",
	settingsFieldTimeout:      "api.timeout",
	settingsFieldTheme:        "ui.theme",
}

// SettingsModel manages the settings screen
type SettingsModel struct {
	app        *app.App
	mode       settingsMode
	fields     []textinput.Model
	fieldFocus int
	err        error
	statusMsg  string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(a *app.App) tea.Model {
	return &SettingsModel{
		app:  a,
		mode: settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func (m *SettingsModel) initForm() {
	m.fields = make([]textinput.Model, settingsFieldCount)
	cfg := m.app.Config

	m.fields[settingsFieldBaseURL] = newInput("http://localhost:8000", 256, 50)
	m.fields[settingsFieldBaseURL].SetValue(cfg.API.BaseURL)

	// Empty means DELETE goes to /invoices/<id>/
	m.fields[settingsFieldDeletePrefix] = newInput("/api", 50, 20)
	m.fields[settingsFieldDeletePrefix].SetValue(cfg.API.DeletePrefix)

	m.fields[settingsFieldTimeout] = newInput("15s", 10, 10)
	m.fields[settingsFieldTimeout].SetValue(cfg.API.Timeout.String())

	m.fields[settingsFieldTheme] = newInput("light", 5, 10)
	m.fields[settingsFieldTheme].SetValue(cfg.UI.Theme)

	m.fieldFocus = settingsFieldBaseURL
}

func (m *SettingsModel) saveSettings() tea.Cmd {
	values := make([]string, settingsFieldCount)
	for i := range m.fields {
		values[i] = m.fields[i].Value()
	}
	a := m.app

	return func() tea.Msg {
		next := *a.Config
		for i, v := range values {
			if err := next.Set(settingsKeys[i], v); err != nil {
				return settingsSavedMsg{err: err}
			}
		}

		if err := a.ApplyConfig(&next); err != nil {
			return settingsSavedMsg{err: err}
		}
		if err := a.SaveConfig(); err != nil {
			return settingsSavedMsg{err: fmt.Errorf("failed to save config: %w", err)}
		}
		return settingsSavedMsg{}
	}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == settingsModeEdit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch {
		case msg.String() == "enter":
			m.mode = settingsModeEdit
			m.statusMsg = ""
			m.initForm()
			return m, m.fields[m.fieldFocus].Focus()
		}
	}

	return m, nil
}

func (m *SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = settingsModeView
		m.statusMsg = "Settings saved"
		return m, func() tea.Msg { return ConfigChangedMsg{} }

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = settingsModeView
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + settingsFieldCount) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == settingsFieldCount-1 {
				return m, m.saveSettings()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveSettings()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		return m.viewForm()
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"

	if m.statusMsg != "" {
		s += lipgloss.NewStyle().Foreground(successColor).
			Render("  "+m.statusMsg) + "\n\n"
	}

	cfg := m.app.Config

	labelStyle := lipgloss.NewStyle().Bold(true).Width(24)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)

	deletePrefix := cfg.API.DeletePrefix
	if deletePrefix == "" {
		deletePrefix = "(none)"
	}

	s += subtitleStyle.Render("  Invoice Server") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Base URL:"), valueStyle.Render(cfg.API.BaseURL))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Delete Prefix:"), valueStyle.Render(deletePrefix))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Timeout:"), valueStyle.Render(cfg.API.Timeout.String()))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Retries (GET/PUT/DELETE):"), valueStyle.Render(strconv.Itoa(cfg.API.RetryMax)))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Page Size:"), valueStyle.Render(strconv.Itoa(cfg.API.PageSize)))

	token := "none"
	if cfg.API.Token != "" {
		token = "configured"
	}
	s += fmt.Sprintf("  %s %s\n\n", labelStyle.Render("API Token:"), valueStyle.Render(token))

	s += subtitleStyle.Render("  Interface") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Theme:"), valueStyle.Render(cfg.UI.Theme))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Reset Page on Filter:"), valueStyle.Render(strconv.FormatBool(cfg.UI.ResetPageOnFilter)))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Export Directory:"), valueStyle.Render(cfg.Export.OutputDir))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Log File:"), valueStyle.Render(cfg.Log.Path))

	s += "\n" + helpStyle.Render("  enter: edit settings  t: toggle theme")

	return s
}

func (m *SettingsModel) viewForm() string {
	var s string
	s += titleStyle.Render("Edit Settings") + "\n\n"

	labels := []string{"Base URL:", "Delete Prefix (blank for none):", "Timeout (e.g. 15s):", "Theme (" + config.ThemeLight + "/" + config.ThemeDark + "):"}
	for i, label := range labels {
		indicator := "  "
		if i == m.fieldFocus {
			indicator = "> "
		}
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	if m.err != nil {
		s += lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}
