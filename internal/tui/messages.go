package tui

import "github.com/andy/invoicedesk/internal/store"

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// ConfigChangedMsg is sent after settings are saved so the root can re-theme
// and rebuild screens bound to the old API settings.
type ConfigChangedMsg struct{}

// invoicesFetchedMsg carries one page fetch, tagged with its generation
type invoicesFetchedMsg struct {
	result store.FetchResult
}

type invoiceSubmittedMsg struct {
	result store.SubmitResult
}

type invoiceDeletedMsg struct {
	id  int64
	err error
}

type invoiceExportedMsg struct {
	path string
	err  error
}

type settingsSavedMsg struct {
	err error
}

type themeSavedMsg struct {
	err error
}
