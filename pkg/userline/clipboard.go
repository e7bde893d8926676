package userline

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Internal messages for clipboard operations.
type (
	copiedMsg  string
	copyErrMsg struct{ error }
)

const (
	copiedNotice     = "Email copied to clipboard"
	copyFailedNotice = "Clipboard unavailable"
)

// copyEmail writes the email of a found user to the clipboard.
func copyEmail(write func(string) error, email string) tea.Cmd {
	return func() tea.Msg {
		if err := write(email); err != nil {
			return copyErrMsg{err}
		}
		return copiedMsg(email)
	}
}
