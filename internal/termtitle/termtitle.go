// Package termtitle mirrors the finder's current outcome in the terminal
// window title.
package termtitle

import (
	"fmt"

	"github.com/atinylittleshell/userfind/pkg/userline"
	"go.uber.org/zap"
)

const baseTitle = "userfind"

// Manager keeps the window title in step with the finder state.
type Manager struct {
	terminal *Terminal
	logger   *zap.Logger

	currentTitle string
}

func NewManager(terminal *Terminal, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		terminal: terminal,
		logger:   logger,
	}
}

// TitleFor returns the window title for a state.
func TitleFor(state userline.State) string {
	switch s := state.(type) {
	case userline.Searching:
		return baseTitle + ": searching…"
	case userline.Found:
		return fmt.Sprintf("%s: %s (%s)", baseTitle, s.User.Username, s.User.Name)
	case userline.NotFound:
		return baseTitle + ": no match"
	case userline.Failed:
		return baseTitle + ": error"
	default:
		return baseTitle
	}
}

// Observe is meant for userline.Options.OnStateChange.
func (m *Manager) Observe(state userline.State) {
	title := TitleFor(state)
	if title == m.currentTitle {
		return
	}

	if err := m.terminal.SetWindowTitle(title); err != nil {
		m.logger.Debug("termtitle failed to set window title", zap.Error(err))
		return
	}
	m.currentTitle = title
}

// Reset clears the title when the finder exits.
func (m *Manager) Reset() {
	if m.currentTitle == "" {
		return
	}
	if err := m.terminal.ResetWindowTitle(); err != nil {
		m.logger.Debug("termtitle failed to reset window title", zap.Error(err))
	}
	m.currentTitle = ""
}
