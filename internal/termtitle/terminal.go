package termtitle

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// ErrDumbTerminal indicates the terminal doesn't support escape sequences.
var ErrDumbTerminal = errors.New("dumb terminal: no escape sequence support")

// maxTitleWidth is measured in terminal cells
const maxTitleWidth = 60

// Capabilities describes what the environment says about the terminal.
type Capabilities struct {
	Term        string
	TermProgram string

	IsTmux       bool
	IsDumb       bool
	WindowTitles bool
}

// Terminal writes window title sequences when the terminal supports them.
type Terminal struct {
	output       *termenv.Output
	capabilities Capabilities
}

func New() *Terminal {
	return NewWithOutput(termenv.NewOutput(os.Stdout), os.Getenv)
}

// NewWithOutput creates a Terminal writing to output, detecting capabilities
// through getenv.
func NewWithOutput(output *termenv.Output, getenv func(string) string) *Terminal {
	return &Terminal{
		output:       output,
		capabilities: detectCapabilities(getenv),
	}
}

func (t *Terminal) Capabilities() Capabilities {
	return t.capabilities
}

func detectCapabilities(getenv func(string) string) Capabilities {
	term := getenv("TERM")
	caps := Capabilities{
		Term:        term,
		TermProgram: getenv("TERM_PROGRAM"),
		IsTmux:      getenv("TMUX") != "",
		IsDumb:      term == "dumb" || term == "",
	}
	caps.WindowTitles = !caps.IsDumb && (caps.IsTmux || getenv("STY") != "" || knownTitleTerminal(caps))
	return caps
}

func knownTitleTerminal(caps Capabilities) bool {
	switch strings.ToLower(caps.TermProgram) {
	case "iterm.app", "apple_terminal", "wezterm", "kitty", "alacritty", "vscode", "ghostty", "windows terminal":
		return true
	}

	term := strings.ToLower(caps.Term)
	for _, prefix := range []string{"xterm", "screen", "tmux", "rxvt", "alacritty", "foot", "kitty", "wezterm"} {
		if strings.HasPrefix(term, prefix) {
			return true
		}
	}
	return strings.Contains(term, "color")
}

// SetWindowTitle sets the window title. Unsupported terminals are a silent no-op.
func (t *Terminal) SetWindowTitle(title string) error {
	if t.capabilities.IsDumb {
		return ErrDumbTerminal
	}
	if !t.capabilities.WindowTitles {
		return nil
	}

	title = sanitizeTitle(title)
	if t.capabilities.IsTmux {
		// tmux passthrough: \ePtmux;\e\e]2;title\a\e\\
		_, err := t.output.WriteString(fmt.Sprintf("\x1bPtmux;\x1b\x1b]2;%s\x07\x1b\\", title))
		return err
	}

	t.output.SetWindowTitle(title)
	return nil
}

// ResetWindowTitle hands the title back to the terminal's default.
func (t *Terminal) ResetWindowTitle() error {
	return t.SetWindowTitle("")
}

// sanitizeTitle drops control characters and truncates to maxTitleWidth cells.
func sanitizeTitle(title string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(title))
	for _, r := range title {
		switch {
		case r == '\t' || r == '\n':
			sanitized.WriteRune(' ')
		case r >= 32 && r != 127 && !(r >= 0x80 && r < 0xa0):
			sanitized.WriteRune(r)
		}
	}

	return runewidth.Truncate(sanitized.String(), maxTitleWidth, "…")
}
