package userline

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputChanged is emitted for every mutation of the tracked text.
type InputChanged struct {
	Text string
}

// InputTracker holds the raw text the user is typing. It does not trim or
// validate; that is left to the Coordinator.
type InputTracker struct {
	field textinput.Model
}

func NewInputTracker(prompt, placeholder string) InputTracker {
	field := textinput.New()
	field.Prompt = prompt
	field.Placeholder = placeholder
	field.Cursor.SetMode(cursor.CursorStatic)
	field.Focus()

	return InputTracker{field: field}
}

// Value returns the current raw text.
func (t InputTracker) Value() string {
	return t.field.Value()
}

// SetQuery replaces the text unconditionally.
func (t InputTracker) SetQuery(text string) (InputTracker, InputChanged) {
	t.field.SetValue(text)
	t.field.CursorEnd()
	return t, InputChanged{Text: t.field.Value()}
}

// Update feeds a terminal message to the field. The event is non-nil only
// when the message changed the text; cursor movement is not a mutation.
func (t InputTracker) Update(msg tea.Msg) (InputTracker, tea.Cmd, *InputChanged) {
	oldVal := t.field.Value()
	field, cmd := t.field.Update(msg)
	t.field = field

	newVal := t.field.Value()
	if newVal == oldVal {
		return t, cmd, nil
	}
	return t, cmd, &InputChanged{Text: newVal}
}

// SetWidth limits the visible width of the field.
func (t *InputTracker) SetWidth(width int) {
	t.field.Width = width
}

// View renders the field.
func (t InputTracker) View() string {
	return t.field.View()
}

// Blur removes focus, hiding the cursor.
func (t *InputTracker) Blur() {
	t.field.Blur()
}
