package userline

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const indicatorGlyph = "●"

// Color cycle while a lookup is in flight: blue → purple → orange → yellow → back
var searchingColors = []lipgloss.Color{
	"12", "33", "57", "93", "129", "208", "214", "220",
	"214", "208", "129", "93", "57", "33",
}

// IndicatorTickMsg advances the searching animation.
type IndicatorTickMsg struct{}

// Indicator is the small glyph left of the outcome text. It pulses while the
// coordinator is Searching and takes a fixed color otherwise.
type Indicator struct {
	state      State
	frameIndex int
	ticking    bool
}

func NewIndicator() Indicator {
	return Indicator{state: Idle{}}
}

// Tick returns a command that sends IndicatorTickMsg after the animation interval.
func (i Indicator) Tick() tea.Cmd {
	return tea.Tick(time.Second/8, func(t time.Time) tea.Msg {
		return IndicatorTickMsg{}
	})
}

// SetState records the coordinator state and returns a tick command when
// the animation has to start.
func (i *Indicator) SetState(state State) tea.Cmd {
	i.state = state
	if _, searching := state.(Searching); searching && !i.ticking {
		i.ticking = true
		return i.Tick()
	}
	return nil
}

// Update advances the animation frame and keeps ticking while searching.
func (i *Indicator) Update() tea.Cmd {
	if _, searching := i.state.(Searching); !searching {
		i.ticking = false
		i.frameIndex = 0
		return nil
	}
	i.frameIndex = (i.frameIndex + 1) % len(searchingColors)
	return i.Tick()
}

// View renders the indicator.
func (i Indicator) View() string {
	switch i.state.(type) {
	case Searching:
		color := searchingColors[i.frameIndex]
		return lipgloss.NewStyle().Foreground(color).Render(indicatorGlyph)
	case Found:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(indicatorGlyph)
	case NotFound:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(indicatorGlyph)
	case Failed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(indicatorGlyph)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(indicatorGlyph)
	}
}
