package userline

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"
)

type appModel struct {
	coordinator Coordinator
	input       InputTracker
	indicator   Indicator
	logger      *zap.Logger
	options     Options

	width    int
	appState appState
	notice   string

	idleStyle    lipgloss.Style
	outcomeStyle lipgloss.Style
	foundStyle   lipgloss.Style
	errorStyle   lipgloss.Style
}

// SetQueryMsg replaces the text of the search field, as if typed.
type SetQueryMsg struct {
	Text string
}

type appState int

const (
	Active appState = iota
	Terminated
)

// ErrUnexpectedModel is returned when the program exits with a foreign model.
var ErrUnexpectedModel = errors.New("userline resulted in an unexpected app model")

func initialModel(
	ctx context.Context,
	directory Directory,
	logger *zap.Logger,
	options Options,
) appModel {
	if logger == nil {
		logger = zap.NewNop()
	}

	return appModel{
		coordinator: NewCoordinator(ctx, directory, logger, options.Debounce),
		input:       NewInputTracker(options.Prompt, options.Placeholder),
		indicator:   NewIndicator(),
		logger:      logger,
		options:     options,
		appState:    Active,

		idleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		outcomeStyle: lipgloss.NewStyle(),
		foundStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			PaddingLeft(1).
			PaddingRight(1),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")), // Red
	}
}

func (m appModel) Init() tea.Cmd {
	if m.options.InitialQuery == "" {
		return nil
	}
	query := m.options.InitialQuery
	return func() tea.Msg {
		return SetQueryMsg{Text: query}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.appState == Terminated {
		return m, nil
	}

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(max(1, msg.Width-lipgloss.Width(m.options.Prompt)-1))
		return m, nil

	case IndicatorTickMsg:
		return m, m.indicator.Update()

	case SetQueryMsg:
		var event InputChanged
		m.input, event = m.input.SetQuery(msg.Text)
		return m.inputChanged(event, nil)

	case debounceFiredMsg, lookupSettledMsg:
		prev := m.coordinator.State()
		var cmd tea.Cmd
		m.coordinator, cmd = m.coordinator.Update(msg)
		m.notify(prev)
		tick := m.indicator.SetState(m.coordinator.State())
		return m, tea.Batch(cmd, tick)

	case copiedMsg:
		m.notice = copiedNotice
		m.logger.Debug("userline copied email", zap.String("email", string(msg)))
		return m, nil

	case copyErrMsg:
		m.notice = copyFailedNotice
		m.logger.Warn("userline failed to copy email", zap.Error(msg.error))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m.teardown()
		case "ctrl+y":
			found, ok := m.coordinator.State().(Found)
			if !ok || m.options.Clipboard == nil {
				return m, nil
			}
			return m, copyEmail(m.options.Clipboard, found.User.Email)
		}
	}

	input, cmd, event := m.input.Update(msg)
	m.input = input
	if event == nil {
		return m, cmd
	}
	return m.inputChanged(*event, cmd)
}

func (m appModel) inputChanged(event InputChanged, cmd tea.Cmd) (appModel, tea.Cmd) {
	prev := m.coordinator.State()
	m.notice = ""
	var coordinatorCmd tea.Cmd
	m.coordinator, coordinatorCmd = m.coordinator.InputChanged(event.Text)
	m.notify(prev)
	tick := m.indicator.SetState(m.coordinator.State())
	return m, tea.Batch(cmd, coordinatorCmd, tick)
}

func (m appModel) notify(prev State) {
	if m.options.OnStateChange == nil {
		return
	}
	if next := m.coordinator.State(); next != prev {
		m.options.OnStateChange(next)
	}
}

func (m appModel) teardown() (appModel, tea.Cmd) {
	m.coordinator = m.coordinator.Close()
	m.appState = Terminated
	m.input.Blur()
	m.logger.Debug("userline closed", zap.Stringer("state", m.coordinator.State()))
	return m, tea.Quit
}

func (m appModel) View() string {
	// Once terminated, render nothing
	if m.appState == Terminated {
		return ""
	}

	state := m.coordinator.State()
	content := Render(state)

	// Leave room for the indicator and the border of the found box
	innerWidth := max(0, m.width-6)
	if innerWidth > 0 {
		content = wordwrap.String(content, innerWidth)
	}

	var outcome string
	switch state.(type) {
	case Idle:
		outcome = m.idleStyle.Render(content)
	case Found:
		outcome = m.foundStyle.Render(content)
	case Failed:
		outcome = m.errorStyle.Render(content)
	default:
		outcome = m.outcomeStyle.Render(content)
	}

	var result strings.Builder
	result.WriteString(m.input.View())
	result.WriteString("\n")
	result.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.indicator.View()+" ", outcome))
	result.WriteString("\n")
	if m.notice != "" {
		result.WriteString(m.idleStyle.Render(m.notice))
		result.WriteString("\n")
	}
	return result.String()
}

// Run shows the search widget until the user quits and returns the last
// state the coordinator reached.
func Run(
	ctx context.Context,
	directory Directory,
	logger *zap.Logger,
	options Options,
) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(
		initialModel(ctx, directory, logger, options),
		tea.WithContext(ctx),
	)

	m, err := p.Run()
	if err != nil {
		return nil, err
	}

	model, ok := m.(appModel)
	if !ok {
		if logger != nil {
			logger.Error("userline resulted in an unexpected app model")
		}
		return nil, ErrUnexpectedModel
	}

	return model.coordinator.State(), nil
}
