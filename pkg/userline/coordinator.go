package userline

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period between the last keystroke and the lookup.
const DefaultDebounce = 300 * time.Millisecond

// Directory resolves a username against the remote user directory.
// Implementations must honour ctx cancellation.
type Directory interface {
	FindByUsername(ctx context.Context, username string) ([]UserRecord, error)
}

// userFacingError is implemented by errors that carry a message safe to show.
type userFacingError interface {
	UserMessage() string
}

type debounceFiredMsg struct {
	token int
	query string
}

type lookupSettledMsg struct {
	token int
	query string
	users []UserRecord
	err   error
}

// lookupHandle is the single outstanding lookup of a coordinator.
type lookupHandle struct {
	token  int
	cancel context.CancelFunc
}

// Coordinator owns the search state, the debounce timer and the in-flight
// lookup. It is driven by the bubbletea update loop: InputChanged for every
// edit of the field and Update for timer and lookup messages. Every input
// bumps token; timer and lookup messages created under an older token are
// dropped.
type Coordinator struct {
	ctx       context.Context
	directory Directory
	logger    *zap.Logger
	debounce  time.Duration

	state   State
	query   string
	token   int
	pending *lookupHandle
	closed  bool
}

func NewCoordinator(ctx context.Context, directory Directory, logger *zap.Logger, debounce time.Duration) Coordinator {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce < 0 {
		debounce = 0
	}

	return Coordinator{
		ctx:       ctx,
		directory: directory,
		logger:    logger,
		debounce:  debounce,
		state:     Idle{},
	}
}

// State returns the state to render.
func (c Coordinator) State() State {
	return c.state
}

// InputChanged handles an edit of the search field carrying the raw text.
// It never changes the state for a non-empty query; that happens when the
// returned debounce command fires.
func (c Coordinator) InputChanged(text string) (Coordinator, tea.Cmd) {
	if c.closed {
		return c, nil
	}

	query := strings.TrimSpace(text)
	c.token++
	c.cancelPending()
	c.query = query

	if query == "" {
		c.state = Idle{}
		return c, nil
	}

	token := c.token
	return c, tea.Tick(c.debounce, func(time.Time) tea.Msg {
		return debounceFiredMsg{token: token, query: query}
	})
}

// Update handles the coordinator's own messages and ignores everything else.
func (c Coordinator) Update(msg tea.Msg) (Coordinator, tea.Cmd) {
	switch msg := msg.(type) {
	case debounceFiredMsg:
		return c.startLookup(msg)
	case lookupSettledMsg:
		return c.settle(msg), nil
	}
	return c, nil
}

// Close tears the coordinator down. The pending lookup is cancelled and no
// later message changes the state.
func (c Coordinator) Close() Coordinator {
	if c.closed {
		return c
	}
	c.closed = true
	c.token++
	c.cancelPending()
	return c
}

func (c *Coordinator) cancelPending() {
	if c.pending == nil {
		return
	}
	c.pending.cancel()
	c.pending = nil
}

func (c Coordinator) startLookup(msg debounceFiredMsg) (Coordinator, tea.Cmd) {
	if c.closed || msg.token != c.token {
		c.logger.Debug(
			"userline discarding debounce",
			zap.Int("startToken", msg.token),
			zap.Int("newToken", c.token),
		)
		return c, nil
	}
	if c.directory == nil {
		return c, nil
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.pending = &lookupHandle{token: msg.token, cancel: cancel}
	c.state = Searching{}

	directory := c.directory
	query := msg.query
	token := msg.token
	return c, func() tea.Msg {
		users, err := directory.FindByUsername(ctx, query)
		return lookupSettledMsg{token: token, query: query, users: users, err: err}
	}
}

func (c Coordinator) settle(msg lookupSettledMsg) Coordinator {
	if c.closed || c.pending == nil || msg.token != c.token || msg.token != c.pending.token {
		return c
	}
	if errors.Is(msg.err, context.Canceled) {
		return c
	}
	c.cancelPending()

	if msg.err != nil {
		c.logger.Error(
			"userline lookup failed",
			zap.Int("token", msg.token),
			zap.String("query", msg.query),
			zap.Error(msg.err),
		)
		c.state = Failed{Message: failureMessage(msg.err)}
		return c
	}

	matches := lo.Filter(msg.users, func(u UserRecord, _ int) bool {
		return u.Username == msg.query
	})
	switch len(matches) {
	case 0:
		c.state = NotFound{}
	case 1:
		c.state = Found{User: matches[0]}
	default:
		c.logger.Warn(
			"userline directory returned duplicate usernames",
			zap.String("query", msg.query),
			zap.Int("matches", len(matches)),
		)
		c.state = Found{User: matches[0]}
	}

	c.logger.Debug(
		"userline lookup settled",
		zap.Int("token", msg.token),
		zap.String("query", msg.query),
		zap.Int("results", len(msg.users)),
		zap.Stringer("state", c.state),
	)
	return c
}

// failureMessage turns a lookup error into the text shown to the user.
func failureMessage(err error) string {
	var facing userFacingError
	if errors.As(err, &facing) {
		if msg := facing.UserMessage(); msg != "" {
			return msg
		}
	}
	return genericFailure
}
