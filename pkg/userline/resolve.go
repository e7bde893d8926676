package userline

import (
	"context"

	"go.uber.org/zap"
)

// Resolve runs one query through a coordinator without a terminal, skipping
// the debounce, and returns the settled state.
func Resolve(ctx context.Context, directory Directory, logger *zap.Logger, query string) (State, error) {
	c := NewCoordinator(ctx, directory, logger, 0)
	c, cmd := c.InputChanged(query)
	for cmd != nil {
		msg := cmd()
		c, cmd = c.Update(msg)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.State(), nil
}
