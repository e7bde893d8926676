package main

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitLookupFailed   = 1
	exitLookupNotFound = 2
)

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <username>",
		Short: "Look up a single username and print the result",
		Long: `Run one lookup without the interactive field. The username is trimmed and matched exactly.
Exit status is 0 when the user is found, 2 when no user matches and 1 on failure.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runLookup,
	}
}

func (a *app) runLookup(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("username must not be empty")
	}

	state, err := userline.Resolve(cmd.Context(), a.newDirectoryClient(), a.logger, args[0])
	if err != nil {
		return err
	}
	a.logger.Info("userfind lookup", zap.String("query", args[0]), zap.Stringer("state", state))

	switch state.(type) {
	case userline.Found:
		fmt.Fprintln(cmd.OutOrStdout(), userline.Render(state))
		return nil
	case userline.NotFound:
		fmt.Fprintln(cmd.OutOrStdout(), userline.Render(state))
		return &exitCodeError{code: exitLookupNotFound}
	default:
		fmt.Fprintln(cmd.ErrOrStderr(), userline.Render(state))
		return &exitCodeError{code: exitLookupFailed}
	}
}
