package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atinylittleshell/userfind/internal/core"
	"github.com/atinylittleshell/userfind/internal/dirserver"
	"github.com/atinylittleshell/userfind/internal/userstore"
	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run a local user directory",
		Long: `Serve GET /users?username= from a local SQLite database, speaking the same protocol as the public directory.
An empty database is filled with the built-in users unless --seed names a YAML file.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	c.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:8089)")
	c.PersistentFlags().String("db", "", "SQLite database file (default ~/.local/share/userfind/directory.db)")
	c.Flags().String("seed", "", "YAML file of users to load before serving")

	c.AddCommand(newServeAddCmd(a), newServeRmCmd(a))
	return c
}

func newServeAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <username> <name> <email>",
		Short: "Add or replace a user in the local directory",
		Args:  cobra.ExactArgs(4),
		RunE:  a.runServeAdd,
	}
}

func newServeRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a user from the local directory",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runServeRm,
	}
}

// openStore opens the database named by --db, the config, or the default path.
func (a *app) openStore(cmd *cobra.Command) (*userstore.Store, string, error) {
	dbFile, _ := cmd.Flags().GetString("db")
	if dbFile == "" {
		dbFile = a.cfg.Serve.Database
	}
	if dbFile == "" {
		dbFile = core.DirectoryFile()
	}

	store, err := userstore.NewStore(dbFile)
	if err != nil {
		return nil, "", err
	}
	return store, dbFile, nil
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q: must be a positive integer", arg)
	}
	return id, nil
}

func (a *app) runServeAdd(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}
	user := userline.UserRecord{
		ID:       id,
		Username: strings.TrimSpace(args[1]),
		Name:     args[2],
		Email:    args[3],
	}
	if user.Username == "" {
		return errors.New("username must not be empty")
	}

	store, _, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Add(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("failed to add user %q: %w", user.Username, err)
	}
	a.logger.Info("userfind added user", zap.Int64("id", entry.ID), zap.String("username", entry.Username))
	fmt.Fprintf(cmd.OutOrStdout(), "added %s (id %d)\n", entry.Username, entry.ID)
	return nil
}

func (a *app) runServeRm(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	store, _, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), id); err != nil {
		return err
	}
	a.logger.Info("userfind removed user", zap.Int64("id", id))
	fmt.Fprintf(cmd.OutOrStdout(), "removed user %d\n", id)
	return nil
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	addr, _ := cmd.Flags().GetString("addr")
	seedFile, _ := cmd.Flags().GetString("seed")

	if addr == "" {
		addr = a.cfg.Serve.Addr
	}
	if seedFile == "" {
		seedFile = a.cfg.Serve.Seed
	}

	store, dbFile, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seedStore(cmd, store, seedFile, a.logger); err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect user database: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s\n", describeDatabase(dbFile, count), addr)
	return dirserver.New(store, a.logger).ListenAndServe(ctx, addr)
}

// seedStore loads seedFile when given, otherwise fills an empty store with
// the built-in users.
func seedStore(cmd *cobra.Command, store *userstore.Store, seedFile string, logger *zap.Logger) error {
	ctx := cmd.Context()

	var users []userline.UserRecord
	if seedFile != "" {
		loaded, err := userstore.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}
		users = loaded
	} else {
		count, err := store.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to inspect user database: %w", err)
		}
		if count > 0 {
			return nil
		}
		users = userstore.DefaultUsers()
	}

	n, err := store.Seed(ctx, users)
	if err != nil {
		return err
	}
	logger.Info("dirserver seeded users", zap.Int("count", n), zap.String("seed", seedFile))
	return nil
}

// describeDatabase summarizes the store for the startup banner.
func describeDatabase(dbFile string, count int64) string {
	users := "users"
	if count == 1 {
		users = "user"
	}
	summary := fmt.Sprintf("%s %s from %s", humanize.Comma(count), users, dbFile)
	if info, err := os.Stat(dbFile); err == nil {
		summary += fmt.Sprintf(" (%s)", humanize.Bytes(uint64(info.Size())))
	}
	return summary
}
