package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/atinylittleshell/userfind/internal/config"
	"github.com/atinylittleshell/userfind/internal/core"
	"github.com/atinylittleshell/userfind/internal/directory"
	"github.com/atinylittleshell/userfind/internal/termtitle"
	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var errNotTerminal = errors.New("the interactive finder needs a terminal; use `userfind lookup <username>` instead")

// app holds what the subcommands share once the root has been set up.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	configFile   string
	logFile      string
	directoryURL string
	debounce     time.Duration
	timeout      time.Duration
	logLevel     string

	isTerminal func() bool
}

func newApp() *app {
	return &app{
		logger: zap.NewNop(),
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func newRootCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:           "userfind [username]",
		Short:         "Look up a user in a remote directory as you type",
		Long:          `Interactive single-field user lookup. Typing pauses briefly before the directory is queried for an exact username match.`,
		Version:       BUILD_VERSION,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: a.runFinder,
	}

	flags := c.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ~/.config/userfind/config.yaml)")
	flags.StringVar(&a.logFile, "log-file", "", "log file (default ~/.local/share/userfind/userfind.log)")
	flags.StringVar(&a.directoryURL, "directory-url", "", "base URL of the user directory")
	flags.DurationVar(&a.debounce, "debounce", config.DEFAULT_DEBOUNCE, "quiet period before a lookup is issued")
	flags.DurationVar(&a.timeout, "timeout", config.DEFAULT_REQUEST_TIMEOUT, "request timeout for directory lookups")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	c.AddCommand(newLookupCmd(a), newServeCmd(a))
	return c
}

// setup loads the config file, applies flag overrides and opens the log.
func (a *app) setup(cmd *cobra.Command) error {
	configFile := a.configFile
	if configFile == "" {
		configFile = core.ConfigFile()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("directory-url") {
		cfg.DirectoryURL = a.directoryURL
	}
	if flags.Changed("debounce") {
		cfg.Debounce = a.debounce
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logFile := a.logFile
	if logFile == "" {
		logFile = core.LogFile()
	}
	logger, err := initializeLogger(cfg, logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logger = logger

	logger.Info("-------- new userfind session --------", zap.Strings("args", os.Args), zap.String("command", cmd.Name()))
	return nil
}

func initializeLogger(cfg config.Config, logFile string) (*zap.Logger, error) {
	logLevel := cfg.GetLogLevel()
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if cfg.CleanLogFile {
		_ = os.Remove(logFile)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		logFile,
	}
	loggerConfig.ErrorOutputPaths = []string{
		logFile,
	}
	return loggerConfig.Build()
}

func (a *app) newDirectoryClient() *directory.Client {
	client := directory.NewClient(a.cfg.DirectoryURL, a.cfg.RequestTimeout, a.logger)
	client.UserAgent = "userfind/" + BUILD_VERSION
	return client
}

func (a *app) runFinder(cmd *cobra.Command, args []string) error {
	if !a.isTerminal() {
		return errNotTerminal
	}

	options := userline.NewOptions()
	options.Debounce = a.cfg.Debounce
	if len(args) > 0 {
		options.InitialQuery = args[0]
	}

	terminal := termtitle.New()
	caps := terminal.Capabilities()
	a.logger.Debug("userfind terminal",
		zap.String("term", caps.Term),
		zap.String("termProgram", caps.TermProgram),
		zap.Bool("tmux", caps.IsTmux),
		zap.Bool("windowTitles", caps.WindowTitles),
	)

	titles := termtitle.NewManager(terminal, a.logger)
	options.OnStateChange = titles.Observe
	defer titles.Reset()

	state, err := userline.Run(cmd.Context(), a.newDirectoryClient(), a.logger, options)
	if err != nil {
		return err
	}

	a.logger.Debug("userfind finished", zap.Stringer("state", state))
	return nil
}
