package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ggonzalez94/defi-composer/internal/config"
	"github.com/ggonzalez94/defi-composer/internal/delay"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/execution"
	"github.com/ggonzalez94/defi-composer/internal/kvstore"
	"github.com/ggonzalez94/defi-composer/internal/model"
	"github.com/ggonzalez94/defi-composer/internal/out"
	"github.com/ggonzalez94/defi-composer/internal/policy"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/registry"
	"github.com/ggonzalez94/defi-composer/internal/schema"
	"github.com/ggonzalez94/defi-composer/internal/session"
	"github.com/ggonzalez94/defi-composer/internal/version"
	"github.com/ggonzalez94/defi-composer/internal/wallet"
	"github.com/spf13/cobra"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	clock  clock.Clock
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		clock:  clock.New(),
	}
}

type runtimeState struct {
	runner       *Runner
	flags        config.GlobalFlags
	settings     config.Settings
	logger       *slog.Logger
	store        *kvstore.Store
	root         *cobra.Command
	lastCommand  string
	lastWarnings []string
	sessionID    string
}

func (r *Runner) Run(args []string) int {
	return r.RunContext(context.Background(), args)
}

// RunContext is Run with a caller-controlled context, cancelled on
// interrupt by the binary. Long-running commands stop when it is done.
func (r *Runner) RunContext(ctx context.Context, args []string) int {
	state := &runtimeState{runner: r, logger: slog.New(slog.DiscardHandler)}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	err = normalizeRunError(err)
	if err == nil {
		state.close()
		return 0
	}

	state.renderError("", err, state.lastWarnings)
	state.close()
	return clierr.ExitCode(err)
}

func (s *runtimeState) close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Compose DeFi transaction flows from protocol, token and action blocks",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}
			if path != "compose" {
				s.logger = newLogger(s.runner.stderr, settings.LogLevel, settings.LogFormat)
			}
			s.logger.Debug("command start", "command", path)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated, dotted for nested)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.Instant, "instant", false, "Skip simulated latency")
	cmd.PersistentFlags().Float64Var(&s.flags.Speed, "speed", -1, "Simulated latency multiplier (1 = real time)")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&s.flags.LogFormat, "log-format", "", "Log format: text|json")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")

	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newRegistryCommand())
	cmd.AddCommand(s.newPricesCommand())
	cmd.AddCommand(s.newFlowCommand())
	cmd.AddCommand(s.newWorkflowCommand())
	cmd.AddCommand(s.newWalletCommand())
	cmd.AddCommand(s.newComposeCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Build(s.root, strings.Join(args, " "))
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil)
		},
	}
}

// openStore opens the workflow store on first use.
func (s *runtimeState) openStore() (*kvstore.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	store, err := kvstore.Open(s.settings.StorePath, s.settings.StoreLockPath)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "open workflow store", err)
	}
	s.store = store
	return store, nil
}

// newSession wires a session from the loaded settings. withStore opens the
// workflow store so Save and Load work.
func (s *runtimeState) newSession(withStore bool) (*session.Session, error) {
	delayer := delay.NewScaled(s.runner.clock, s.settings.Speed)
	w, err := wallet.New(wallet.Options{Address: s.settings.WalletAddress, Delayer: delayer, Logger: s.logger})
	if err != nil {
		return nil, err
	}
	fault, err := faultFromSettings(s.settings.FaultStage)
	if err != nil {
		return nil, err
	}
	opts := session.Options{
		Prices:    prices.NewTable(registry.InitialPrices(), s.settings.GasPriceGwei),
		Wallet:    w,
		Simulator: execution.NewSimulator(execution.Options{Delayer: delayer, Logger: s.logger, Fault: fault, Now: s.runner.now}),
		Limits:    policy.Limits{MaxBlocks: s.settings.MaxBlocks, MaxValueUSD: s.settings.MaxValueUSD},
		ExportDir: s.settings.ExportDir,
		Logger:    s.logger,
		Now:       s.runner.now,
	}
	if withStore {
		store, err := s.openStore()
		if err != nil {
			return nil, err
		}
		opts.KV = store
	}
	sess, err := session.New(opts)
	if err != nil {
		return nil, err
	}
	s.sessionID = sess.ID()
	return sess, nil
}

func faultFromSettings(stage string) (execution.FaultFunc, error) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return nil, nil
	}
	for _, st := range execution.Stages {
		if string(st.State) == stage {
			return execution.FaultAt(st.State, fmt.Sprintf("simulated fault during %s", stage)), nil
		}
	}
	return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown fault stage %q", stage))
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			SessionID: s.sessionID,
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error, warnings []string) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.ExitCode(err)
	typ := clierr.TypeName(clierr.CodeInternal)
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		typ = clierr.TypeName(cErr.Code)
		message = cErr.Error()
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: message,
		},
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			SessionID: s.sessionID,
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
