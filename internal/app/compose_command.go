package app

import (
	"log/slog"
	"os"

	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/tui"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newComposeCommand() *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Open the interactive composer",
		Long:  "Open the interactive composer. The terminal is taken over, so logs go to --log-file or nowhere.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "open log file", err)
				}
				defer f.Close()
				s.logger = newLogger(f, s.settings.LogLevel, s.settings.LogFormat)
			} else {
				s.logger = slog.New(slog.DiscardHandler)
			}

			sess, err := s.newSession(true)
			if err != nil {
				return err
			}
			if err := tui.Run(cmd.Context(), sess, tui.Options{
				TickInterval: s.settings.TickInterval,
				Clock:        s.runner.clock,
				Logger:       s.logger,
			}); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "run composer", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file while the composer runs")
	return cmd
}
