package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/session"
)

type Options struct {
	TickInterval time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Run starts the composer on the terminal and blocks until the user quits or
// ctx is cancelled. Prices keep ticking in the background for the whole run.
func Run(ctx context.Context, sess *session.Session, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	ticker := prices.NewTicker(sess.Prices(), prices.TickerOptions{
		Clock:    opts.Clock,
		Interval: opts.TickInterval,
		Logger:   opts.Logger,
		OnTick:   func(snap prices.Snapshot) { p.Send(pricesMsg(snap)) },
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ticker.Run(ctx)
	}()

	opts.Logger.Info("composer started", "session_id", sess.ID())
	_, err := p.Run()
	cancel()
	<-done
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
