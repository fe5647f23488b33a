package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/model"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/registry"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newRegistryCommand() *cobra.Command {
	root := &cobra.Command{Use: "registry", Short: "Palette of protocol, token and action blocks"}

	root.AddCommand(&cobra.Command{
		Use:   "protocols",
		Short: "List protocol blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), registry.Protocols(), nil)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "tokens",
		Short: "List token blocks with seed prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), registry.Tokens(), nil)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "actions",
		Short: "List action blocks and their connector methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), registry.Actions(), nil)
		},
	})
	return root
}

func (s *runtimeState) newPricesCommand() *cobra.Command {
	var ticks int
	var seed int64
	var follow bool
	cmd := &cobra.Command{
		Use:     "prices",
		Short:   "Show the mock price table",
		Long:    "Show the mock price table. --ticks applies that many jitter steps first; --follow emits one envelope per tick on the configured interval.",
		Example: "  composer prices\n  composer prices --ticks 3 --seed 42\n  composer prices --follow --ticks 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 {
				return clierr.New(clierr.CodeUsage, "--ticks must be >= 0")
			}
			path := trimRootPath(cmd.CommandPath())
			table := prices.NewTable(registry.InitialPrices(), s.settings.GasPriceGwei)
			rng := rand.New(rand.NewSource(seed))
			if !cmd.Flags().Changed("seed") {
				rng = rand.New(rand.NewSource(s.runner.now().UnixNano()))
			}

			if !follow {
				snap := table.Snapshot()
				ticker := prices.NewTicker(table, prices.TickerOptions{Rand: rng, Logger: s.logger})
				for i := 0; i < ticks; i++ {
					snap = ticker.Step()
				}
				return s.emitSuccess(path, priceTick(ticks, snap), nil)
			}
			return s.followPrices(cmd.Context(), path, table, rng, ticks)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Number of jitter steps (with --follow: stop after this many, 0 = until interrupted)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the jitter source")
	cmd.Flags().BoolVar(&follow, "follow", false, "Stream a tick every interval")
	return cmd
}

func (s *runtimeState) followPrices(ctx context.Context, path string, table *prices.Table, rng *rand.Rand, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		n       int
		emitErr error
	)
	ticker := prices.NewTicker(table, prices.TickerOptions{
		Clock:    s.runner.clock,
		Interval: s.settings.TickInterval,
		Rand:     rng,
		Logger:   s.logger,
		OnTick: func(snap prices.Snapshot) {
			n++
			if err := s.emitSuccess(path, priceTick(n, snap), nil); err != nil {
				emitErr = err
				cancel()
				return
			}
			if limit > 0 && n >= limit {
				cancel()
			}
		},
	})
	if err := s.emitSuccess(path, priceTick(0, table.Snapshot()), nil); err != nil {
		return err
	}
	err := ticker.Run(ctx)
	if emitErr != nil {
		return emitErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func priceTick(n int, snap prices.Snapshot) model.PriceTick {
	return model.PriceTick{
		Tick:         n,
		Prices:       snap.Prices,
		GasPriceGwei: snap.GasPriceGwei,
		UpdatedAt:    snap.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
