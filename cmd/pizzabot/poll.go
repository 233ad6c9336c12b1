package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pizzabot/internal/config"
	"pizzabot/internal/messaging/telegram"
)

func newPollCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Drive the Telegram bot with getUpdates long polling (no public URL needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(rootOpts)
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.telegram == nil {
				return errors.New("poll needs PIZZABOT_TELEGRAM_TOKEN")
			}

			poller := telegram.NewPoller(a.telegram, a.engine.Handle, log.With("component", "poller"))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				poller.Run(gctx)
				return nil
			})
			g.Go(func() error {
				a.reminders.RunScheduler(gctx)
				return nil
			})
			return g.Wait()
		},
	}
}
