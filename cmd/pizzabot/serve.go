package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pizzabot/internal/config"
	httptransport "pizzabot/internal/http"
)

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Telegram and Facebook webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(rootOpts)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			server := httptransport.NewServer(httptransport.ServerDeps{
				Events:              a.engine,
				TelegramEnabled:     a.telegram != nil,
				TelegramSecret:      cfg.Telegram.WebhookSecret,
				FacebookVerifyToken: cfg.Facebook.VerifyToken,
				Log:                 log.With("component", "http"),
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx, cfg.HTTP.Addr)
			})
			g.Go(func() error {
				a.reminders.RunScheduler(gctx)
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PIZZABOT_HTTP_ADDR)")
	return cmd
}
