// README: Entry point; cobra root with the serve (webhooks) and poll (Telegram long polling) commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pizzabot",
		Short: "Pizza ordering bot for Telegram and Facebook Messenger",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "json" && opts.Format != "text" {
				return fmt.Errorf("invalid format %q: must be json or text", opts.Format)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "log format (json|text)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newPollCommand(opts))
	return cmd
}

func newLogger(opts *RootOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(os.Stderr, hopts)
	if opts.Format == "text" {
		h = slog.NewTextHandler(os.Stderr, hopts)
	}
	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
