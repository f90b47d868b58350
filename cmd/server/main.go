package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/presence-relay/internal/app"
	"github.com/vovakirdan/presence-relay/internal/config"
	"github.com/vovakirdan/presence-relay/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	overrides := config.Config{}

	cmd := &cobra.Command{
		Use:          "presence-relay",
		Short:        "Real-time presence and messaging relay server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config file")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&overrides.EventRateLimit, "event-rate-limit", 0, "inbound events per connection per minute (0 = unlimited)")
	flags.IntVar(&overrides.SendBuffer, "send-buffer", 0, "outbound queue size per connection")

	return cmd
}

func run(ctx context.Context, configPath string, overrides config.Config) error {
	bootLog := log.New("info")

	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("addr", cfg.Addr).Str("config", path).Msg("starting presence relay")

	application := app.New(cfg, logger)
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
