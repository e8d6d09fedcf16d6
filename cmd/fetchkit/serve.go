package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/fetchkit/internal/config"
	"github.com/brizzai/fetchkit/internal/logger"
	"github.com/brizzai/fetchkit/internal/requester"
	"github.com/brizzai/fetchkit/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const lifecycleTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fetch_data MCP tool",
		Long: `Serve exposes the request layer as the fetch_data MCP tool over stdio,
SSE or streamable HTTP, selected with --mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), a.cfg)
		},
	}
}

func newApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Supply(cfg, &cfg.Client),
		fx.Provide(logger.GetLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		requester.Module,
		server.Module,
	)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	fxApp := newApp(cfg)
	if err := fxApp.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sig := <-fxApp.Wait()
	logger.Info("Shutting down", zap.Int("exit_code", sig.ExitCode))

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if sig.ExitCode != 0 {
		return &exitError{code: sig.ExitCode}
	}
	return nil
}
