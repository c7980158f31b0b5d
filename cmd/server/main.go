package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ganot/quotagate/internal/app"
	"github.com/ganot/quotagate/internal/config"
	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "quotagate",
		Short:         "Quota-gated provisioning runs behind a tile challenge, served over MCP",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configPath == "" {
				return nil
			}
			return os.Setenv("QUOTAGATE_CONFIG_PATH", configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides QUOTAGATE_CONFIG_PATH)")
	root.AddCommand(serve)
	root.AddCommand(newExportCmd())
	root.AddCommand(newQuotaCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio or HTTP per QUOTAGATE_TRANSPORT_MODE)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger, closeLog := newLogger(cfg)
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, app.Options{Logger: logger})
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}
			defer a.Close()

			if cfg.Transport.Mode == "stdio" {
				return runStdioMode(ctx, logger, a)
			}
			return runHTTPMode(ctx, logger, a)
		},
	}
}

func newExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := account.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := openQuiet(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := account.Export(a.Accounts.List(), f)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if out == "." {
				out = account.Filename(f, a.Clock.Now())
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d accounts to %s\n", a.Accounts.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "txt", "export format: txt|csv|json|ram")
	cmd.Flags().StringVar(&out, "out", "", "output file; '.' picks a timestamped name, empty writes to stdout")
	return cmd
}

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show today's quota usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openQuiet(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.Quota.Usage())
		},
	}
}

// openQuiet builds the app for one-shot commands, logging only warnings.
func openQuiet(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if ctx == nil {
		ctx = context.Background()
	}
	return app.New(ctx, cfg, app.Options{Logger: logger})
}

func newLogger(cfg config.Config) (*slog.Logger, func()) {
	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	closeFn := func() {}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			closeFn = func() { file.Close() }
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closeFn
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
