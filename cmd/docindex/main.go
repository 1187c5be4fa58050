package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/docindex/internal/api"
	"github.com/a3tai/docindex/internal/config"
	"github.com/a3tai/docindex/internal/mcp"
	"github.com/a3tai/docindex/internal/tasks"
	"github.com/a3tai/docindex/internal/version"
)

// newLogger configures logging based on the run mode
func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	// stdout carries the MCP protocol in stdio mode; stay quiet unless debugging
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// run serves the HTTP API or the MCP server until ctx is cancelled
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsStdioMode() {
		server, err := mcp.NewServer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}

	service := tasks.NewService(tasks.Options{
		MaxFileSize:     cfg.MaxFileSize,
		TableSeparator:  cfg.TableSeparator,
		StrictPageRange: cfg.StrictPageRange,
		ComposeUnicode:  cfg.ComposeUnicode,
	})
	server := api.NewServer(api.Options{
		MaxFileSize:    cfg.MaxFileSize,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
	}, tasks.NewLoggingProcessor(service, logger), logger)

	return server.Run(ctx, cfg.Address())
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version.Version != "dev" {
		cfg.Version = version.Version
	}

	logger := newLogger(cfg, os.Stderr)
	logger.Debug("starting", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		// the logger is silent in stdio mode
		fmt.Fprintf(os.Stderr, "docindex: %v\n", err)
		stop()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "docindex\n")
	fmt.Fprintf(w, "Version: %s\n", version.Version)
	fmt.Fprintf(w, "Build Time: %s\n", version.BuildDate)
	fmt.Fprintf(w, "Git Commit: %s\n", version.Commit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
