package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gridsync/internal/config"
	"github.com/roach88/gridsync/internal/syncd"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Address string // overrides the config listen address when set
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shared sync server",
		Long: `Run the record store the devices sync against.

Reads the [Syncd] section of the config file, opens (or creates) the
server database, and serves the sync API until interrupted.

Example:
  gridsync serve
  gridsync serve --addr :9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Address != "" {
		cfg.Syncd.Address = opts.Address
	}

	slog.Info("opening server database", "path", cfg.Syncd.DatabasePath)
	store, err := syncd.OpenStore(cfg.Syncd.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open server database", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing server database", "error", closeErr)
		}
	}()

	server := syncd.NewServer(store, cfg.Syncd)
	httpServer := &http.Server{
		Addr:    cfg.Syncd.Address,
		Handler: server.Handler(),
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("sync server listening", "addr", httpServer.Addr)
		errChan <- httpServer.ListenAndServe()
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "Sync server started. Press Ctrl-C to stop.")

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown error", err)
		}
	}

	slog.Info("sync server stopped gracefully")
	return nil
}
