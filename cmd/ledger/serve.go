package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/recurring"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run recurring charges on a schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Server")
			ctx := interrupts.HandleInterrupts(cmd.Context())

			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			issuer, err := a.issuer()
			if err != nil {
				return err
			}

			if !noScheduler {
				runner, err := recurring.NewRunner(a.scheduler, a.cfg.Scheduler.Schedule)
				if err != nil {
					return err
				}
				runner.Start(ctx)
			}

			handler := api.NewHandler(api.Services{
				Ledger:        a.ledger,
				Recurring:     a.scheduler,
				Loans:         a.loans,
				Budgets:       a.budgets,
				Notifications: a.notes,
			}, issuer, time.Now)
			server := api.NewServer(a.cfg.Server.Address, handler)

			return serve(ctx, server)
		},
	}

	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve the API without the recurring trigger")
	return cmd
}

// serve runs server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		common.LogInfo("Starting server", common.Fields{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	common.LogInfo("Server stopped", nil)
	return nil
}
