package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/onair-agent/internal/endpoint"
)

func newServeCommand() *cobra.Command {
	var (
		addr    string
		initial string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a status document for the agent to poll",
		Example: `  # Serve on :5000, then switch the indicator on
  onair-agent serve --addr :5000
  curl -X PUT -d '{"status":"on"}' http://localhost:5000/status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv := endpoint.New(addr, initial)
			errCh := make(chan error, 1)
			go func() {
				zap.S().Named("endpoint").Infow("serving status", "addr", addr, "status", srv.Current().Status)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			stopCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			zap.S().Named("endpoint").Info("server shutdown")
			return srv.Shutdown(stopCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	cmd.Flags().StringVar(&initial, "initial", endpoint.ValueOff, "Initial status: on or off")
	return cmd
}
