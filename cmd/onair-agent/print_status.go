package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/onair-agent/internal/config"
	"github.com/sweeney/onair-agent/internal/display"
	"github.com/sweeney/onair-agent/internal/fetch"
	"github.com/sweeney/onair-agent/internal/logic"
	"github.com/sweeney/onair-agent/internal/netlink"
)

func newPrintStatusCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print-status",
		Short: "Run one poll cycle, print the classification and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			probe := netlink.NewInterfaceProbe(netlink.Config{Interface: cfg.Network.Interface})
			fetcher := fetch.NewHTTPFetcher(cfg.Endpoint, cfg.Timeout, "onair-agent/"+version)
			defer fetcher.CloseIdleConnections()
			return printStatus(cmd.OutOrStdout(), probe, fetcher)
		},
	}

	flags := cmd.Flags()
	registerStatusFlags(flags, cfg)
	flags.StringVar(&cfg.Network.Interface, "interface", cfg.Network.Interface, "Network interface whose link is probed")
	flags.SortFlags = false
	return cmd
}

// observeOnly never acts on a down link: a one-shot check must not leave a
// reconnect command running behind it.
type observeOnly struct {
	logic.Probe
}

func (observeOnly) RequestReconnect() {}

func printStatus(w io.Writer, probe logic.Probe, fetcher logic.Fetcher) error {
	sink := &logic.RecordingSink{}
	m := logic.NewMachine(observeOnly{probe}, fetcher, sink)
	out := m.Step(context.Background(), time.Now())

	fmt.Fprintf(w, "%s (%s)\n", out.Status, display.GlyphFor(out.Status).Text)
	if out.Err != nil {
		fmt.Fprintf(w, "error: %v\n", out.Err)
	}
	return nil
}
