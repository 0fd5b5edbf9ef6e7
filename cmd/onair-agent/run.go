package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/onair-agent/internal/config"
	"github.com/sweeney/onair-agent/internal/display"
	"github.com/sweeney/onair-agent/internal/fetch"
	"github.com/sweeney/onair-agent/internal/gpio"
	"github.com/sweeney/onair-agent/internal/logic"
	"github.com/sweeney/onair-agent/internal/mqtt"
	"github.com/sweeney/onair-agent/internal/netlink"
	"github.com/sweeney/onair-agent/internal/status"
	"github.com/sweeney/onair-agent/internal/web"
)

func newRunCommand(cfg *config.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent",
		Example: `  # Poll a local status server and drive BCM pin 17
  onair-agent run --endpoint http://192.168.1.10:5000/status

  # Join a network first and publish transitions to MQTT
  onair-agent run --config /etc/onair-agent.yaml --ssid studio --psk secret --mqtt-broker tcp://broker:1883`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cfg)
		},
	}

	registerRunFlags(runCmd, cfg)
	return runCmd
}

func run(cfg *config.Config) error {
	log := zap.S().Named("agent")
	instanceID := uuid.NewString()

	probe := netlink.NewInterfaceProbe(netlink.Config{
		Interface:        cfg.Network.Interface,
		SSID:             cfg.Network.SSID,
		PSK:              cfg.Network.PSK,
		JoinCommand:      cfg.Network.JoinCommand,
		ReconnectCommand: cfg.Network.ReconnectCommand,
	})
	defer probe.Wait()

	// Join before the first cycle. A link that never comes up is not fatal:
	// the loop reports LINK_DOWN and keeps requesting reconnects.
	joinCtx, cancel := context.WithTimeout(context.Background(), cfg.Network.JoinTimeout)
	if err := probe.Join(joinCtx); err != nil {
		log.Warnw("link not up after join, continuing", "interface", cfg.Network.Interface, "error", err)
	}
	cancel()

	fetcher := fetch.NewHTTPFetcher(cfg.Endpoint, cfg.Timeout, "onair-agent/"+version)
	defer fetcher.CloseIdleConnections()

	var sinks logic.Sinks
	pinLine := -1
	if cfg.Pin.Enabled {
		w, err := gpio.NewRealWriter(cfg.Pin.Chip, cfg.Pin.Line, cfg.Pin.ActiveLow)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		// Releasing the line drives it low.
		defer w.Close()
		sinks = append(sinks, gpio.NewPinSink(w))
		pinLine = cfg.Pin.Line
	}
	if cfg.Display.Enabled {
		sinks = append(sinks, display.NewConsole(os.Stdout, cfg.Display.Color, cfg.Display.Clear))
	}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "onair-agent-" + instanceID[:8]
		}
		p := mqtt.NewRealPublisher(cfg.MQTT.Broker, clientID)
		defer p.Close()
		publisher, mqttStatus = p, p
		sinks = append(sinks, mqtt.NewSink(p, time.Now))
	}

	tracker := status.NewTracker(time.Now(), instanceID, status.Config{
		Endpoint:    cfg.Endpoint,
		PollMs:      cfg.PollInterval.Milliseconds(),
		TimeoutMs:   cfg.Timeout.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Interface:   cfg.Network.Interface,
		Pin:         pinLine,
		Display:     cfg.Display.Enabled,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})
	tracker.SetNetwork(networkInfo(probe.Info()))

	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      mqtt.EventStartup,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Warnw("failed to publish startup event", "error", err)
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.Infow("http status server listening", "addr", cfg.HTTPAddr)
	}

	log.Infow("started",
		"instance_id", instanceID,
		"endpoint", cfg.Endpoint,
		"poll_interval", cfg.PollInterval,
		"timeout", cfg.Timeout,
		"interface", cfg.Network.Interface,
		"sinks", len(sinks),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	loop := &agentLoop{
		machine:    logic.NewMachine(probe, fetcher, sinks),
		network:    probe,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.MQTT.Heartbeat,
	}
	next := func() <-chan time.Time { return time.After(cfg.PollInterval) }
	return loop.run(time.Now, next, sigCh)
}

// networkSource describes the probed interface for status reporting.
type networkSource interface {
	Info() netlink.Info
}

// agentLoop is everything the poll loop touches. publisher and mqttStatus
// are nil when MQTT is disabled.
type agentLoop struct {
	machine    *logic.Machine
	network    networkSource
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
}

// run performs one cycle immediately and then one more each time next's
// channel fires. The delay is armed after the cycle finishes, so cycles
// never overlap. A signal is only observed between cycles.
func (a *agentLoop) run(now func() time.Time, next func() <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(a.heartbeat, now())

	for {
		a.cycle(now(), hb)

		select {
		case s := <-sig:
			a.shutdown(now(), s)
			return nil
		case <-next():
		}
	}
}

func (a *agentLoop) cycle(t time.Time, hb *logic.Heartbeat) {
	out := a.machine.Step(context.Background(), t)
	logOutcome(out)

	a.tracker.Record(out, a.machine.CountsSnapshot())
	a.tracker.SetNetwork(networkInfo(a.network.Info()))
	if a.mqttStatus != nil {
		a.tracker.SetMQTTConnected(a.mqttStatus.IsConnected())
	}

	hbData := hb.Check(t, a.machine)
	if hbData == nil || a.publisher == nil {
		return
	}
	zap.S().Named("agent").Infow("heartbeat",
		"uptime", hbData.Uptime,
		"status", hbData.Status,
		"renders", hbData.Counts.Total(),
	)
	event := mqtt.SystemEvent{
		Timestamp:  hbData.Timestamp,
		Event:      mqtt.EventHeartbeat,
		RawPayload: status.FormatStatusEvent(a.tracker.Snapshot(), mqtt.EventHeartbeat, ""),
	}
	if err := a.publisher.PublishSystem(event); err != nil {
		zap.S().Named("agent").Warnw("heartbeat publish error", "error", err)
	}
}

func (a *agentLoop) shutdown(t time.Time, s os.Signal) {
	log := zap.S().Named("agent")
	name := signalName(s)
	log.Infow("shutting down", "signal", name)

	if a.publisher == nil {
		return
	}
	if a.mqttStatus != nil {
		a.tracker.SetMQTTConnected(a.mqttStatus.IsConnected())
	}
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      mqtt.EventShutdown,
		Reason:     name,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(a.tracker.Snapshot(), mqtt.EventShutdown, name),
	}
	if err := a.publisher.PublishSystem(event); err != nil {
		log.Warnw("failed to publish shutdown event", "error", err)
	}
}

// logOutcome logs transitions at info and repeated failures at debug, so a
// long outage does not flood the log.
func logOutcome(out logic.Outcome) {
	log := zap.S().Named("agent")

	logf := log.Debugw
	if out.Changed {
		logf = log.Warnw
	}

	var te *fetch.TransportError
	switch {
	case errors.As(out.Err, &te):
		logf("fetch failed", "kind", te.Kind, "status_code", te.StatusCode, "timeout", te.IsTimeout(), "error", te.Err)
	case out.Err != nil:
		logf("parse failed", "error", out.Err)
	case out.Status == logic.StatusLinkDown:
		logf("link down, reconnect requested")
	}

	if out.Changed {
		log.Infow("indicator changed", "status", out.Status, "previous", out.Previous)
	}
	if out.RenderErr != nil {
		log.Errorw("render failed", "status", out.Status, "error", out.RenderErr)
	}
}

func networkInfo(info netlink.Info) *status.NetworkInfo {
	return &status.NetworkInfo{
		Interface: info.Interface,
		Up:        info.Up,
		IP:        info.IP,
		SSID:      info.SSID,
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
