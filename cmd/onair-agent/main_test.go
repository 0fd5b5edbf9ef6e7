package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/onair-agent/internal/config"
	"github.com/sweeney/onair-agent/internal/fetch"
	"github.com/sweeney/onair-agent/internal/gpio"
	"github.com/sweeney/onair-agent/internal/logic"
	"github.com/sweeney/onair-agent/internal/mqtt"
	"github.com/sweeney/onair-agent/internal/netlink"
	"github.com/sweeney/onair-agent/internal/status"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from the loop goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

type harness struct {
	probe   *netlink.FakeProbe
	fetcher *fetch.FakeFetcher
	pin     *gpio.FakeWriter
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	loop    *agentLoop
}

func newHarness(probe *netlink.FakeProbe, fetcher *fetch.FakeFetcher, heartbeat time.Duration) *harness {
	h := &harness{
		probe:   probe,
		fetcher: fetcher,
		pin:     gpio.NewFakeWriter(),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "test", status.Config{}),
	}
	// The sink gets its own clock so renders do not advance the loop's.
	sinkClock := func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	sinks := logic.Sinks{gpio.NewPinSink(h.pin), mqtt.NewSink(h.pub, sinkClock)}
	h.loop = &agentLoop{
		machine:    logic.NewMachine(probe, fetcher, sinks),
		network:    probe,
		publisher:  h.pub,
		mqttStatus: h.pub,
		tracker:    h.tracker,
		heartbeat:  heartbeat,
	}
	return h
}

// runLoop drives the loop for the initial cycle plus nTicks more, then
// delivers signal and waits for the loop to return.
func (h *harness) runLoop(t *testing.T, clock func() time.Time, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	next := func() <-chan time.Time { return tick }

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.loop.run(clock, next, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func testClock() func() time.Time {
	return fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 3*time.Second)
}

func TestRunLoopFirstCycleRendersImmediately(t *testing.T) {
	clock := testClock()
	h := newHarness(netlink.NewFakeProbe(true), fetch.NewFakeFetcher(fetch.Body(`{"status":"on"}`)), 0)

	if err := h.runLoop(t, clock, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if h.fetcher.Calls != 1 {
		t.Errorf("expected 1 fetch before any tick, got %d", h.fetcher.Calls)
	}
	if len(h.pub.Events) != 1 || h.pub.Events[0].Status != logic.StatusOn {
		t.Fatalf("expected one ON event, got %+v", h.pub.Events)
	}
	if len(h.pin.Levels) != 1 || !h.pin.Levels[0] {
		t.Errorf("expected pin driven high once, got %v", h.pin.Levels)
	}
}

func TestRunLoopEndToEndScenario(t *testing.T) {
	// on, on, timeout, link down, off
	probe := netlink.NewFakeProbe(true, true, true, false, true)
	fetcher := fetch.NewFakeFetcher(
		fetch.Body(`{"status":"on"}`),
		fetch.Body(`{"status":"on"}`),
		fetch.Fail(&fetch.TransportError{Kind: fetch.KindConnect, Err: errors.New("timeout")}),
		fetch.Body(`{"status":"off"}`),
	)
	clock := testClock()
	h := newHarness(probe, fetcher, 0)

	if err := h.runLoop(t, clock, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	want := []logic.Status{logic.StatusOn, logic.StatusFetchError, logic.StatusLinkDown, logic.StatusOff}
	if len(h.pub.Events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(h.pub.Events), h.pub.Events)
	}
	for i, w := range want {
		if h.pub.Events[i].Status != w {
			t.Errorf("event %d: got %s, want %s", i, h.pub.Events[i].Status, w)
		}
	}
	if h.pub.Events[1].Previous != logic.StatusOn {
		t.Errorf("event 1 previous: got %s, want ON", h.pub.Events[1].Previous)
	}

	wantLevels := []bool{true, false, false, false}
	if len(h.pin.Levels) != len(wantLevels) {
		t.Fatalf("pin levels: got %v, want %v", h.pin.Levels, wantLevels)
	}
	for i, w := range wantLevels {
		if h.pin.Levels[i] != w {
			t.Errorf("pin level %d: got %v, want %v", i, h.pin.Levels[i], w)
		}
	}

	if h.fetcher.Calls != 4 {
		t.Errorf("link-down cycle must not fetch: got %d fetches, want 4", h.fetcher.Calls)
	}
	if h.probe.Reconnects != 1 {
		t.Errorf("expected 1 reconnect request, got %d", h.probe.Reconnects)
	}

	snap := h.tracker.Snapshot()
	if snap.Cycles != 5 {
		t.Errorf("tracker cycles: got %d, want 5", snap.Cycles)
	}
	if snap.Status != logic.StatusOff {
		t.Errorf("tracker status: got %s, want OFF", snap.Status)
	}
	if snap.Network == nil || snap.Network.Interface != "fake0" {
		t.Errorf("tracker network: got %+v", snap.Network)
	}
}

func TestRunLoopShutdownEvent(t *testing.T) {
	for _, tt := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGINT, "SIGINT"},
	} {
		clock := testClock()
		h := newHarness(netlink.NewFakeProbe(), fetch.NewFakeFetcher(fetch.Body(`{"status":"off"}`)), 0)
		h.pub.Connected = true

		if err := h.runLoop(t, clock, 2, tt.sig); err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}

		if len(h.pub.SystemEvents) != 1 {
			t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
		}
		se := h.pub.SystemEvents[0]
		if se.Event != mqtt.EventShutdown {
			t.Errorf("expected SHUTDOWN, got %q", se.Event)
		}
		if se.Reason != tt.want {
			t.Errorf("reason: got %q, want %q", se.Reason, tt.want)
		}
		if !se.Retained {
			t.Error("shutdown event should be retained")
		}
		if !strings.Contains(string(h.pub.SystemPayloads[0]), `"indicator":"OFF"`) {
			t.Errorf("shutdown payload missing indicator: %s", h.pub.SystemPayloads[0])
		}
		if !h.tracker.Snapshot().MQTTConnected {
			t.Error("tracker should report MQTT connected")
		}
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// 5-minute steps: the heartbeat starts at t0 and cycles run at +5m, +10m,
	// +15m and +20m. With a 15-minute interval it fires once, at +15m.
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)
	h := newHarness(netlink.NewFakeProbe(), fetch.NewFakeFetcher(fetch.Body(`{"status":"on"}`)), 15*time.Minute)

	if err := h.runLoop(t, clock, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var heartbeats, shutdowns int
	for i, se := range h.pub.SystemEvents {
		switch se.Event {
		case mqtt.EventHeartbeat:
			heartbeats++
			if se.Retained {
				t.Error("heartbeat should not be retained")
			}
			if name := h.pub.SystemEventNames()[i]; name != mqtt.EventHeartbeat {
				t.Errorf("heartbeat payload event: got %q", name)
			}
		case mqtt.EventShutdown:
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestRunLoopRenderErrorDoesNotStopLoop(t *testing.T) {
	clock := testClock()
	fetcher := fetch.NewFakeFetcher(fetch.Body(`{"status":"on"}`), fetch.Body(`{"status":"off"}`))
	h := newHarness(netlink.NewFakeProbe(), fetcher, 0)
	h.pub.PublishError = errors.New("broker unavailable")

	if err := h.runLoop(t, clock, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// The pin still sees both transitions even though the MQTT sink fails.
	if len(h.pin.Levels) != 2 || !h.pin.Levels[0] || h.pin.Levels[1] {
		t.Errorf("pin levels: got %v, want [true false]", h.pin.Levels)
	}
	if h.loop.machine.Last() != logic.StatusOff {
		t.Errorf("last: got %s, want OFF", h.loop.machine.Last())
	}
	if h.fetcher.Calls != 3 {
		t.Errorf("expected 3 cycles, got %d fetches", h.fetcher.Calls)
	}
}

func TestRunLoopWithoutMQTT(t *testing.T) {
	clock := testClock()
	probe := netlink.NewFakeProbe()
	fetcher := fetch.NewFakeFetcher(fetch.Body(`{"status":"on"}`))
	pin := gpio.NewFakeWriter()
	tracker := status.NewTracker(time.Now(), "test", status.Config{})
	loop := &agentLoop{
		machine:   logic.NewMachine(probe, fetcher, gpio.NewPinSink(pin)),
		network:   probe,
		tracker:   tracker,
		heartbeat: time.Second,
	}

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- loop.run(clock, func() <-chan time.Time { return tick }, sig) }()
	tick <- time.Time{}
	sig <- syscall.SIGTERM

	if err := <-errCh; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !pin.Level() {
		t.Error("expected pin high")
	}
}

func TestPrintStatus(t *testing.T) {
	tests := []struct {
		name    string
		link    bool
		resp    fetch.Response
		want    string
		wantErr bool
	}{
		{"on", true, fetch.Body(`{"status":"on"}`), "ON ( ONAIR )", false},
		{"off", true, fetch.Body(`{"status":"off"}`), "OFF (OFFLINE)", false},
		{"garbage", true, fetch.Body(`<html>`), "PARSE_ERROR (Bad Reply)", true},
		{"fetch error", true, fetch.Fail(&fetch.TransportError{Kind: fetch.KindStatus, StatusCode: 503}), "FETCH_ERROR (Connect Err)", true},
		{"link down", false, fetch.Body(`{"status":"on"}`), "LINK_DOWN (WiFi Error)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := netlink.NewFakeProbe(tt.link)
			var buf bytes.Buffer
			if err := printStatus(&buf, probe, fetch.NewFakeFetcher(tt.resp)); err != nil {
				t.Fatalf("printStatus: %v", err)
			}
			out := buf.String()
			if !strings.HasPrefix(out, tt.want+"\n") {
				t.Errorf("output: got %q, want prefix %q", out, tt.want)
			}
			if got := strings.Contains(out, "error:"); got != tt.wantErr {
				t.Errorf("error line present: got %v, want %v", got, tt.wantErr)
			}
			if probe.Reconnects != 0 {
				t.Error("print-status must not request a reconnect")
			}
		})
	}
}

func TestApplyConfigFileFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	doc := "endpoint: http://file/status\npoll_interval: 10s\nnetwork:\n  interface: eth0\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCommand()
	cmd.SetArgs([]string{"version", "--config", path})
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg := config.New()
	runCmd := newRunCommand(cfg)
	if err := runCmd.ParseFlags([]string{"--endpoint", "http://flag/status"}); err != nil {
		t.Fatal(err)
	}
	if err := applyConfigFile(runCmd.Flags(), cfg, path); err != nil {
		t.Fatalf("applyConfigFile: %v", err)
	}

	if cfg.Endpoint != "http://flag/status" {
		t.Errorf("flag should win over file: got %q", cfg.Endpoint)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("file value should apply: got %v", cfg.PollInterval)
	}
	if cfg.Network.Interface != "eth0" {
		t.Errorf("file value should apply: got %q", cfg.Network.Interface)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("default should survive: got %v", cfg.Timeout)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("got %q, want %q", out.String(), version)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"run", "--endpoint", "not-a-url", "--pin=false", "--display=false"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("expected endpoint validation error, got %v", err)
	}
}
