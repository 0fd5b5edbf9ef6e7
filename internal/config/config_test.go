package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := New()
	cfg.Endpoint = "http://192.168.1.10:5000/status"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := New()

	if cfg.PollInterval != 3*time.Second {
		t.Errorf("PollInterval: got %v, want 3s", cfg.PollInterval)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout: got %v, want 2s", cfg.Timeout)
	}
	if cfg.Network.Interface != "wlan0" {
		t.Errorf("Interface: got %q, want wlan0", cfg.Network.Interface)
	}
	if cfg.Network.JoinTimeout != 30*time.Second {
		t.Errorf("JoinTimeout: got %v, want 30s", cfg.Network.JoinTimeout)
	}
	if !strings.Contains(cfg.Network.ReconnectCommand, "{iface}") {
		t.Errorf("ReconnectCommand: got %q", cfg.Network.ReconnectCommand)
	}
	if !cfg.Pin.Enabled || cfg.Pin.Chip != "gpiochip0" || cfg.Pin.Line != 17 {
		t.Errorf("Pin: got %+v", cfg.Pin)
	}
	if !cfg.Display.Enabled || !cfg.Display.Color || !cfg.Display.Clear {
		t.Errorf("Display: got %+v", cfg.Display)
	}
	if cfg.MQTT.Broker != "" {
		t.Errorf("Broker: got %q, want empty", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Heartbeat != 15*time.Minute {
		t.Errorf("Heartbeat: got %v, want 15m", cfg.MQTT.Heartbeat)
	}
	if cfg.Log.Format != "console" || cfg.Log.Level != "info" {
		t.Errorf("Log: got %+v", cfg.Log)
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg := New()
	doc := `
endpoint: https://example.com/status
poll_interval: 5s
network:
  ssid: studio
  psk: secret
pin:
  enabled: false
mqtt:
  broker: tcp://broker:1883
`
	if err := Decode(cfg, []byte(doc)); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if cfg.Endpoint != "https://example.com/status" {
		t.Errorf("Endpoint: got %q", cfg.Endpoint)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval: got %v, want 5s", cfg.PollInterval)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout should keep its default, got %v", cfg.Timeout)
	}
	if cfg.Network.SSID != "studio" || cfg.Network.Interface != "wlan0" {
		t.Errorf("Network: got %+v", cfg.Network)
	}
	if cfg.Pin.Enabled {
		t.Error("Pin.Enabled should be overridden to false")
	}
	if cfg.Pin.Line != 17 {
		t.Errorf("Pin.Line should keep its default, got %d", cfg.Pin.Line)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("Broker: got %q", cfg.MQTT.Broker)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := New()
	if err := Decode(cfg, []byte("endpont: http://x/status\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	cfg := New()
	if err := Decode(cfg, nil); err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("empty document must keep defaults, got %v", cfg.PollInterval)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("endpoint: http://10.0.0.2:5000/status\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "http://10.0.0.2:5000/status" {
		t.Errorf("Endpoint: got %q", cfg.Endpoint)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.Interface != "wlan0" {
		t.Errorf("expected defaults, got %+v", cfg.Network)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"https endpoint", func(c *Config) { c.Endpoint = "https://example.com/status" }, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint"},
		{"relative endpoint", func(c *Config) { c.Endpoint = "/status" }, "endpoint"},
		{"ftp endpoint", func(c *Config) { c.Endpoint = "ftp://host/status" }, "endpoint"},
		{"poll too short", func(c *Config) { c.PollInterval = 50 * time.Millisecond }, "poll_interval"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"timeout equals poll", func(c *Config) { c.Timeout = c.PollInterval }, "timeout"},
		{"timeout exceeds poll", func(c *Config) { c.Timeout = 5 * time.Second }, "timeout"},
		{"missing interface", func(c *Config) { c.Network.Interface = "" }, "interface"},
		{"psk without ssid", func(c *Config) { c.Network.PSK = "secret" }, "psk"},
		{"pin disabled without chip", func(c *Config) { c.Pin.Enabled = false; c.Pin.Chip = "" }, ""},
		{"pin enabled without chip", func(c *Config) { c.Pin.Chip = "" }, "chip"},
		{"negative line", func(c *Config) { c.Pin.Line = -1 }, "line"},
		{"tcp broker", func(c *Config) { c.MQTT.Broker = "tcp://broker:1883" }, ""},
		{"ws broker", func(c *Config) { c.MQTT.Broker = "ws://broker:9001" }, ""},
		{"http broker", func(c *Config) { c.MQTT.Broker = "http://broker" }, "broker"},
		{"broker without host", func(c *Config) { c.MQTT.Broker = "tcp://" }, "broker"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "format"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
