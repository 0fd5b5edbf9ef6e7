// Package config holds the agent configuration: defaults, YAML file and
// validation. Command-line flags are layered on top by the cmd package.
package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Config is the complete agent configuration. It is immutable once the
// agent has started.
type Config struct {
	// Endpoint is the URL of the remote status document.
	Endpoint     string        `yaml:"endpoint"`
	PollInterval time.Duration `yaml:"poll_interval" default:"3s"`
	Timeout      time.Duration `yaml:"timeout" default:"2s"`

	Network Network `yaml:"network"`
	Pin     Pin     `yaml:"pin"`
	Display Display `yaml:"display"`
	MQTT    MQTT    `yaml:"mqtt"`

	// HTTPAddr is the status page listen address. Empty disables it.
	HTTPAddr string `yaml:"http_addr" default:":8080"`

	Log Log `yaml:"log"`
}

// Network configures the connectivity probe.
type Network struct {
	Interface        string        `yaml:"interface" default:"wlan0"`
	SSID             string        `yaml:"ssid"`
	PSK              string        `yaml:"psk"`
	JoinCommand      string        `yaml:"join_command" default:"nmcli device wifi connect {ssid} password {psk} ifname {iface}"`
	ReconnectCommand string        `yaml:"reconnect_command" default:"wpa_cli -i {iface} reconnect"`
	JoinTimeout      time.Duration `yaml:"join_timeout" default:"30s"`
}

// Pin configures the binary output indicator.
type Pin struct {
	Enabled   bool   `yaml:"enabled" default:"true"`
	Chip      string `yaml:"chip" default:"gpiochip0"`
	Line      int    `yaml:"line" default:"17"`
	ActiveLow bool   `yaml:"active_low"`
}

// Display configures the terminal glyph renderer.
type Display struct {
	Enabled bool `yaml:"enabled" default:"true"`
	Color   bool `yaml:"color" default:"true"`
	Clear   bool `yaml:"clear" default:"true"`
}

// MQTT configures event publishing. An empty Broker disables it.
type MQTT struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat" default:"15m"`
}

// Log configures the zap logger.
type Log struct {
	Format string `yaml:"format" default:"console"`
	Level  string `yaml:"level" default:"info"`
}

// New returns a Config populated with defaults.
func New() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}
