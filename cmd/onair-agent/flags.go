package main

import (
	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sweeney/onair-agent/internal/config"
)

func groupTitle(name string) string {
	return color.New(color.FgBlue, color.Bold).Sprint(name)
}

func registerRunFlags(cmd *cobra.Command, cfg *config.Config) {
	nfs := cobrautil.NewNamedFlagSets(cmd)

	registerStatusFlags(nfs.FlagSet(groupTitle("Status")), cfg)
	registerNetworkFlags(nfs.FlagSet(groupTitle("Network")), cfg)
	registerIndicatorFlags(nfs.FlagSet(groupTitle("Indicator")), cfg)
	registerMQTTFlags(nfs.FlagSet(groupTitle("MQTT")), cfg)
	registerHTTPFlags(nfs.FlagSet(groupTitle("HTTP")), cfg)

	nfs.AddFlagSets(cmd)
}

func registerStatusFlags(flagSet *pflag.FlagSet, cfg *config.Config) {
	flagSet.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "URL of the remote status document")
	flagSet.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Delay between poll cycles")
	flagSet.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Bound on each status request, including connect")
}

func registerNetworkFlags(flagSet *pflag.FlagSet, cfg *config.Config) {
	flagSet.StringVar(&cfg.Network.Interface, "interface", cfg.Network.Interface, "Network interface whose link is probed")
	flagSet.StringVar(&cfg.Network.SSID, "ssid", cfg.Network.SSID, "WiFi network joined at startup (empty skips the join)")
	flagSet.StringVar(&cfg.Network.PSK, "psk", cfg.Network.PSK, "WiFi passphrase")
	flagSet.StringVar(&cfg.Network.JoinCommand, "join-command", cfg.Network.JoinCommand, "Command run to join the network; {iface}, {ssid} and {psk} are substituted")
	flagSet.StringVar(&cfg.Network.ReconnectCommand, "reconnect-command", cfg.Network.ReconnectCommand, "Command run when the link is down; {iface} is substituted")
	flagSet.DurationVar(&cfg.Network.JoinTimeout, "join-timeout", cfg.Network.JoinTimeout, "How long to wait for the link at startup")
}

func registerIndicatorFlags(flagSet *pflag.FlagSet, cfg *config.Config) {
	flagSet.BoolVar(&cfg.Pin.Enabled, "pin", cfg.Pin.Enabled, "Drive a GPIO output line")
	flagSet.StringVar(&cfg.Pin.Chip, "gpio-chip", cfg.Pin.Chip, "GPIO chip name")
	flagSet.IntVar(&cfg.Pin.Line, "pin-line", cfg.Pin.Line, "GPIO line offset (BCM number on a Raspberry Pi)")
	flagSet.BoolVar(&cfg.Pin.ActiveLow, "pin-active-low", cfg.Pin.ActiveLow, "Treat the line as active-low")
	flagSet.BoolVar(&cfg.Display.Enabled, "display", cfg.Display.Enabled, "Render the status glyph on stdout")
	flagSet.BoolVar(&cfg.Display.Color, "display-color", cfg.Display.Color, "Use colour escape codes on the display")
	flagSet.BoolVar(&cfg.Display.Clear, "display-clear", cfg.Display.Clear, "Clear the screen before each render")
}

func registerMQTTFlags(flagSet *pflag.FlagSet, cfg *config.Config) {
	flagSet.StringVar(&cfg.MQTT.Broker, "mqtt-broker", cfg.MQTT.Broker, "MQTT broker URL (empty disables MQTT)")
	flagSet.StringVar(&cfg.MQTT.ClientID, "mqtt-client-id", cfg.MQTT.ClientID, "MQTT client id (default derived from the instance id)")
	flagSet.DurationVar(&cfg.MQTT.Heartbeat, "heartbeat", cfg.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
}

func registerHTTPFlags(flagSet *pflag.FlagSet, cfg *config.Config) {
	flagSet.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP status page address (empty to disable)")
}
