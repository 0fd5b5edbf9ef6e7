// Package netlink reports whether the network link is usable and asks the
// system to restore it when it is not.
// The real implementation inspects a Linux interface and shells out to the
// configured Wi-Fi tooling. The fake implementation allows testing without
// a network.
package netlink

import (
	"net"
	"strings"
)

// Link is the observed state of a network interface.
type Link struct {
	Name    string
	Up      bool // administratively up
	Running bool // carrier / associated
	Addrs   []net.Addr
}

// Usable reports whether the link can carry traffic: it must be up, running
// and hold at least one routable unicast address.
func (l Link) Usable() bool {
	if !l.Up || !l.Running {
		return false
	}
	return l.IP() != ""
}

// IP returns the first routable unicast address, preferring IPv4.
func (l Link) IP() string {
	var v6 string
	for _, a := range l.Addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || !ipn.IP.IsGlobalUnicast() {
			continue
		}
		if ipn.IP.To4() != nil {
			return ipn.IP.String()
		}
		if v6 == "" {
			v6 = ipn.IP.String()
		}
	}
	return v6
}

// Info is a point-in-time description of the link for status reporting.
type Info struct {
	Interface string
	Up        bool
	IP        string
	SSID      string
}

// Placeholders substituted in command templates.
const (
	PlaceholderInterface = "{iface}"
	PlaceholderSSID      = "{ssid}"
	PlaceholderPSK       = "{psk}"
)

// Default command templates for a wpa_supplicant / NetworkManager system.
const (
	DefaultReconnectCommand = "wpa_cli -i {iface} reconnect"
	DefaultJoinCommand      = "nmcli device wifi connect {ssid} password {psk} ifname {iface}"
)

// expandCommand splits a command template into argv and substitutes
// placeholders per argument, so values containing spaces stay one argument.
func expandCommand(template string, vars map[string]string) []string {
	fields := strings.Fields(template)
	argv := make([]string, 0, len(fields))
	for _, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, k, v)
		}
		argv = append(argv, f)
	}
	return argv
}
