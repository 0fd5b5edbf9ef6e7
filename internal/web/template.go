package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/onair-agent/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"cssClass": func(indicator string) string {
		return strings.ToLower(strings.ReplaceAll(indicator, "_", "-"))
	},
	"ts": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>On Air</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.indicator { font-size: 2.5em; text-align: center; padding: 0.4em; margin: 0.5em 0; background: #111; }
.on { color: red; font-weight: bold; }
.off { color: green; }
.fetch-error, .parse-error { color: #d4a000; }
.link-down { color: #36f; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>On Air</h1>

<div id="indicator" class="indicator {{cssClass .Indicator}}">{{.Indicator}}</div>

<h2>Polling</h2>
<table>
<tr><th>Endpoint</th><td>{{.Config.Endpoint}}</td></tr>
<tr><th>Cycles</th><td>{{.Cycles}}</td></tr>
<tr><th>Last cycle</th><td>{{ts .LastCycle}}</td></tr>
<tr><th>Last change</th><td>{{ts .LastChange}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
{{if .Network}}<tr><th>Network</th><td class="{{if .Network.Up}}connected{{else}}disconnected{{end}}">{{.Network.Interface}} {{if .Network.Up}}up{{else}}down{{end}}{{if .Network.SSID}} ({{.Network.SSID}}){{end}}</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

<h2>Render Counts</h2>
<table>
<tr><th>ON</th><td>{{.Counts.On}}</td></tr>
<tr><th>OFF</th><td>{{.Counts.Off}}</td></tr>
<tr><th>FETCH_ERROR</th><td>{{.Counts.FetchError}}</td></tr>
<tr><th>PARSE_ERROR</th><td>{{.Counts.ParseError}}</td></tr>
<tr><th>LINK_DOWN</th><td>{{.Counts.LinkDown}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{ts .StartTime}}</td></tr>
<tr><th>Instance</th><td>{{.InstanceID}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Timeout</th><td>{{.Config.TimeoutMs}}ms</td></tr>
<tr><th>Pin</th><td>{{if lt .Config.Pin 0}}disabled{{else}}{{.Config.Pin}}{{end}}</td></tr>
<tr><th>Display</th><td>{{if .Config.Display}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has methods, but the template needs plain fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Indicator string
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Indicator: snap.IndicatorOrUnknown(),
	}
	return indexTmpl.Execute(w, data)
}
