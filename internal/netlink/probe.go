package netlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// joinPollInterval is how often Join re-checks the link while waiting.
const joinPollInterval = 500 * time.Millisecond

// ErrNoInterface is returned by lookups for an interface that does not exist.
var ErrNoInterface = errors.New("interface not found")

// Config configures an InterfaceProbe.
type Config struct {
	Interface        string
	SSID             string
	PSK              string
	JoinCommand      string
	ReconnectCommand string
	CommandTimeout   time.Duration
}

// InterfaceProbe checks a named network interface and runs reconnect and
// join commands against it.
type InterfaceProbe struct {
	cfg Config

	lookup func(name string) (Link, error)
	run    func(ctx context.Context, argv []string) error

	mu           sync.Mutex
	reconnecting bool
	wg           sync.WaitGroup
}

// NewInterfaceProbe creates a probe for the configured interface.
func NewInterfaceProbe(cfg Config) *InterfaceProbe {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	return &InterfaceProbe{
		cfg:    cfg,
		lookup: lookupInterface,
		run:    runCommand,
	}
}

// IsLinkUp reports whether the interface is usable.
func (p *InterfaceProbe) IsLinkUp() bool {
	l, err := p.lookup(p.cfg.Interface)
	if err != nil {
		return false
	}
	return l.Usable()
}

// Info describes the interface for status reporting.
func (p *InterfaceProbe) Info() Info {
	info := Info{Interface: p.cfg.Interface, SSID: p.cfg.SSID}
	l, err := p.lookup(p.cfg.Interface)
	if err != nil {
		return info
	}
	info.Up = l.Usable()
	info.IP = l.IP()
	return info
}

// RequestReconnect starts the reconnect command and returns immediately.
// While a previous reconnect is still running, further requests are dropped.
func (p *InterfaceProbe) RequestReconnect() {
	log := zap.S().Named("netlink")
	if p.cfg.ReconnectCommand == "" {
		return
	}

	p.mu.Lock()
	if p.reconnecting {
		p.mu.Unlock()
		log.Debugw("reconnect already in progress", "interface", p.cfg.Interface)
		return
	}
	p.reconnecting = true
	p.mu.Unlock()

	argv := expandCommand(p.cfg.ReconnectCommand, p.vars())
	log.Infow("requesting reconnect", "interface", p.cfg.Interface, "command", argv[0])

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.CommandTimeout)
		defer cancel()

		if err := p.run(ctx, argv); err != nil {
			log.Warnw("reconnect command failed", "interface", p.cfg.Interface, "error", err)
		}

		p.mu.Lock()
		p.reconnecting = false
		p.mu.Unlock()
	}()
}

// Wait blocks until any running reconnect command has finished.
func (p *InterfaceProbe) Wait() {
	p.wg.Wait()
}

// Join associates with the configured network and waits until the link is
// usable or ctx expires. With no SSID configured it only waits.
func (p *InterfaceProbe) Join(ctx context.Context) error {
	log := zap.S().Named("netlink")

	if p.cfg.SSID != "" && p.cfg.JoinCommand != "" && !p.IsLinkUp() {
		argv := expandCommand(p.cfg.JoinCommand, p.vars())
		log.Infow("joining network", "interface", p.cfg.Interface, "ssid", p.cfg.SSID)

		runCtx, cancel := context.WithTimeout(ctx, p.cfg.CommandTimeout)
		err := p.run(runCtx, argv)
		cancel()
		if err != nil {
			log.Warnw("join command failed", "ssid", p.cfg.SSID, "error", err)
		}
	}

	ticker := time.NewTicker(joinPollInterval)
	defer ticker.Stop()

	for {
		if p.IsLinkUp() {
			log.Infow("link up", "interface", p.cfg.Interface, "ip", p.Info().IP)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", p.cfg.Interface, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (p *InterfaceProbe) vars() map[string]string {
	return map[string]string{
		PlaceholderInterface: p.cfg.Interface,
		PlaceholderSSID:      p.cfg.SSID,
		PlaceholderPSK:       p.cfg.PSK,
	}
}

func lookupInterface(name string) (Link, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %s: %v", ErrNoInterface, name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return Link{}, fmt.Errorf("addrs %s: %w", name, err)
	}
	return Link{
		Name:    iface.Name,
		Up:      iface.Flags&net.FlagUp != 0,
		Running: iface.Flags&net.FlagRunning != 0,
		Addrs:   addrs,
	}, nil
}

func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %q)", argv[0], err, truncate(out, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
