package devicewatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"custody/internal/config"
	"custody/internal/logging"
)

// Monitor listens for USB mass-storage partition events and invokes the
// handler with the configured mount root when an evidence drive docks.
type Monitor struct {
	logger    *slog.Logger
	mountRoot string
	handler   func(ctx context.Context, mountRoot string) error

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a dock monitor. Returns nil when device monitoring is
// disabled in the configuration.
func NewMonitor(cfg *config.Config, logger *slog.Logger, handler func(ctx context.Context, mountRoot string) error) *Monitor {
	if cfg == nil || !cfg.DeviceMonitor.Enabled {
		return nil
	}
	mountRoot := strings.TrimSpace(cfg.DeviceMonitor.MountRoot)
	if mountRoot == "" {
		return nil
	}
	return &Monitor{
		logger:    logging.NewComponentLogger(logger, "devicewatch"),
		mountRoot: mountRoot,
		handler:   handler,
	}
}

// Start begins listening for udev netlink events. A failed netlink connect
// is non-fatal; ingest still works through the CLI.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink socket unavailable; dock detection disabled",
			logging.Error(err),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("dock monitor started", logging.String("mount_root", m.mountRoot))
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Info("dock monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, dockMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// dockMatcher matches USB mass-storage partitions being added.
func dockMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "partition",
			"ID_BUS":    "usb",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := uevent.Env["DEVNAME"]
	m.logger.Info("evidence drive detected",
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)

	if m.handler == nil {
		return
	}
	if err := m.handler(ctx, m.mountRoot); err != nil {
		m.logger.Warn("dock ingest failed",
			logging.String("device", devname),
			logging.Error(err),
		)
	}
}
