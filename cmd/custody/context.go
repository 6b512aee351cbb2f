package main

import (
	"strings"
	"sync"

	"log/slog"

	"custody/internal/config"
	"custody/internal/evidence"
	"custody/internal/jobs"
	"custody/internal/ledger"
	"custody/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the shared services a command needs. Close releases the
// ledger lock and the queue database.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *evidence.Store
	ledger *ledger.Ledger
	queue  *jobs.Store
}

func (c *commandContext) openRuntime(withQueue bool) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	store, err := evidence.NewStore(cfg.Paths.StoreDir, cfg.MaxOriginalBytes(), logger)
	if err != nil {
		return nil, err
	}

	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, store: store, ledger: led}
	if withQueue {
		queue, err := jobs.Open(cfg.JobDatabasePath())
		if err != nil {
			_ = led.Close()
			return nil, err
		}
		rt.queue = queue
	}
	return rt, nil
}

func (r *runtime) Close() {
	if r.queue != nil {
		_ = r.queue.Close()
	}
	if r.ledger != nil {
		_ = r.ledger.Close()
	}
}
