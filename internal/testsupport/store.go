package testsupport

import (
	"testing"

	"custody/internal/config"
	"custody/internal/evidence"
	"custody/internal/jobs"
	"custody/internal/ledger"
	"custody/internal/logging"
)

// MustOpenStore opens an evidence store rooted at the test config's store
// directory.
func MustOpenStore(t testing.TB, cfg *config.Config) *evidence.Store {
	t.Helper()

	store, err := evidence.NewStore(cfg.Paths.StoreDir, cfg.MaxOriginalBytes(), logging.NewNop())
	if err != nil {
		t.Fatalf("evidence.NewStore: %v", err)
	}
	return store
}

// MustOpenLedger opens the test config's ledger and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Ledger {
	t.Helper()

	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = led.Close()
	})
	return led
}

// MustOpenQueue opens the test config's job database and registers cleanup.
func MustOpenQueue(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	queue, err := jobs.Open(cfg.JobDatabasePath())
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = queue.Close()
	})
	return queue
}
