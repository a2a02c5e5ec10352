package testsupport

import (
	"testing"

	"osmworld/internal/config"
	"osmworld/internal/ledger"
)

// MustOpenLedger opens the run history for cfg and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(ledger.PathFor(cfg.Paths.LogDir))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
