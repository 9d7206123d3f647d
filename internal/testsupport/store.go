package testsupport

import (
	"testing"

	"marquee/internal/config"
	"marquee/internal/state"
)

// MustOpenStore opens the configured persistence backend and registers
// cleanup to close it.
func MustOpenStore(t testing.TB, cfg *config.Config) state.Store {
	t.Helper()

	store, err := state.Open(cfg, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}
