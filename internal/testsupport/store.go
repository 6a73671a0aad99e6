package testsupport

import (
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/config"
	"github.com/kenafu/voice-dataset-organizer/internal/store"
)

// MustOpenStore opens the dataset store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
