package testsupport

import (
	"testing"

	"prodledger/internal/api"
	"prodledger/internal/config"
	"prodledger/internal/logging"
)

// MustOpenService opens an api.Service for tests and registers cleanup.
func MustOpenService(t testing.TB, cfg *config.Config, opts ...api.Option) *api.Service {
	t.Helper()

	svc, err := api.NewService(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("api.NewService: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Close()
	})
	return svc
}
