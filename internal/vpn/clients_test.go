package vpn

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/internal/cache"
	"github.com/wisphive/fleetd/pkg/models"
)

func TestInvalidateClients(t *testing.T) {
	s := testVpnStore(t)
	ctx := context.Background()
	seedVpn(t, s, &models.Vpn{ID: "v1", Name: "edge"})

	mem := cache.NewMemory()
	if err := mem.Set(ctx, cache.VpnClientsKey("v1"), "clients"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	if err := mem.Set(ctx, cache.VpnClientsKey("v2"), "others"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	inv := NewClientInvalidator(s, mem, zap.NewNop())
	if err := inv.InvalidateClients(ctx, "v1"); err != nil {
		t.Fatalf("InvalidateClients: %v", err)
	}

	if _, ok, _ := mem.Get(ctx, cache.VpnClientsKey("v1")); ok {
		t.Error("client list for v1 must be gone")
	}
	if _, ok, _ := mem.Get(ctx, cache.VpnClientsKey("v2")); !ok {
		t.Error("other vpns' client lists must survive")
	}

	// Replay converges: invalidating an absent key is a no-op.
	if err := inv.InvalidateClients(ctx, "v1"); err != nil {
		t.Fatalf("second InvalidateClients: %v", err)
	}
}

func TestInvalidateClients_MissingVpn(t *testing.T) {
	s := testVpnStore(t)
	inv := NewClientInvalidator(s, cache.NewMemory(), zap.NewNop())

	err := inv.InvalidateClients(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
