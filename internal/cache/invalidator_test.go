package cache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/models"
)

func seededCache(t *testing.T, keys ...string) *Memory {
	t.Helper()
	c := NewMemory()
	ctx := context.Background()
	for _, k := range keys {
		if err := c.Set(ctx, k, "cached"); err != nil {
			t.Fatalf("seed %q: %v", k, err)
		}
	}
	return c
}

func TestEntityChanged_InvalidatesDeviceKey(t *testing.T) {
	c := seededCache(t, DeviceKey("d1"), DeviceKey("d2"))
	inv := NewInvalidator(c, zap.NewNop())

	if err := inv.EntityChanged(context.Background(), models.KindDevice, "d1"); err != nil {
		t.Fatalf("EntityChanged: %v", err)
	}

	if _, ok, _ := c.Get(context.Background(), DeviceKey("d1")); ok {
		t.Error("d1 entry should be invalidated")
	}
	if _, ok, _ := c.Get(context.Background(), DeviceKey("d2")); !ok {
		t.Error("d2 entry should survive")
	}
}

func TestEntityChanged_UnknownKind(t *testing.T) {
	inv := NewInvalidator(NewMemory(), zap.NewNop())
	if err := inv.EntityChanged(context.Background(), models.KindConfig, "x"); err == nil {
		t.Fatal("expected error for kind outside the invalidation set")
	}
}

func TestEntityChanged_Idempotent(t *testing.T) {
	c := seededCache(t, GroupKey("g1"))
	inv := NewInvalidator(c, zap.NewNop())
	ctx := context.Background()

	if err := inv.EntityChanged(ctx, models.KindDeviceGroup, "g1"); err != nil {
		t.Fatalf("first invalidation: %v", err)
	}
	after := c.Len()
	if err := inv.EntityChanged(ctx, models.KindDeviceGroup, "g1"); err != nil {
		t.Fatalf("second invalidation: %v", err)
	}
	if got := c.Len(); got != after {
		t.Fatalf("second invalidation changed store state: %d != %d", got, after)
	}
}

func TestEntityDeleted_GroupWipesOnlyOwningOrg(t *testing.T) {
	c := seededCache(t,
		CertKey("org-x", "alpha"),
		CertKey("org-x", "beta"),
		CertKey("org-y", "gamma"),
	)
	inv := NewInvalidator(c, zap.NewNop())

	if err := inv.EntityDeleted(context.Background(), models.KindDeviceGroup, "org-x", ""); err != nil {
		t.Fatalf("EntityDeleted: %v", err)
	}

	ctx := context.Background()
	if _, ok, _ := c.Get(ctx, CertKey("org-x", "alpha")); ok {
		t.Error("org-x alpha should be invalidated")
	}
	if _, ok, _ := c.Get(ctx, CertKey("org-x", "beta")); ok {
		t.Error("org-x beta should be invalidated")
	}
	if _, ok, _ := c.Get(ctx, CertKey("org-y", "gamma")); !ok {
		t.Error("org-y entry must never be touched by org-x wipe")
	}
}

func TestEntityDeleted_CertRemovesSingleEntry(t *testing.T) {
	c := seededCache(t,
		CertKey("org-x", "alpha"),
		CertKey("org-x", "beta"),
	)
	inv := NewInvalidator(c, zap.NewNop())

	if err := inv.EntityDeleted(context.Background(), models.KindCert, "org-x", "alpha"); err != nil {
		t.Fatalf("EntityDeleted: %v", err)
	}

	ctx := context.Background()
	if _, ok, _ := c.Get(ctx, CertKey("org-x", "alpha")); ok {
		t.Error("alpha entry should be invalidated")
	}
	if _, ok, _ := c.Get(ctx, CertKey("org-x", "beta")); !ok {
		t.Error("beta entry should survive")
	}
}

func TestEntityDeleted_UnknownKind(t *testing.T) {
	inv := NewInvalidator(NewMemory(), zap.NewNop())
	if err := inv.EntityDeleted(context.Background(), models.KindDevice, "org-x", ""); err == nil {
		t.Fatal("expected error: device deletions do not route here")
	}
}
