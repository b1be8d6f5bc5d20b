package adoption

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/internal/store"
)

func testRegistry(t *testing.T) *RegistryStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), "adoption", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRegistryStore(db.DB())
}

func testReconciler(t *testing.T) (*Reconciler, *RegistryStore) {
	t.Helper()
	s := testRegistry(t)
	r := NewReconciler(s, NewKeyDeriver("test-secret"), zap.NewNop())
	return r, s
}

const announceLine = "=;eth0;IPv4;ap-5;local;;ap-5.local;10.0.0.5;1234;mac=AA:BB:CC:DD:EE:FF;os_version=1.2;version=3.0"

func TestReconcile_CreatesUnknownDevice(t *testing.T) {
	r, s := testReconciler(t)
	ctx := context.Background()

	if err := r.Reconcile(ctx, announceLine); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	d, err := s.FindByAddress(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("FindByAddress: %v", err)
	}
	if d.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("mac = %q", d.MACAddress)
	}
	if d.OSVersion != "1.2" {
		t.Errorf("os_version = %q", d.OSVersion)
	}
	if d.FirmwareVersion != "3.0" {
		t.Errorf("firmware_version = %q", d.FirmwareVersion)
	}
	if d.AdoptionKey == "" {
		t.Error("adoption key must not be empty")
	}
	if d.FirstSeen.IsZero() || d.LastSeen.IsZero() {
		t.Error("first_seen/last_seen must be set")
	}
}

func TestReconcile_KnownDeviceBumpsLastSeen(t *testing.T) {
	r, s := testReconciler(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	r.nowFunc = func() time.Time { return t0 }
	if err := r.Reconcile(ctx, announceLine); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	first, err := s.FindByAddress(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("FindByAddress: %v", err)
	}

	r.nowFunc = func() time.Time { return t0.Add(time.Hour) }
	if err := r.Reconcile(ctx, announceLine); err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}

	second, err := s.FindByAddress(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("FindByAddress: %v", err)
	}
	if !second.LastSeen.After(first.LastSeen) {
		t.Errorf("last_seen did not increase: %v -> %v", first.LastSeen, second.LastSeen)
	}
	if second.ID != first.ID {
		t.Error("second sighting must not create a new record")
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestReconcile_IncompleteRecordsSkipped(t *testing.T) {
	r, s := testReconciler(t)
	ctx := context.Background()

	// os_version missing: no registry write, no error.
	raw := "=;eth0;IPv4;ap-6;local;;ap-6.local;10.0.0.6;1234;mac=AA:BB:CC:00:00:06;version=3.0"
	if err := r.Reconcile(ctx, raw); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("expected no registry writes, got %d records", n)
	}
}

func TestReconcile_MalformedLineDoesNotAbortSweep(t *testing.T) {
	r, s := testReconciler(t)
	ctx := context.Background()

	raw := "garbage line\n" +
		"=;bad\n" +
		announceLine
	if err := r.Reconcile(ctx, raw); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if _, err := s.FindByAddress(ctx, "10.0.0.5"); err != nil {
		t.Errorf("valid entry after malformed lines should be registered: %v", err)
	}
}

func TestReconcile_ContextCancelled(t *testing.T) {
	r, _ := testReconciler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Reconcile(ctx, announceLine)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRegistry_DuplicateAddressRejected(t *testing.T) {
	s := testRegistry(t)
	ctx := context.Background()

	r := NewReconciler(s, NewKeyDeriver(""), zap.NewNop())
	if err := r.Reconcile(ctx, announceLine); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	d, err := s.FindByAddress(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("FindByAddress: %v", err)
	}
	d.ID = ""
	if err := s.Insert(ctx, d); err == nil {
		t.Fatal("expected unique-index violation for duplicate network address")
	}
}

func TestKeyDeriver_Deterministic(t *testing.T) {
	k := NewKeyDeriver("cluster-secret")
	a, err := k.Derive("AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	b, err := k.Derive("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a != b {
		t.Error("derivation must be case-insensitive on the MAC")
	}

	other, err := NewKeyDeriver("other-secret").Derive("AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a == other {
		t.Error("different secrets must produce different keys")
	}
}

func TestKeyDeriver_RandomWithoutSecret(t *testing.T) {
	k := NewKeyDeriver("")
	a, _ := k.Derive("AA:BB:CC:DD:EE:FF")
	b, _ := k.Derive("AA:BB:CC:DD:EE:FF")
	if a == "" || a == b {
		t.Error("secretless derivation must produce fresh random keys")
	}
}
