package vpn

import (
	"context"
	"errors"
	"testing"

	"github.com/wisphive/fleetd/internal/store"
	"github.com/wisphive/fleetd/internal/testutil"
	"github.com/wisphive/fleetd/pkg/models"
)

func testVpnStore(t *testing.T) *VpnStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), "vpn", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewVpnStore(db.DB())
}

func seedVpn(t *testing.T, s *VpnStore, v *models.Vpn) {
	t.Helper()
	if err := s.Insert(context.Background(), v); err != nil {
		t.Fatalf("seed vpn %s: %v", v.ID, err)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	s := testVpnStore(t)
	v := testutil.NewVpn(testutil.WithWebhook("https://vpn.example.org/update", "tok"))
	seedVpn(t, s, &v)

	got, err := s.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != v.Name || got.Host != v.Host || got.AuthToken != "tok" {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.DH) != 0 {
		t.Error("fresh vpn must not carry dh parameters")
	}
}

func TestGet_Missing(t *testing.T) {
	s := testVpnStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetDH(t *testing.T) {
	s := testVpnStore(t)
	ctx := context.Background()
	seedVpn(t, s, &models.Vpn{ID: "v1", Name: "edge"})

	blob := []byte("-----BEGIN DH PARAMETERS-----\nZm9v\n-----END DH PARAMETERS-----\n")
	if err := s.SetDH(ctx, "v1", blob); err != nil {
		t.Fatalf("SetDH: %v", err)
	}
	got, _ := s.Get(ctx, "v1")
	if string(got.DH) != string(blob) {
		t.Errorf("dh = %q, want stored blob", got.DH)
	}
}

func TestSetDH_MissingVpn(t *testing.T) {
	s := testVpnStore(t)
	err := s.SetDH(context.Background(), "nope", []byte("x"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
