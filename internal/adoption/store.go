package adoption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wisphive/fleetd/pkg/models"
	"github.com/wisphive/fleetd/pkg/plugin"
)

// ErrNotFound is returned when no adoptable device matches a lookup.
var ErrNotFound = errors.New("adoptable device not found")

// RegistryStore is the adoptable-device registry. The network address is
// the stable lookup key and carries a UNIQUE constraint, so concurrent
// reconcile sweeps cannot create duplicate records for one device.
type RegistryStore struct {
	db *sql.DB
}

// NewRegistryStore creates a store backed by the given database.
func NewRegistryStore(db *sql.DB) *RegistryStore {
	return &RegistryStore{db: db}
}

// migrations returns the adoption module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create adoptable_devices table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE adoptable_devices (
						id               TEXT PRIMARY KEY,
						network_address  TEXT NOT NULL,
						mac_address      TEXT NOT NULL DEFAULT '',
						adoption_key     TEXT NOT NULL DEFAULT '',
						os_version       TEXT NOT NULL DEFAULT '',
						firmware_version TEXT NOT NULL DEFAULT '',
						first_seen       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						last_seen        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE UNIQUE INDEX idx_adoptable_devices_address ON adoptable_devices(network_address)`,
					`CREATE INDEX idx_adoptable_devices_last_seen ON adoptable_devices(last_seen)`,
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// FindByAddress looks up a device by its network address.
func (s *RegistryStore) FindByAddress(ctx context.Context, addr string) (*models.AdoptableDevice, error) {
	var d models.AdoptableDevice
	err := s.db.QueryRowContext(ctx, `
		SELECT id, network_address, mac_address, adoption_key,
		       os_version, firmware_version, first_seen, last_seen
		FROM adoptable_devices WHERE network_address = ?`, addr,
	).Scan(&d.ID, &d.NetworkAddress, &d.MACAddress, &d.AdoptionKey,
		&d.OSVersion, &d.FirmwareVersion, &d.FirstSeen, &d.LastSeen)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find device by address %q: %w", addr, err)
	}
	return &d, nil
}

// Insert creates a new adoptable-device record. A duplicate network
// address violates the unique index and surfaces as an error.
func (s *RegistryStore) Insert(ctx context.Context, d *models.AdoptableDevice) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adoptable_devices (
			id, network_address, mac_address, adoption_key,
			os_version, firmware_version, first_seen, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.NetworkAddress, d.MACAddress, d.AdoptionKey,
		d.OSVersion, d.FirmwareVersion, d.FirstSeen.UTC(), d.LastSeen.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert adoptable device %q: %w", d.NetworkAddress, err)
	}
	return nil
}

// TouchLastSeen bumps last_seen for a known address. Last write wins;
// interleaved sweeps converge on the most recent sighting.
func (s *RegistryStore) TouchLastSeen(ctx context.Context, addr string, seen time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE adoptable_devices SET last_seen = ? WHERE network_address = ?`,
		seen.UTC(), addr,
	)
	if err != nil {
		return fmt.Errorf("touch last_seen for %q: %w", addr, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch last_seen for %q: %w", addr, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count reports the number of registered adoptable devices. Test helper.
func (s *RegistryStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM adoptable_devices`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count adoptable devices: %w", err)
	}
	return n, nil
}
