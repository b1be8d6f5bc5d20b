// Package vpn manages VPN server records: asynchronous Diffie-Hellman
// parameter generation, endpoint webhook notification, and client-list
// cache invalidation.
package vpn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wisphive/fleetd/pkg/models"
	"github.com/wisphive/fleetd/pkg/plugin"
)

// ErrNotFound is returned when a VPN lookup has no match.
var ErrNotFound = errors.New("vpn not found")

// VpnStore persists VPN server records.
type VpnStore struct {
	db *sql.DB
}

// NewVpnStore creates a store backed by the given database.
func NewVpnStore(db *sql.DB) *VpnStore {
	return &VpnStore{db: db}
}

// migrations returns the vpn module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create vpns table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE vpns (
					id               TEXT PRIMARY KEY,
					name             TEXT NOT NULL,
					organization_id  TEXT NOT NULL DEFAULT '',
					host             TEXT NOT NULL DEFAULT '',
					webhook_endpoint TEXT NOT NULL DEFAULT '',
					auth_token       TEXT NOT NULL DEFAULT '',
					dh               BLOB
				)`)
				return err
			},
		},
	}
}

// Get fetches a VPN by primary key. Callers treat an absent VPN as a
// fatal condition; the error carries ErrNotFound for them to match on.
func (s *VpnStore) Get(ctx context.Context, id string) (*models.Vpn, error) {
	var v models.Vpn
	var dh []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, organization_id, host, webhook_endpoint, auth_token, dh
		FROM vpns WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.OrganizationID, &v.Host, &v.WebhookEndpoint, &v.AuthToken, &dh)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vpn %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vpn %q: %w", id, err)
	}
	v.DH = dh
	return &v, nil
}

// Insert stores a new VPN record.
func (s *VpnStore) Insert(ctx context.Context, v *models.Vpn) error {
	if err := v.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vpns (id, name, organization_id, host, webhook_endpoint, auth_token, dh)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.OrganizationID, v.Host, v.WebhookEndpoint, v.AuthToken, v.DH)
	if err != nil {
		return fmt.Errorf("insert vpn %q: %w", v.ID, err)
	}
	return nil
}

// SetDH persists generated DH parameters for a VPN.
func (s *VpnStore) SetDH(ctx context.Context, id string, dh []byte) error {
	res, err := s.db.ExecContext(ctx, `UPDATE vpns SET dh = ? WHERE id = ?`, dh, id)
	if err != nil {
		return fmt.Errorf("set vpn %q dh: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vpn %q: %w", id, ErrNotFound)
	}
	return nil
}
