// Package templates propagates configuration-template changes: flagging
// dependent configs as modified and re-deriving template assignments when
// devices move between groups or configs change backend.
package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wisphive/fleetd/pkg/models"
	"github.com/wisphive/fleetd/pkg/plugin"
)

// ErrNotFound is returned when a template or config lookup has no match.
var ErrNotFound = errors.New("record not found")

// TemplateStore persists templates, configs, and the bindings between
// them, including the per-group template sets that drive cascades.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a store backed by the given database.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// migrations returns the templates module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create templates, configs, and binding tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE templates (
						id              TEXT PRIMARY KEY,
						name            TEXT NOT NULL,
						organization_id TEXT NOT NULL DEFAULT '',
						backend         TEXT NOT NULL DEFAULT ''
					)`,
					`CREATE TABLE configs (
						id        TEXT PRIMARY KEY,
						device_id TEXT NOT NULL,
						group_id  TEXT NOT NULL DEFAULT '',
						backend   TEXT NOT NULL DEFAULT '',
						status    TEXT NOT NULL DEFAULT 'modified'
					)`,
					`CREATE INDEX idx_configs_device ON configs(device_id)`,
					`CREATE INDEX idx_configs_group ON configs(group_id)`,
					`CREATE TABLE config_templates (
						config_id   TEXT NOT NULL,
						template_id TEXT NOT NULL,
						PRIMARY KEY (config_id, template_id)
					)`,
					`CREATE TABLE group_templates (
						group_id    TEXT NOT NULL,
						template_id TEXT NOT NULL,
						PRIMARY KEY (group_id, template_id)
					)`,
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

// GetTemplate fetches a template by primary key.
func (s *TemplateStore) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, organization_id, backend FROM templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.OrganizationID, &t.Backend)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", id, err)
	}
	return &t, nil
}

// GetConfig fetches a config by primary key.
func (s *TemplateStore) GetConfig(ctx context.Context, id string) (*models.Config, error) {
	var c models.Config
	err := s.db.QueryRowContext(ctx,
		`SELECT id, device_id, group_id, backend, status FROM configs WHERE id = ?`, id,
	).Scan(&c.ID, &c.DeviceID, &c.GroupID, &c.Backend, &c.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get config %q: %w", id, err)
	}
	return &c, nil
}

// ConfigsForTemplate lists all configs bound to a template.
func (s *TemplateStore) ConfigsForTemplate(ctx context.Context, templateID string) ([]models.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.device_id, c.group_id, c.backend, c.status
		FROM configs c
		JOIN config_templates ct ON ct.config_id = c.id
		WHERE ct.template_id = ?
		ORDER BY c.id`, templateID)
	if err != nil {
		return nil, fmt.Errorf("configs for template %q: %w", templateID, err)
	}
	defer rows.Close()
	return scanConfigs(rows)
}

// ConfigsForDevices lists the configs of the given devices.
func (s *TemplateStore) ConfigsForDevices(ctx context.Context, deviceIDs []string) ([]models.Config, error) {
	var out []models.Config
	for _, deviceID := range deviceIDs {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, device_id, group_id, backend, status
			FROM configs WHERE device_id = ? ORDER BY id`, deviceID)
		if err != nil {
			return nil, fmt.Errorf("configs for device %q: %w", deviceID, err)
		}
		configs, err := scanConfigs(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, configs...)
	}
	return out, nil
}

// ConfigsForGroup lists the configs of all devices in a group.
func (s *TemplateStore) ConfigsForGroup(ctx context.Context, groupID string) ([]models.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, group_id, backend, status
		FROM configs WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("configs for group %q: %w", groupID, err)
	}
	defer rows.Close()
	return scanConfigs(rows)
}

// SetConfigStatus updates a config's status.
func (s *TemplateStore) SetConfigStatus(ctx context.Context, configID string, status models.ConfigStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE configs SET status = ? WHERE id = ?`, string(status), configID)
	if err != nil {
		return fmt.Errorf("set config %q status: %w", configID, err)
	}
	return nil
}

// SetConfigGroup moves a config under a new device group.
func (s *TemplateStore) SetConfigGroup(ctx context.Context, configID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE configs SET group_id = ? WHERE id = ?`, groupID, configID)
	if err != nil {
		return fmt.Errorf("set config %q group: %w", configID, err)
	}
	return nil
}

// SetConfigBackend updates a config's backend.
func (s *TemplateStore) SetConfigBackend(ctx context.Context, configID, backend string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE configs SET backend = ? WHERE id = ?`, backend, configID)
	if err != nil {
		return fmt.Errorf("set config %q backend: %w", configID, err)
	}
	return nil
}

// TemplatesForConfig lists template IDs bound to a config.
func (s *TemplateStore) TemplatesForConfig(ctx context.Context, configID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT template_id FROM config_templates WHERE config_id = ? ORDER BY template_id`, configID)
	if err != nil {
		return nil, fmt.Errorf("templates for config %q: %w", configID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// BindTemplate attaches a template to a config. Re-binding an existing
// pair is a no-op, keeping cascades idempotent.
func (s *TemplateStore) BindTemplate(ctx context.Context, configID, templateID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO config_templates (config_id, template_id) VALUES (?, ?)`,
		configID, templateID)
	if err != nil {
		return fmt.Errorf("bind template %q to config %q: %w", templateID, configID, err)
	}
	return nil
}

// UnbindTemplate detaches a template from a config. Unbinding an absent
// pair is a no-op.
func (s *TemplateStore) UnbindTemplate(ctx context.Context, configID, templateID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM config_templates WHERE config_id = ? AND template_id = ?`,
		configID, templateID)
	if err != nil {
		return fmt.Errorf("unbind template %q from config %q: %w", templateID, configID, err)
	}
	return nil
}

// GroupTemplates lists the template IDs assigned to a device group.
func (s *TemplateStore) GroupTemplates(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT template_id FROM group_templates WHERE group_id = ? ORDER BY template_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("templates for group %q: %w", groupID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanConfigs(rows *sql.Rows) ([]models.Config, error) {
	var out []models.Config
	for rows.Next() {
		var c models.Config
		if err := rows.Scan(&c.ID, &c.DeviceID, &c.GroupID, &c.Backend, &c.Status); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
