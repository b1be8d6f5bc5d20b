package templates

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/models"
)

// Cascader re-derives template assignments when a device changes group, a
// group changes its template set, or a config changes backend. Every
// operation is idempotent: bindings are set-valued, so replaying a
// cascade converges on the same state.
type Cascader struct {
	store  *TemplateStore
	logger *zap.Logger
}

// NewCascader creates a cascader over the given store.
func NewCascader(store *TemplateStore, logger *zap.Logger) *Cascader {
	return &Cascader{store: store, logger: logger}
}

// Cascade routes a cascade event to exactly one kind-specific operation.
// A kind outside the closed set is an error, not a silent no-op.
func (c *Cascader) Cascade(ctx context.Context, ev CascadeEvent) error {
	switch ev.Kind {
	case models.KindDevice:
		return c.ManageDevicesGroupTemplates(ctx, ev.DeviceIDs, ev.OldGroupIDs, ev.GroupID)
	case models.KindDeviceGroup:
		return c.ManageGroupTemplates(ctx, ev.GroupID, ev.OldTemplateIDs, ev.TemplateIDs)
	case models.KindConfig:
		return c.ManageBackendChanged(ctx, ev.ConfigID, ev.OldBackend, ev.Backend)
	default:
		return fmt.Errorf("cascade: unroutable entity kind %q", ev.Kind)
	}
}

// ManageDevicesGroupTemplates moves devices to a new group: their configs
// lose the old groups' template bindings, gain the new group's, and are
// flagged modified.
func (c *Cascader) ManageDevicesGroupTemplates(ctx context.Context, deviceIDs, oldGroupIDs []string, groupID string) error {
	oldTemplates := make(map[string]bool)
	for _, g := range oldGroupIDs {
		ids, err := c.store.GroupTemplates(ctx, g)
		if err != nil {
			return err
		}
		for _, id := range ids {
			oldTemplates[id] = true
		}
	}

	var newTemplates []string
	if groupID != "" {
		ids, err := c.store.GroupTemplates(ctx, groupID)
		if err != nil {
			return err
		}
		newTemplates = ids
	}
	keep := make(map[string]bool, len(newTemplates))
	for _, id := range newTemplates {
		keep[id] = true
	}

	configs, err := c.store.ConfigsForDevices(ctx, deviceIDs)
	if err != nil {
		return err
	}

	for _, cfg := range configs {
		for id := range oldTemplates {
			if keep[id] {
				continue
			}
			if err := c.store.UnbindTemplate(ctx, cfg.ID, id); err != nil {
				return err
			}
		}
		for _, id := range newTemplates {
			if err := c.store.BindTemplate(ctx, cfg.ID, id); err != nil {
				return err
			}
		}
		if err := c.store.SetConfigGroup(ctx, cfg.ID, groupID); err != nil {
			return err
		}
		if err := c.store.SetConfigStatus(ctx, cfg.ID, models.ConfigStatusModified); err != nil {
			return err
		}
	}

	c.logger.Info("device group templates cascaded",
		zap.Strings("device_ids", deviceIDs),
		zap.String("group_id", groupID),
		zap.Int("configs", len(configs)),
	)
	return nil
}

// ManageGroupTemplates applies a group's template-set change to every
// config in the group: removed templates are unbound, added ones bound.
func (c *Cascader) ManageGroupTemplates(ctx context.Context, groupID string, oldTemplateIDs, templateIDs []string) error {
	current := make(map[string]bool, len(templateIDs))
	for _, id := range templateIDs {
		current[id] = true
	}
	previous := make(map[string]bool, len(oldTemplateIDs))
	for _, id := range oldTemplateIDs {
		previous[id] = true
	}

	var removed, added []string
	for _, id := range oldTemplateIDs {
		if !current[id] {
			removed = append(removed, id)
		}
	}
	for _, id := range templateIDs {
		if !previous[id] {
			added = append(added, id)
		}
	}
	if len(removed) == 0 && len(added) == 0 {
		return nil
	}

	configs, err := c.store.ConfigsForGroup(ctx, groupID)
	if err != nil {
		return err
	}

	for _, cfg := range configs {
		for _, id := range removed {
			if err := c.store.UnbindTemplate(ctx, cfg.ID, id); err != nil {
				return err
			}
		}
		for _, id := range added {
			if err := c.store.BindTemplate(ctx, cfg.ID, id); err != nil {
				return err
			}
		}
		if err := c.store.SetConfigStatus(ctx, cfg.ID, models.ConfigStatusModified); err != nil {
			return err
		}
	}

	c.logger.Info("group templates cascaded",
		zap.String("group_id", groupID),
		zap.Strings("removed", removed),
		zap.Strings("added", added),
		zap.Int("configs", len(configs)),
	)
	return nil
}

// ManageBackendChanged handles a config switching backend: bindings to
// templates rendering for other backends are dropped, the owning group's
// matching templates are re-applied, and the config is flagged modified.
// A missing config is an error; the caller named a config that must exist.
func (c *Cascader) ManageBackendChanged(ctx context.Context, configID, oldBackend, backend string) error {
	cfg, err := c.store.GetConfig(ctx, configID)
	if err != nil {
		return err
	}

	if err := c.store.SetConfigBackend(ctx, configID, backend); err != nil {
		return err
	}

	bound, err := c.store.TemplatesForConfig(ctx, configID)
	if err != nil {
		return err
	}
	for _, id := range bound {
		t, err := c.store.GetTemplate(ctx, id)
		if err != nil {
			return err
		}
		if t.Backend != "" && t.Backend != backend {
			if err := c.store.UnbindTemplate(ctx, configID, id); err != nil {
				return err
			}
		}
	}

	if cfg.GroupID != "" {
		groupTemplates, err := c.store.GroupTemplates(ctx, cfg.GroupID)
		if err != nil {
			return err
		}
		for _, id := range groupTemplates {
			t, err := c.store.GetTemplate(ctx, id)
			if err != nil {
				return err
			}
			if t.Backend == "" || t.Backend == backend {
				if err := c.store.BindTemplate(ctx, configID, id); err != nil {
					return err
				}
			}
		}
	}

	if err := c.store.SetConfigStatus(ctx, configID, models.ConfigStatusModified); err != nil {
		return err
	}

	c.logger.Info("config backend cascaded",
		zap.String("config_id", configID),
		zap.String("old_backend", oldBackend),
		zap.String("backend", backend),
	)
	return nil
}
