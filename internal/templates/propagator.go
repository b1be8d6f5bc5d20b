package templates

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/models"
	"github.com/wisphive/fleetd/pkg/plugin"
)

// Propagator recomputes dependent config status when a template changes:
// every config bound to the template is flagged modified and a
// status-changed event is published per config.
//
// The job runs under a soft deadline. On expiry it logs and stops;
// configs already flagged stay flagged (partial completion is an
// accepted, logged outcome) and nothing is rolled back or retried.
type Propagator struct {
	store  *TemplateStore
	bus    plugin.EventBus
	logger *zap.Logger
}

// NewPropagator creates a propagator over the given store and bus.
func NewPropagator(store *TemplateStore, bus plugin.EventBus, logger *zap.Logger) *Propagator {
	return &Propagator{store: store, bus: bus, logger: logger}
}

// Propagate flags all configs bound to the template as modified. A
// missing template is a logged no-op, not an error.
func (p *Propagator) Propagate(ctx context.Context, templateID string) error {
	template, err := p.store.GetTemplate(ctx, templateID)
	if errors.Is(err, ErrNotFound) {
		p.logger.Warn("template status propagation skipped: template not found",
			zap.String("template_id", templateID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	configs, err := p.store.ConfigsForTemplate(ctx, templateID)
	if err != nil {
		return err
	}

	for i, cfg := range configs {
		// Deadline check between configs, never mid-write.
		if ctx.Err() != nil {
			p.logger.Error("soft time limit hit while propagating template status",
				zap.String("template_id", templateID),
				zap.String("template", template.Name),
				zap.Int("flagged", i),
				zap.Int("total", len(configs)),
			)
			return nil
		}

		if err := p.store.SetConfigStatus(ctx, cfg.ID, models.ConfigStatusModified); err != nil {
			return err
		}
		p.bus.PublishAsync(ctx, plugin.Event{
			Topic:     TopicConfigStatusChanged,
			Source:    "templates",
			Timestamp: time.Now().UTC(),
			Payload: ConfigStatusEvent{
				ConfigID:   cfg.ID,
				DeviceID:   cfg.DeviceID,
				TemplateID: templateID,
				Status:     models.ConfigStatusModified,
			},
		})
	}

	p.logger.Info("template status propagated",
		zap.String("template_id", templateID),
		zap.Int("configs", len(configs)),
	)
	return nil
}
