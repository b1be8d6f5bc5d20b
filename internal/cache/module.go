package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Module          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module wires the invalidator to the event bus: every entity change or
// delete event becomes a fire-and-forget invalidation job.
type Module struct {
	logger      *zap.Logger
	jobs        plugin.JobQueue
	invalidator *Invalidator
}

// NewModule creates the cache module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.ModuleInfo {
	return plugin.ModuleInfo{
		Name:        "cache",
		Version:     "0.1.0",
		Description: "Invalidates derived common-name lookup caches on entity changes",
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.jobs = deps.Jobs
	m.invalidator = NewInvalidator(deps.Cache, deps.Logger)
	m.logger.Info("cache module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }

func (m *Module) Stop(_ context.Context) error { return nil }

// Invalidator exposes the routing core for direct use (tests, other
// composition roots).
func (m *Module) Invalidator() *Invalidator {
	return m.invalidator
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicEntityChanged, Handler: m.handleChanged},
		{Topic: TopicEntityDeleted, Handler: m.handleDeleted},
	}
}

func (m *Module) handleChanged(ctx context.Context, event plugin.Event) {
	change, ok := event.Payload.(EntityChange)
	if !ok {
		m.logger.Error("unexpected payload on entity-changed topic",
			zap.String("source", event.Source),
		)
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name: "cache.invalidate_change",
		Run: func(ctx context.Context) error {
			return m.invalidator.EntityChanged(ctx, change.Kind, change.ID)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit invalidation job", zap.Error(err))
	}
}

func (m *Module) handleDeleted(ctx context.Context, event plugin.Event) {
	change, ok := event.Payload.(EntityChange)
	if !ok {
		m.logger.Error("unexpected payload on entity-deleted topic",
			zap.String("source", event.Source),
		)
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name: "cache.invalidate_delete",
		Run: func(ctx context.Context) error {
			return m.invalidator.EntityDeleted(ctx, change.Kind, change.OrganizationID, change.CommonName)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit invalidation job", zap.Error(err))
	}
}
