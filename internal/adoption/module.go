package adoption

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

// Config holds the adoption module configuration.
type Config struct {
	Secret string `mapstructure:"secret"` // Cluster secret for adoption-key derivation
}

// Module implements device adoption: it turns announcement events into
// registry reconcile jobs.
type Module struct {
	logger     *zap.Logger
	jobs       plugin.JobQueue
	store      *RegistryStore
	reconciler *Reconciler
}

// NewModule creates the adoption module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.ModuleInfo {
	return plugin.ModuleInfo{
		Name:        "adoption",
		Version:     "0.1.0",
		Description: "Registers unmanaged devices announced over local-network service discovery",
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.jobs = deps.Jobs

	var cfg Config
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&cfg); err != nil {
			m.logger.Warn("failed to unmarshal adoption config, using defaults", zap.Error(err))
		}
	}
	if cfg.Secret == "" {
		m.logger.Warn("no adoption secret configured; adoption keys will be random per registration")
	}

	if err := deps.Store.Migrate(ctx, "adoption", migrations()); err != nil {
		return err
	}

	m.store = NewRegistryStore(deps.Store.DB())
	m.reconciler = NewReconciler(m.store, NewKeyDeriver(cfg.Secret), m.logger)

	m.logger.Info("adoption module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }

func (m *Module) Stop(_ context.Context) error { return nil }

// Store exposes the adoptable-device registry for other modules.
func (m *Module) Store() *RegistryStore {
	return m.store
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicAnnouncements, Handler: m.handleAnnouncements},
	}
}

func (m *Module) handleAnnouncements(ctx context.Context, event plugin.Event) {
	raw, ok := event.Payload.(string)
	if !ok {
		m.logger.Error("unexpected payload on announcements topic",
			zap.String("source", event.Source),
		)
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name: "adoption.reconcile",
		Run: func(ctx context.Context) error {
			return m.reconciler.Reconcile(ctx, raw)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit reconcile job", zap.Error(err))
	}
}
