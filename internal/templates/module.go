package templates

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Module          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Config holds the templates module configuration.
type Config struct {
	// StatusTimeout is the soft deadline for one status-propagation run.
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
}

// Module wires template change events to propagation and cascade jobs.
type Module struct {
	logger     *zap.Logger
	jobs       plugin.JobQueue
	cfg        Config
	store      *TemplateStore
	propagator *Propagator
	cascader   *Cascader
}

// NewModule creates the templates module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.ModuleInfo {
	return plugin.ModuleInfo{
		Name:        "templates",
		Version:     "0.1.0",
		Description: "Propagates template changes to dependent config status and template assignments",
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.jobs = deps.Jobs

	m.cfg = Config{StatusTimeout: time.Minute}
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			m.logger.Warn("failed to unmarshal templates config, using defaults", zap.Error(err))
		}
		if m.cfg.StatusTimeout <= 0 {
			m.cfg.StatusTimeout = time.Minute
		}
	}

	if err := deps.Store.Migrate(ctx, "templates", migrations()); err != nil {
		return err
	}

	m.store = NewTemplateStore(deps.Store.DB())
	m.propagator = NewPropagator(m.store, deps.Bus, m.logger)
	m.cascader = NewCascader(m.store, m.logger)

	m.logger.Info("templates module initialized",
		zap.Duration("status_timeout", m.cfg.StatusTimeout),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }

func (m *Module) Stop(_ context.Context) error { return nil }

// Store exposes the template store for other modules and seeds.
func (m *Module) Store() *TemplateStore {
	return m.store
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicTemplateChanged, Handler: m.handleTemplateChanged},
		{Topic: TopicCascade, Handler: m.handleCascade},
	}
}

func (m *Module) handleTemplateChanged(ctx context.Context, event plugin.Event) {
	templateID, ok := event.Payload.(string)
	if !ok {
		m.logger.Error("unexpected payload on template-changed topic",
			zap.String("source", event.Source),
		)
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name:    "templates.propagate_status",
		Timeout: m.cfg.StatusTimeout,
		Run: func(ctx context.Context) error {
			return m.propagator.Propagate(ctx, templateID)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit propagation job", zap.Error(err))
	}
}

func (m *Module) handleCascade(ctx context.Context, event plugin.Event) {
	ev, ok := event.Payload.(CascadeEvent)
	if !ok {
		m.logger.Error("unexpected payload on cascade topic",
			zap.String("source", event.Source),
		)
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name: "templates.cascade",
		Run: func(ctx context.Context) error {
			return m.cascader.Cascade(ctx, ev)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit cascade job", zap.Error(err))
	}
}
