package vpn

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

// Config holds the vpn module configuration.
type Config struct {
	// DHParamTimeout is the soft deadline for one parameter-generation
	// run. Safe-prime search at 2048 bits needs a generous budget.
	DHParamTimeout time.Duration `mapstructure:"dhparam_timeout"`

	// Debug disables TLS verification on webhook calls.
	Debug bool `mapstructure:"debug"`
}

// Module wires VPN lifecycle events to parameter generation, webhook
// notification, and client cache invalidation jobs.
type Module struct {
	logger      *zap.Logger
	jobs        plugin.JobQueue
	cfg         Config
	store       *VpnStore
	generator   *Generator
	notifier    *Notifier
	invalidator *ClientInvalidator
}

// NewModule creates the vpn module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.ModuleInfo {
	return plugin.ModuleInfo{
		Name:        "vpn",
		Version:     "0.1.0",
		Description: "Generates VPN DH parameters and propagates server-side configuration changes",
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.jobs = deps.Jobs

	m.cfg = Config{DHParamTimeout: 20 * time.Minute}
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			m.logger.Warn("failed to unmarshal vpn config, using defaults", zap.Error(err))
		}
		if m.cfg.DHParamTimeout <= 0 {
			m.cfg.DHParamTimeout = 20 * time.Minute
		}
	}

	if err := deps.Store.Migrate(ctx, "vpn", migrations()); err != nil {
		return err
	}

	m.store = NewVpnStore(deps.Store.DB())
	m.generator = NewGenerator(m.store, SafePrimeSource{}, m.logger)
	m.notifier = NewNotifier(m.cfg.Debug, m.logger)
	m.invalidator = NewClientInvalidator(m.store, deps.Cache, m.logger)

	m.logger.Info("vpn module initialized",
		zap.Duration("dhparam_timeout", m.cfg.DHParamTimeout),
		zap.Bool("debug", m.cfg.Debug),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }

func (m *Module) Stop(_ context.Context) error { return nil }

// Store exposes the VPN store for other modules and seeds.
func (m *Module) Store() *VpnStore {
	return m.store
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicVpnCreated, Handler: m.handleCreated},
		{Topic: TopicVpnChanged, Handler: m.handleChanged},
		{Topic: TopicVpnPeersChanged, Handler: m.handlePeersChanged},
	}
}

func (m *Module) vpnID(event plugin.Event) (string, bool) {
	id, ok := event.Payload.(string)
	if !ok {
		m.logger.Error("unexpected payload on vpn topic",
			zap.String("topic", event.Topic),
			zap.String("source", event.Source),
		)
	}
	return id, ok
}

func (m *Module) handleCreated(ctx context.Context, event plugin.Event) {
	vpnID, ok := m.vpnID(event)
	if !ok {
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name:    "vpn.generate_dhparams",
		Timeout: m.cfg.DHParamTimeout,
		Run: func(ctx context.Context) error {
			return m.generator.Generate(ctx, vpnID)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit dhparam job", zap.Error(err))
	}
}

func (m *Module) handleChanged(ctx context.Context, event plugin.Event) {
	vpnID, ok := m.vpnID(event)
	if !ok {
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name: "vpn.notify_endpoint",
		Run: func(ctx context.Context) error {
			vpn, err := m.store.Get(ctx, vpnID)
			if err != nil {
				return err
			}
			m.notifier.Notify(ctx, vpn)
			return nil
		},
	})
	if err != nil {
		m.logger.Error("failed to submit webhook job", zap.Error(err))
	}
}

func (m *Module) handlePeersChanged(ctx context.Context, event plugin.Event) {
	vpnID, ok := m.vpnID(event)
	if !ok {
		return
	}
	err := m.jobs.Submit(ctx, plugin.Job{
		Name: "vpn.invalidate_clients",
		Run: func(ctx context.Context) error {
			return m.invalidator.InvalidateClients(ctx, vpnID)
		},
	})
	if err != nil {
		m.logger.Error("failed to submit client invalidation job", zap.Error(err))
	}
}
