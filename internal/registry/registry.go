// Package registry manages module lifecycle: registration, dependency
// ordering, initialization, event wiring, and shutdown.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Registry owns the lifecycle of all registered modules.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]plugin.Module
	infos   map[string]plugin.ModuleInfo
	order   []string // topological order after Validate
	logger  *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		modules: make(map[string]plugin.Module),
		infos:   make(map[string]plugin.ModuleInfo),
		logger:  logger,
	}
}

// Register adds a module. Must be called before Validate.
func (r *Registry) Register(m plugin.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := m.Info()
	if info.Name == "" {
		return fmt.Errorf("module has empty name")
	}
	if _, exists := r.modules[info.Name]; exists {
		return fmt.Errorf("module %q already registered", info.Name)
	}

	r.modules[info.Name] = m
	r.infos[info.Name] = info
	r.logger.Info("module registered",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
	)
	return nil
}

// Validate resolves dependencies into a start order, failing on missing
// dependencies or cycles.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, info := range r.infos {
		for _, dep := range info.Dependencies {
			if _, ok := r.modules[dep]; !ok {
				return fmt.Errorf("module %q depends on %q which is not registered", name, dep)
			}
		}
	}

	order, err := r.topologicalSort()
	if err != nil {
		return err
	}
	r.order = order

	r.logger.Info("module dependency resolution complete",
		zap.Strings("start_order", r.order),
	)
	return nil
}

// InitAll initializes modules in dependency order. depsFn builds the
// per-module dependency bundle (scoped config, named logger).
func (r *Registry) InitAll(ctx context.Context, depsFn func(name string) plugin.Dependencies) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		r.logger.Info("initializing module", zap.String("name", name))
		if err := r.modules[name].Init(ctx, depsFn(name)); err != nil {
			return fmt.Errorf("module %q failed to initialize: %w", name, err)
		}
	}
	return nil
}

// WireSubscriptions subscribes every EventSubscriber module's handlers on
// the bus. Called after InitAll so handlers see initialized modules.
func (r *Registry) WireSubscriptions(bus plugin.EventBus) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		sub, ok := r.modules[name].(plugin.EventSubscriber)
		if !ok {
			continue
		}
		for _, s := range sub.Subscriptions() {
			bus.Subscribe(s.Topic, s.Handler)
			r.logger.Debug("subscription wired",
				zap.String("module", name),
				zap.String("topic", s.Topic),
			)
		}
	}
}

// StartAll starts modules in dependency order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		r.logger.Info("starting module", zap.String("name", name))
		if err := r.modules[name].Start(ctx); err != nil {
			return fmt.Errorf("module %q failed to start: %w", name, err)
		}
	}
	return nil
}

// StopAll stops modules in reverse dependency order. Stop errors are
// logged, not propagated; shutdown continues.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		r.logger.Info("stopping module", zap.String("name", name))
		if err := r.modules[name].Stop(ctx); err != nil {
			r.logger.Error("failed to stop module", zap.String("name", name), zap.Error(err))
		}
	}
}

// Get returns a module by name.
func (r *Registry) Get(name string) (plugin.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// topologicalSort orders module names with Kahn's algorithm.
func (r *Registry) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(r.modules))
	dependents := make(map[string][]string)

	for name := range r.modules {
		inDegree[name] = 0
	}
	for name, info := range r.infos {
		for _, dep := range info.Dependencies {
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(r.modules) {
		var cycled []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycled = append(cycled, name)
			}
		}
		return nil, fmt.Errorf("dependency cycle detected among modules: %v", cycled)
	}

	return order, nil
}
