// Package plugin defines the SDK types shared by all fleetd modules:
// the module lifecycle, the dependency bundle injected at init, and the
// collaborator interfaces (config, event bus, job queue, store, cache)
// that modules program against.
package plugin

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Module is implemented by every fleetd module.
type Module interface {
	// Info returns the module's metadata and dependency declarations.
	Info() ModuleInfo

	// Init wires the module to its dependencies. No background work yet.
	Init(ctx context.Context, deps Dependencies) error

	// Start begins the module's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts the module down.
	Stop(ctx context.Context) error
}

// ModuleInfo holds module metadata and dependency declarations.
type ModuleInfo struct {
	Name         string   // Unique identifier: "adoption", "templates", "vpn", ...
	Version      string   // Semantic version string
	Description  string   // Human-readable summary
	Dependencies []string // Module names that must initialize first
}

// Dependencies is the bundle of shared services handed to a module at Init.
type Dependencies struct {
	Config Config      // Scoped to this module's config section
	Logger *zap.Logger // Named logger for this module
	Bus    EventBus    // Publish/subscribe between modules
	Jobs   JobQueue    // Fire-and-forget background job submission
	Store  Store       // Shared SQLite store (migrations scoped per module)
	Cache  Cache       // Derived-data cache with idempotent invalidation
}

// Config abstracts configuration access. Wraps Viper today.
type Config interface {
	Unmarshal(target any) error
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
}

// Event is a typed message on the bus.
type Event struct {
	Topic     string
	Source    string // Module name that emitted the event
	Timestamp time.Time
	Payload   any // Type depends on topic
}

// EventHandler processes events from the bus.
type EventHandler func(ctx context.Context, event Event)

// Subscription declares a topic subscription for EventSubscriber modules.
type Subscription struct {
	Topic   string
	Handler EventHandler
}

// EventSubscriber is implemented by modules that consume bus events.
// The composition root wires Subscriptions after all modules initialize.
type EventSubscriber interface {
	Subscriptions() []Subscription
}

// EventBus provides publish/subscribe between modules.
type EventBus interface {
	// Publish dispatches synchronously in the caller's goroutine.
	Publish(ctx context.Context, event Event) error
	// PublishAsync dispatches handlers without blocking the caller.
	PublishAsync(ctx context.Context, event Event)
	// Subscribe registers a handler for a topic. Returns an unsubscribe func.
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
}

// JobFunc is the body of a background job. It must honor ctx cancellation
// at its I/O and iteration boundaries; ctx carries the job's soft deadline.
type JobFunc func(ctx context.Context) error

// Job is a unit of fire-and-forget work. Completion and failure are
// observed only through logs and metrics; there is no result channel.
type Job struct {
	Name    string        // Stable name for logs and metrics
	Timeout time.Duration // Soft deadline; zero means no deadline
	Run     JobFunc
}

// JobQueue accepts jobs for asynchronous execution.
type JobQueue interface {
	// Submit enqueues the job. It returns an error only when the queue
	// itself refuses the job (shutdown, ctx cancelled), never for job
	// body failures.
	Submit(ctx context.Context, job Job) error
}

// Migration is a single schema change applied within a transaction.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Store is the shared relational store modules persist domain records in.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, moduleName string, migrations []Migration) error
}

// Cache is the invalidation surface for derived lookup tables.
// All operations are idempotent: invalidating an absent key is a no-op.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Invalidate removes the given keys. Missing keys are ignored.
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidatePrefix removes every key with the given prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
}
