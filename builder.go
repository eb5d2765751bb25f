package doublejump

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Builder configures a Manager before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	cfg       Config
	perms     Permissions
	regions   RegionProvider
	scheduler Scheduler
	log       *slog.Logger
	now       func() time.Time
	listeners []Listener
	observers []Observer
	manual    bool
}

// NewBuilder creates a new builder for the given configuration.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Permissions sets the permission source used for limits and the use
// permission. Without one, every override and the use permission fail.
func (b *Builder) Permissions(p Permissions) *Builder {
	b.perms = p
	return b
}

// Regions sets the restricted region provider.
// Defaults to the zones of the configuration.
//
// Example:
//
//	builder.Regions(doublejump.NewZones(
//	    doublejump.NewZone("world", mgl64.Vec3{-16, 0, -16}, mgl64.Vec3{16, 256, 16}),
//	))
func (b *Builder) Regions(r RegionProvider) *Builder {
	b.regions = r
	return b
}

// Scheduler sets the scheduler for join tasks and observers.
// Defaults to a TaskScheduler owned and stopped by the manager.
func (b *Builder) Scheduler(s Scheduler) *Builder {
	b.scheduler = s
	return b
}

// Logger sets the logger. Defaults to slog.Default().
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Clock sets the time source. Defaults to time.Now.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// ManualRegeneration disables the background regeneration loop. The host
// then drives regeneration by calling Manager.Tick from its own loop.
func (b *Builder) ManualRegeneration() *Builder {
	b.manual = true
	return b
}

// Listener adds a listener that may cancel jumps.
func (b *Builder) Listener(l Listener) *Builder {
	b.listeners = append(b.listeners, l)
	return b
}

// Observer adds an observer notified after every successful jump.
func (b *Builder) Observer(o Observer) *Builder {
	b.observers = append(b.observers, o)
	return b
}

// Build validates the configuration and starts a Manager.
// Regeneration runs in the background when limits are enabled and the
// regeneration interval is positive, unless ManualRegeneration is set.
func (b *Builder) Build() (*Manager, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	regions := b.regions
	if regions == nil && len(b.cfg.Zones) > 0 {
		regions = NewZones(b.cfg.Zones...)
	}

	m := &Manager{
		cfg:       b.cfg,
		log:       log,
		now:       now,
		perms:     b.perms,
		gate:      newRestrictions(b.cfg, regions, b.perms),
		registry:  NewRegistry(),
		scheduler: b.scheduler,
		listeners: append([]Listener(nil), b.listeners...),
		observers: append([]Observer(nil), b.observers...),
		joins:     make(map[uuid.UUID]*pendingJoin),
	}

	if m.scheduler == nil {
		s := NewTaskScheduler(log)
		s.Start()
		m.scheduler = s
		m.ownScheduler = s
	}

	if m.Regenerates() && !b.manual {
		m.regen = newRegenerator(m, b.cfg.Regeneration)
		m.regen.Start()
	}

	log.Debug("doublejump: manager started",
		"limits", b.cfg.Limits.Enabled,
		"cooldown", b.cfg.Cooldown,
		"regeneration", b.cfg.Regeneration)
	return m, nil
}

// Init builds the manager and panics if the configuration is invalid.
// Returns the Manager instance which should be stored and shut down when the
// server stops. Multiple managers can coexist.
func (b *Builder) Init() *Manager {
	m, err := b.Build()
	if err != nil {
		panic("doublejump: failed to build manager: " + err.Error())
	}
	return m
}
