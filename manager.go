package doublejump

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Connectable is implemented by targets that may disconnect before a
// scheduled callback runs. Player implements it.
type Connectable interface {
	Connected() bool
}

// Observer is notified after a successful jump with the player's new state.
// Observers run through Scheduler.RunAsync and never block the jump.
type Observer func(id uuid.UUID, s State)

// Manager is the central double jump coordinator.
// It owns the registry, resolves limits and restrictions, and runs charge
// regeneration. All methods are safe for concurrent use.
type Manager struct {
	// cfg is immutable after build
	cfg Config

	log *slog.Logger
	now func() time.Time

	// perms answers limit and use permission checks
	perms Permissions

	// gate holds the restriction configuration
	gate Restrictions

	// registry holds the state of every enabled player
	registry *Registry

	// scheduler runs join tasks and observers
	scheduler Scheduler

	// ownScheduler is set when the manager created its scheduler and
	// must stop it on shutdown
	ownScheduler *TaskScheduler

	listeners []Listener
	observers []Observer

	// regen is nil when regeneration is disabled
	regen *regenerator

	// joins holds pending enable-on-join tasks
	joins   map[uuid.UUID]*pendingJoin
	joinsMu sync.Mutex

	closed atomic.Bool
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Restrictions returns the restriction gate.
func (m *Manager) Restrictions() Restrictions {
	return m.gate
}

// HasPermission reports whether the player holds a permission.
// Returns false when the manager has no permission source.
func (m *Manager) HasPermission(id uuid.UUID, permission string) bool {
	if m.perms == nil {
		return false
	}
	return m.perms.HasPermission(id, permission)
}

// Enabled reports whether double jump is enabled for the player.
func (m *Manager) Enabled(id uuid.UUID) bool {
	return m.registry.Has(id)
}

// Get returns the player's state without creating one.
func (m *Manager) Get(id uuid.UUID) (State, bool) {
	return m.registry.Get(id)
}

// newState builds a fresh state with the capacity resolved for the player.
func (m *Manager) newState(id uuid.UUID) State {
	capacity, limited := m.cfg.Limits.Resolve(id, m.perms)
	if !limited {
		return newUnlimitedState()
	}
	return newState(capacity, m.now())
}

// Create stores a fresh state for the target, replacing any previous one.
// The capacity is resolved once here and not recomputed afterwards.
// After Shutdown the state is returned but not stored.
func (m *Manager) Create(t Target) State {
	id := t.UUID()
	s := m.newState(id)
	if m.closed.Load() {
		return s
	}
	m.registry.Put(id, s)
	return s
}

// GetOrCreate returns the target's state, creating it on first access.
// After Shutdown nothing is stored.
func (m *Manager) GetOrCreate(t Target) State {
	id := t.UUID()
	if m.closed.Load() {
		if s, ok := m.registry.Get(id); ok {
			return s
		}
		return m.newState(id)
	}
	return m.registry.GetOrPut(id, func() State {
		return m.newState(id)
	})
}

// Enable enables double jump for the target.
// Unless force is set, the target must pass every restriction; otherwise
// Enable returns false and changes nothing. It also returns false after
// Shutdown.
//
// On success the caller should let the player start the jump, for example
// by granting flight where the host uses it as the trigger.
func (m *Manager) Enable(t Target, force bool) bool {
	if m.closed.Load() {
		return false
	}
	if !force {
		if r := m.gate.Check(t); r != RestrictionNone {
			m.log.Debug("doublejump: enable refused", "player", t.UUID(), "restriction", r)
			return false
		}
	}

	s := m.Create(t)
	m.log.Debug("doublejump: enabled", "player", t.UUID(), "state", s)
	return true
}

// Disable removes the player's state and cancels a pending join enable.
// It returns false if double jump was not enabled.
//
// The caller reverts any granted ability unless the player's game mode
// grants it by itself, see CanFly.
func (m *Manager) Disable(id uuid.UUID) bool {
	m.cancelJoin(id)

	if !m.registry.Remove(id) {
		return false
	}
	m.log.Debug("doublejump: disabled", "player", id)
	return true
}

// Refresh reports whether an enabled target may still double jump, in which
// case the caller should re-grant the ability to start a jump.
func (m *Manager) Refresh(t Target) bool {
	return m.registry.Has(t.UUID()) && m.gate.Permitted(t)
}

// Use is the entry point for jump triggers. It checks restrictions, creates
// the target's state if missing, and spends a charge.
func (m *Manager) Use(t Target) Outcome {
	if r := m.gate.Check(t); r != RestrictionNone {
		return OutcomeRestricted
	}
	if m.closed.Load() {
		return OutcomeNotEnabled
	}

	m.GetOrCreate(t)
	return m.attempt(t.UUID(), t)
}

// TryUse spends a charge of an enabled player without checking restrictions
// or creating state.
func (m *Manager) TryUse(id uuid.UUID) Outcome {
	return m.attempt(id, nil)
}

// TryConsume spends a charge of an enabled player. On failure nothing
// changes; RemainingCooldown and the state's Depleted tell why.
func (m *Manager) TryConsume(id uuid.UUID) bool {
	return m.attempt(id, nil) == OutcomeUsed
}

// attempt performs a jump for an enabled player.
func (m *Manager) attempt(id uuid.UUID, t Target) Outcome {
	now := m.now()

	s, ok := m.registry.Get(id)
	if !ok {
		return OutcomeNotEnabled
	}
	if out := classify(s, now); out != OutcomeUsed {
		return out
	}

	if len(m.listeners) > 0 {
		e := &EventJump{Player: id, Target: t, State: s}
		for _, l := range m.listeners {
			l(e)
		}
		if e.Cancelled() {
			return OutcomeCancelled
		}
	}

	// The state may have changed while listeners ran; consume checks again
	var used bool
	after, ok := m.registry.Update(id, func(s *State) {
		used = s.consume(now, m.cfg.Cooldown, m.cfg.StreaksEnabled)
	})
	if !ok {
		return OutcomeNotEnabled
	}
	if !used {
		return classify(after, now)
	}

	for _, o := range m.observers {
		m.scheduler.RunAsync(func() { o(id, after) })
	}
	return OutcomeUsed
}

// classify returns why a state cannot jump at now, or OutcomeUsed if it can.
func classify(s State, now time.Time) Outcome {
	if s.Depleted() {
		return OutcomeDepleted
	}
	if s.OnCooldown(now) {
		return OutcomeOnCooldown
	}
	return OutcomeUsed
}

// RemainingCooldown returns the time until the player may jump again.
// Zero if the player is not enabled, has no cooldown or is depleted.
func (m *Manager) RemainingCooldown(id uuid.UUID) time.Duration {
	s, ok := m.registry.Get(id)
	if !ok {
		return 0
	}
	return s.RemainingCooldown(m.now())
}

// RemainingRegeneration returns the time until the player's next charge.
// The boolean is false when no charge will come: the player is full,
// unlimited, not enabled, or regeneration is disabled. A depleted player
// with false stays depleted until re-enabled.
func (m *Manager) RemainingRegeneration(id uuid.UUID) (time.Duration, bool) {
	if !m.Regenerates() {
		return 0, false
	}
	s, ok := m.registry.Get(id)
	if !ok {
		return 0, false
	}
	return s.RemainingRegeneration(m.now(), m.cfg.Regeneration)
}

// Streak returns the player's streak, or zero if not enabled.
func (m *Manager) Streak(id uuid.UUID) int {
	s, _ := m.registry.Get(id)
	return s.Streak()
}

// ResetStreak sets the player's streak to zero. The engine never calls it;
// hosts decide what ends a streak.
func (m *Manager) ResetStreak(id uuid.UUID) bool {
	_, ok := m.registry.Update(id, func(s *State) {
		s.streak = 0
	})
	return ok
}

// Snapshot returns a copy of every enabled player's state.
func (m *Manager) Snapshot() map[uuid.UUID]State {
	return m.registry.Snapshot()
}

// Count returns the number of enabled players.
func (m *Manager) Count() int {
	return m.registry.Len()
}

// Regenerates reports whether charges regenerate over time.
func (m *Manager) Regenerates() bool {
	return m.cfg.Limits.Enabled && m.cfg.Regeneration > 0
}

// Tick runs one regeneration pass at the manager's current time and returns
// the number of players that gained a charge. The manager calls it on its own
// while running; hosts may call it to drive regeneration from their own loop.
func (m *Manager) Tick() int {
	if !m.Regenerates() {
		return 0
	}
	return m.registry.Regenerate(m.now(), m.cfg.Regeneration)
}

// TickNumber returns the number of regeneration ticks run so far.
func (m *Manager) TickNumber() uint64 {
	if m.regen == nil {
		return 0
	}
	return m.regen.tickNumber.Load()
}

// pendingJoin identifies one scheduled join enable. It is installed before
// the task is scheduled so the task can run before RunAfter returns.
type pendingJoin struct {
	handle *TaskHandle
}

// ScheduleJoin enables double jump for a joining target after the configured
// join delay, if enable-on-join applies to it. The target is checked for
// region, game mode and world now, and for its connection when the task runs.
// Returns nil if nothing was scheduled.
//
// A Disable for the player, such as on quit, cancels the pending enable. If it
// races with the task, the enable either does not happen or is removed by
// the Disable.
func (m *Manager) ScheduleJoin(t Target, operator bool) *TaskHandle {
	if m.closed.Load() {
		return nil
	}
	if !m.cfg.EnableOnJoin && !(m.cfg.EnableOnJoinForOperators && operator) {
		return nil
	}
	switch m.gate.Check(t) {
	case RestrictionRegion, RestrictionGameMode, RestrictionWorld:
		return nil
	}

	id := t.UUID()
	j := &pendingJoin{}

	m.joinsMu.Lock()
	var replaced *TaskHandle
	if old := m.joins[id]; old != nil {
		replaced = old.handle
	}
	m.joins[id] = j
	m.joinsMu.Unlock()
	replaced.Cancel()

	// The scheduler may run the task inline, so joinsMu must not be held here
	h := m.scheduler.RunAfter(func() {
		m.runJoin(j, t)
	}, m.cfg.JoinDelay)

	m.joinsMu.Lock()
	current := m.joins[id] == j
	if current {
		if h == nil {
			delete(m.joins, id)
		} else {
			j.handle = h
		}
	}
	m.joinsMu.Unlock()
	return h
}

// runJoin enables a joined target unless its pending join was cancelled.
// The enable happens under joinsMu, so a concurrent Disable either cancels
// it first or removes the state it created.
func (m *Manager) runJoin(j *pendingJoin, t Target) {
	id := t.UUID()
	if c, ok := t.(Connectable); ok && !c.Connected() {
		m.joinsMu.Lock()
		if m.joins[id] == j {
			delete(m.joins, id)
		}
		m.joinsMu.Unlock()
		return
	}

	m.joinsMu.Lock()
	defer m.joinsMu.Unlock()
	if m.joins[id] != j {
		return
	}
	delete(m.joins, id)
	m.Enable(t, true)
}

// cancelJoin cancels a pending join enable.
func (m *Manager) cancelJoin(id uuid.UUID) {
	var h *TaskHandle
	m.joinsMu.Lock()
	if j := m.joins[id]; j != nil {
		h = j.handle
	}
	delete(m.joins, id)
	m.joinsMu.Unlock()

	h.Cancel()
}

// Shutdown stops regeneration and the manager's own scheduler.
// Player states are dropped.
func (m *Manager) Shutdown() {
	if m.closed.Swap(true) {
		return
	}

	if m.regen != nil {
		m.regen.Stop()
	}

	m.joinsMu.Lock()
	for id, j := range m.joins {
		j.handle.Cancel()
		delete(m.joins, id)
	}
	m.joinsMu.Unlock()

	if m.ownScheduler != nil {
		m.ownScheduler.Stop()
	}

	for id := range m.registry.Snapshot() {
		m.registry.Remove(id)
	}
}
