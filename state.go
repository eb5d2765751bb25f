package doublejump

import (
	"strconv"
	"sync"
	"time"
)

// State is a copy of one player's double jump bookkeeping.
// A State is never shared: the registry hands out values, so reading one
// requires no locking.
type State struct {
	// charges is the number of jumps left
	charges int

	// capacity is the regeneration ceiling, fixed at creation
	capacity int

	// unlimited is set when limiting is disabled; charges are not tracked
	unlimited bool

	// cooldown is the instant the cooldown ends (zero = none)
	cooldown time.Time

	// anchor is the instant regeneration counts from
	anchor time.Time

	// streak counts successful jumps
	streak int
}

// newState creates a full state with the given capacity.
func newState(capacity int, now time.Time) State {
	return State{
		charges:  capacity,
		capacity: capacity,
		anchor:   now,
	}
}

// newUnlimitedState creates a state that only tracks cooldown and streak.
func newUnlimitedState() State {
	return State{unlimited: true}
}

// Charges returns the number of jumps left.
// Always zero for unlimited states.
func (s State) Charges() int {
	return s.charges
}

// Capacity returns the maximum number of charges.
func (s State) Capacity() int {
	return s.capacity
}

// Unlimited reports whether charges are not tracked for this state.
func (s State) Unlimited() bool {
	return s.unlimited
}

// Streak returns the number of successful jumps.
func (s State) Streak() int {
	return s.streak
}

// CooldownExpiresAt returns the instant the cooldown ends, if one was set.
// The returned time may already be in the past.
func (s State) CooldownExpiresAt() (time.Time, bool) {
	return s.cooldown, !s.cooldown.IsZero()
}

// OnCooldown reports whether the cooldown is still running at now.
func (s State) OnCooldown(now time.Time) bool {
	return !s.cooldown.IsZero() && now.Before(s.cooldown)
}

// Depleted reports whether no charges are left.
func (s State) Depleted() bool {
	return !s.unlimited && s.charges <= 0
}

// CanUse reports whether a jump is allowed at now.
func (s State) CanUse(now time.Time) bool {
	return !s.Depleted() && !s.OnCooldown(now)
}

// RemainingCooldown returns the time until the cooldown ends.
// A depleted state reports zero: running out of charges takes precedence.
func (s State) RemainingCooldown(now time.Time) time.Duration {
	if s.Depleted() || !s.OnCooldown(now) {
		return 0
	}
	return s.cooldown.Sub(now)
}

// RemainingRegeneration returns the time until the next charge.
// The boolean is false when no charge is pending: the state is full,
// unlimited, or regeneration is disabled.
func (s State) RemainingRegeneration(now time.Time, interval time.Duration) (time.Duration, bool) {
	if s.unlimited || interval <= 0 || s.charges >= s.capacity {
		return 0, false
	}
	d := s.anchor.Add(interval).Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// String returns a string representation of the state for debugging.
func (s State) String() string {
	charges := "unlimited"
	if !s.unlimited {
		charges = strconv.Itoa(s.charges) + "/" + strconv.Itoa(s.capacity)
	}
	return "State{Charges: " + charges + ", Streak: " + strconv.Itoa(s.streak) + "}"
}

// consume spends one charge. It returns false without mutating if the jump
// is not allowed at now.
func (s *State) consume(now time.Time, cooldown time.Duration, streak bool) bool {
	if !s.CanUse(now) {
		return false
	}

	if !s.unlimited {
		// Regeneration counts from the first charge spent out of a full state
		if s.charges >= s.capacity {
			s.anchor = now
		}
		s.charges--
	}
	if cooldown > 0 {
		s.cooldown = now.Add(cooldown)
	}
	if streak {
		s.streak++
	}
	return true
}

// regenerate adds one charge if a full interval passed since the anchor.
func (s *State) regenerate(now time.Time, interval time.Duration) bool {
	if s.unlimited || interval <= 0 || s.charges >= s.capacity {
		return false
	}
	if now.Sub(s.anchor) < interval {
		return false
	}
	s.charges++
	s.anchor = now
	return true
}

// entry guards one player's state.
// removed is set once the entry left the registry; a stale pointer held by
// a concurrent caller then no longer mutates anything.
type entry struct {
	mu      sync.Mutex
	state   State
	removed bool
}

// load returns a copy of the state, or false if the entry was removed.
func (e *entry) load() (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return State{}, false
	}
	return e.state, true
}
