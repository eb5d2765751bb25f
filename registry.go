package doublejump

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps players to their double jump state.
// Membership is the enabled flag: a player is enabled iff it has an entry.
//
// Concurrency:
// The map lock is only held to look entries up or change membership.
// Each entry has its own lock, so mutations of one player never wait on
// another player's.
type Registry struct {
	entries map[uuid.UUID]*entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*entry),
	}
}

// lookup returns the entry for a player.
func (r *Registry) lookup(id uuid.UUID) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// Put stores a state, replacing any previous one for the player.
func (r *Registry) Put(id uuid.UUID, s State) {
	e := &entry{state: s}

	r.mu.Lock()
	old := r.entries[id]
	r.entries[id] = e
	r.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.removed = true
		old.mu.Unlock()
	}
}

// GetOrPut returns the player's state, storing the result of create if the
// player has none. create runs outside the registry lock and may be called
// even if a concurrent caller wins the insert.
func (r *Registry) GetOrPut(id uuid.UUID, create func() State) State {
	for {
		if e := r.lookup(id); e != nil {
			if s, ok := e.load(); ok {
				return s
			}
			// Removed entries leave the map before they are marked
			continue
		}

		s := create()
		r.mu.Lock()
		if _, ok := r.entries[id]; !ok {
			r.entries[id] = &entry{state: s}
			r.mu.Unlock()
			return s
		}
		r.mu.Unlock()
	}
}

// Remove deletes the player's state. It returns false if there was none.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if !ok {
		return false
	}

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return true
}

// Has reports whether the player has a state.
func (r *Registry) Has(id uuid.UUID) bool {
	return r.lookup(id) != nil
}

// Get returns a copy of the player's state.
func (r *Registry) Get(id uuid.UUID) (State, bool) {
	e := r.lookup(id)
	if e == nil {
		return State{}, false
	}
	return e.load()
}

// Update runs fn on the player's state under the player's lock and returns
// the resulting copy. It returns false if the player has no state.
func (r *Registry) Update(id uuid.UUID, fn func(s *State)) (State, bool) {
	e := r.lookup(id)
	if e == nil {
		return State{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return State{}, false
	}
	fn(&e.state)
	return e.state, true
}

// Len returns the number of players with a state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of every player's state.
// Changing the returned map does not affect the registry.
func (r *Registry) Snapshot() map[uuid.UUID]State {
	r.mu.RLock()
	entries := make(map[uuid.UUID]*entry, len(r.entries))
	for id, e := range r.entries {
		entries[id] = e
	}
	r.mu.RUnlock()

	result := make(map[uuid.UUID]State, len(entries))
	for id, e := range entries {
		e.mu.Lock()
		if !e.removed {
			result[id] = e.state
		}
		e.mu.Unlock()
	}
	return result
}

// Regenerate gives one charge to every player whose regeneration interval
// elapsed since their last charge. It returns the number of players that
// gained a charge.
func (r *Registry) Regenerate(now time.Time, interval time.Duration) int {
	if interval <= 0 {
		return 0
	}

	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed && e.state.regenerate(now, interval) {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
