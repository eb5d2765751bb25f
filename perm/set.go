// Package perm provides permission sources for double jump limits and
// commands: an in-memory Set and a SQLite backed Store.
//
// Permissions are dot separated names. A grant ending in ".*" matches every
// permission below it, and "*" matches everything:
//
//	doublejump.*        matches doublejump.use and doublejump.limit.vip
//	doublejump.limit.*  matches doublejump.limit.vip only
package perm

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Wildcard matches every permission.
const Wildcard = "*"

// Set is an in-memory permission table. It is safe for concurrent use.
type Set struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]map[string]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{grants: make(map[uuid.UUID]map[string]struct{})}
}

// Grant gives permissions to a player.
func (s *Set) Grant(id uuid.UUID, permissions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.grants[id]
	if g == nil {
		g = make(map[string]struct{}, len(permissions))
		s.grants[id] = g
	}
	for _, p := range permissions {
		if p = normalize(p); p != "" {
			g[p] = struct{}{}
		}
	}
}

// Revoke removes a permission from a player. It returns false if the player
// did not hold it. Wildcard grants are only removed by name.
func (s *Set) Revoke(id uuid.UUID, permission string) bool {
	permission = normalize(permission)

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.grants[id]
	if _, ok := g[permission]; !ok {
		return false
	}
	delete(g, permission)
	if len(g) == 0 {
		delete(s.grants, id)
	}
	return true
}

// Clear removes every permission of a player.
func (s *Set) Clear(id uuid.UUID) {
	s.mu.Lock()
	delete(s.grants, id)
	s.mu.Unlock()
}

// HasPermission reports whether the player holds the permission directly or
// through a wildcard.
func (s *Set) HasPermission(id uuid.UUID, permission string) bool {
	permission = normalize(permission)
	if permission == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	g := s.grants[id]
	if len(g) == 0 {
		return false
	}
	if _, ok := g[permission]; ok {
		return true
	}
	if _, ok := g[Wildcard]; ok {
		return true
	}

	// Walk up the tree: a.b.c is matched by a.b.* and a.*
	for i := strings.LastIndexByte(permission, '.'); i > 0; i = strings.LastIndexByte(permission[:i], '.') {
		if _, ok := g[permission[:i]+".*"]; ok {
			return true
		}
	}
	return false
}

// Permissions returns the player's grants in sorted order.
func (s *Set) Permissions(id uuid.UUID) []string {
	s.mu.RLock()
	g := s.grants[id]
	out := make([]string, 0, len(g))
	for p := range g {
		out = append(out, p)
	}
	s.mu.RUnlock()

	slices.Sort(out)
	return out
}

// Players returns the number of players holding at least one permission.
func (s *Set) Players() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.grants)
}

// normalize trims and lowercases a permission name.
func normalize(permission string) string {
	return strings.ToLower(strings.TrimSpace(permission))
}
