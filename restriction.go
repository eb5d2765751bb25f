package doublejump

import (
	"slices"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// Target is the player a double jump operation applies to.
// Player adapts a Dragonfly *player.Player; tests and other hosts may
// provide their own implementation.
type Target interface {
	UUID() uuid.UUID
	GameMode() world.GameMode
	World() string
}

// RegionProvider reports whether a target stands in a restricted region.
type RegionProvider interface {
	InRegion(t Target) bool
}

// Restriction is the reason a target may not double jump.
type Restriction int

const (
	// RestrictionNone means the target is permitted.
	RestrictionNone Restriction = iota

	// RestrictionRegion means the target is inside a restricted region.
	RestrictionRegion

	// RestrictionGameMode means the target's game mode is disabled.
	RestrictionGameMode

	// RestrictionWorld means the target's world is disabled.
	RestrictionWorld

	// RestrictionPermission means the target lacks the use permission.
	RestrictionPermission
)

// String returns the string representation of the restriction.
func (r Restriction) String() string {
	switch r {
	case RestrictionNone:
		return "None"
	case RestrictionRegion:
		return "Region"
	case RestrictionGameMode:
		return "GameMode"
	case RestrictionWorld:
		return "World"
	case RestrictionPermission:
		return "Permission"
	default:
		return "Unknown"
	}
}

// Restrictions decides whether a target may double jump at all,
// independent of its charges. It holds no mutable state.
type Restrictions struct {
	regions    RegionProvider
	perms      Permissions
	modes      []world.GameMode
	worlds     map[string]struct{}
	permission string
}

// newRestrictions builds the gate from a validated configuration.
func newRestrictions(cfg Config, regions RegionProvider, perms Permissions) Restrictions {
	worlds := make(map[string]struct{}, len(cfg.DisabledWorlds))
	for _, w := range cfg.DisabledWorlds {
		worlds[w] = struct{}{}
	}
	return Restrictions{
		regions:    regions,
		perms:      perms,
		modes:      slices.Clone(cfg.DisabledGameModes),
		worlds:     worlds,
		permission: cfg.UsePermission,
	}
}

// Check returns the first restriction the target fails, in order:
// region, game mode, world, permission.
func (r Restrictions) Check(t Target) Restriction {
	if r.regions != nil && r.regions.InRegion(t) {
		return RestrictionRegion
	}
	if r.GameModeDisabled(t.GameMode()) {
		return RestrictionGameMode
	}
	if r.WorldDisabled(t.World()) {
		return RestrictionWorld
	}
	if r.permission == "" {
		return RestrictionNone
	}
	if r.perms == nil || !r.perms.HasPermission(t.UUID(), r.permission) {
		return RestrictionPermission
	}
	return RestrictionNone
}

// Permitted reports whether the target passes every restriction.
func (r Restrictions) Permitted(t Target) bool {
	return r.Check(t) == RestrictionNone
}

// GameModeDisabled reports whether double jump is disabled in the game mode.
func (r Restrictions) GameModeDisabled(mode world.GameMode) bool {
	for _, m := range r.modes {
		if m == mode {
			return true
		}
	}
	return false
}

// WorldDisabled reports whether double jump is disabled in the named world.
func (r Restrictions) WorldDisabled(name string) bool {
	_, ok := r.worlds[name]
	return ok
}

// CanFly reports whether the game mode grants flight by itself.
// Hosts use it to decide whether to revoke flight when disabling.
func CanFly(mode world.GameMode) bool {
	return mode != nil && mode.AllowsFlying()
}
