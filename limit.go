package doublejump

import "github.com/google/uuid"

// Permissions answers permission checks for players.
// The perm package provides in-memory and SQLite backed implementations.
type Permissions interface {
	HasPermission(id uuid.UUID, permission string) bool
}

// Limit grants a charge capacity to players holding a permission.
type Limit struct {
	Permission string
	Limit      int
}

// Limits is the charge capacity table.
// It is read-only once the manager is built.
type Limits struct {
	// Enabled turns charge tracking on. When false every player is unlimited.
	Enabled bool

	// Default is the capacity of players matching no override
	Default int

	// Overrides are matched in order; the first held permission wins
	Overrides []Limit
}

// Resolve returns the charge capacity for a player.
// The boolean is false when limiting is disabled and the player is unlimited.
//
// Overrides are checked in their declared order, so a table of
// [vip.limit=5, default.limit=2] gives 5 to a player holding both.
func (l Limits) Resolve(id uuid.UUID, perms Permissions) (int, bool) {
	if !l.Enabled {
		return 0, false
	}
	if perms != nil {
		for _, o := range l.Overrides {
			if perms.HasPermission(id, o.Permission) {
				return o.Limit, true
			}
		}
	}
	return l.Default, true
}
