package doublejump

import (
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Player adapts a Dragonfly player to Target.
//
// Dragonfly players may only be read inside their world's transaction, so
// NewPlayer captures the game mode, world and position at creation. Create a
// new Player per event or command rather than keeping one around. The entity
// handle is persistent and may be used from any goroutine.
type Player struct {
	// handle is the persistent entity handle for the player
	handle *world.EntityHandle

	// uuid is cached for fast lookup
	uuid uuid.UUID

	// name is cached for fast lookup
	name string

	mode  world.GameMode
	world string
	pos   mgl64.Vec3
}

// NewPlayer captures a player. It must be called inside the player's
// transaction, such as a handler, a command or the server's accept loop.
func NewPlayer(p *player.Player) *Player {
	pl := &Player{
		handle: p.H(),
		uuid:   p.UUID(),
		name:   p.Name(),
		mode:   p.GameMode(),
		pos:    p.Position(),
	}
	if tx := p.Tx(); tx != nil {
		pl.world = tx.World().Name()
	}
	return pl
}

// Handle returns the underlying EntityHandle.
func (p *Player) Handle() *world.EntityHandle {
	return p.handle
}

// UUID returns the player's UUID.
func (p *Player) UUID() uuid.UUID {
	return p.uuid
}

// Name returns the player's name.
func (p *Player) Name() string {
	return p.name
}

// GameMode returns the game mode captured at creation.
func (p *Player) GameMode() world.GameMode {
	return p.mode
}

// World returns the name of the world captured at creation.
func (p *Player) World() string {
	return p.world
}

// Position returns the position captured at creation.
func (p *Player) Position() mgl64.Vec3 {
	return p.pos
}

// Exec runs a function within the player's world transaction.
// Returns false if the player is offline.
//
// Exec must not be called from inside a transaction of the same world.
func (p *Player) Exec(fn func(tx *world.Tx, p *player.Player)) bool {
	return p.handle.ExecWorld(func(tx *world.Tx, e world.Entity) {
		pl, ok := e.(*player.Player)
		if !ok {
			return
		}
		fn(tx, pl)
	})
}

// Connected reports whether the player is still online.
// Like Exec, it must not be called from inside a transaction.
func (p *Player) Connected() bool {
	return p.Exec(func(*world.Tx, *player.Player) {})
}

// String returns a string representation of the player for debugging.
func (p *Player) String() string {
	return "Player{Name: " + p.name + ", UUID: " + p.uuid.String() + ", World: " + p.world + "}"
}
