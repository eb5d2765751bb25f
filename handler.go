package doublejump

import (
	"time"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// Handler triggers double jumps for Dragonfly players.
//
// Dragonfly has no flight toggle event, so a player double jumps by starting
// to sneak while airborne. Only players with double jump enabled are
// affected; the handler never enables anyone by itself.
//
// Concurrency:
// Handlers are executed synchronously by Dragonfly within the world's
// transaction. Manager methods called from here never enter a transaction.
type Handler struct {
	player.NopHandler
	manager *Manager
}

// NewHandler creates a new player.Handler for the given manager.
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// Compile-time check that Handler implements player.Handler.
var _ player.Handler = (*Handler)(nil)

// HandleToggleSneak handles the jump trigger.
func (h *Handler) HandleToggleSneak(ctx *player.Context, after bool) {
	p := ctx.Val()
	if !after || p.OnGround() || p.Flying() {
		return
	}

	m := h.manager
	if !m.Enabled(p.UUID()) {
		return
	}

	t := NewPlayer(p)
	switch m.Restrictions().Check(t) {
	case RestrictionNone:
	case RestrictionRegion:
		p.Message(text.Colourf("<red>You cannot double jump in this region.</red>"))
		return
	case RestrictionGameMode:
		p.Message(text.Colourf("<red>You cannot double jump in this game mode.</red>"))
		return
	case RestrictionWorld:
		p.Message(text.Colourf("<red>You cannot double jump in this world.</red>"))
		return
	default:
		p.Message(text.Colourf("<red>You are not allowed to double jump.</red>"))
		return
	}

	switch m.Use(t) {
	case OutcomeUsed:
		h.jump(p)
		if m.Config().StreaksEnabled {
			p.Message(text.Colourf("<green>Jump streak: %d</green>", m.Streak(p.UUID())))
		}
	case OutcomeOnCooldown:
		p.Message(text.Colourf("<red>Wait %s before jumping again.</red>", humanDuration(m.RemainingCooldown(p.UUID()))))
	case OutcomeDepleted:
		if d, ok := m.RemainingRegeneration(p.UUID()); ok {
			p.Message(text.Colourf("<red>No jumps left. Next jump in %s.</red>", humanDuration(d)))
		} else {
			p.Message(text.Colourf("<red>No jumps left.</red>"))
		}
	}
}

// HandleChangeWorld tells enabled players when the new world disables
// double jump. Their state is kept for when they come back.
func (h *Handler) HandleChangeWorld(p *player.Player, before, after *world.World) {
	if after == nil || !h.manager.Enabled(p.UUID()) {
		return
	}

	t := NewPlayer(p)
	t.world = after.Name()
	if !h.manager.Refresh(t) && h.manager.Restrictions().WorldDisabled(t.world) {
		p.Message(text.Colourf("<yellow>Double jump is disabled in this world.</yellow>"))
	}
}

// HandleQuit drops the player's state and any pending join enable.
func (h *Handler) HandleQuit(p *player.Player) {
	h.manager.Disable(p.UUID())
}

// jump launches the player along their look direction.
func (h *Handler) jump(p *player.Player) {
	cfg := h.manager.Config()
	p.SetVelocity(Velocity(p.Rotation().Vec3(), cfg.JumpMultiplier, cfg.JumpUp))
}

// Velocity returns the jump velocity for a look direction: the direction
// scaled by multiplier, with the vertical component replaced by up.
func Velocity(dir mgl64.Vec3, multiplier, up float64) mgl64.Vec3 {
	v := dir.Mul(multiplier)
	v[1] = up
	return v
}

// humanDuration rounds a duration to a tenth of a second for messages.
func humanDuration(d time.Duration) time.Duration {
	return d.Round(100 * time.Millisecond)
}
