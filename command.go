package doublejump

import (
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// AdminPermission allows toggling double jump for other players.
const AdminPermission = "doublejump.admin"

// Command returns the /doublejump command for the manager.
// Register it once with cmd.Register.
//
//	/doublejump                       toggle for yourself
//	/doublejump enable-for <target>   enable for players (admin)
//	/doublejump disable-for <target>  disable for players (admin)
func (m *Manager) Command() cmd.Command {
	return cmd.New("doublejump", "Toggles double jump.", []string{"dj"},
		toggleCommand{manager: m},
		enableForCommand{manager: m},
		disableForCommand{manager: m},
	)
}

// commandPlayer extracts the player from a command source.
// Returns nil if the source is not a player.
func commandPlayer(src cmd.Source) *player.Player {
	p, _ := src.(*player.Player)
	return p
}

// restrictionMessage returns the message for a restriction that blocks
// toggling. Permission is not checked when toggling.
func restrictionMessage(r Restriction) (string, bool) {
	switch r {
	case RestrictionRegion:
		return "in a region where double jump is disabled", true
	case RestrictionGameMode:
		return "in a game mode where double jump is disabled", true
	case RestrictionWorld:
		return "in a world where double jump is disabled", true
	default:
		return "", false
	}
}

// disable disables double jump and stops flight the game mode does not grant.
func disable(m *Manager, p *player.Player) bool {
	if !m.Disable(p.UUID()) {
		return false
	}
	if !CanFly(p.GameMode()) {
		p.StopFlying()
	}
	return true
}

// toggleCommand toggles double jump for the sender.
type toggleCommand struct {
	manager *Manager
}

// Run ...
func (c toggleCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	p := commandPlayer(src)
	if p == nil {
		o.Error("This command can only be used by players.")
		return
	}

	t := NewPlayer(p)
	if msg, ok := restrictionMessage(c.manager.Restrictions().Check(t)); ok {
		o.Errorf("You are %s.", msg)
		return
	}

	if disable(c.manager, p) {
		o.Print(text.Colourf("<yellow>Double jump disabled.</yellow>"))
		return
	}
	c.manager.Enable(t, true)
	o.Print(text.Colourf("<green>Double jump enabled.</green>"))
}

// enableForCommand enables double jump for other players.
type enableForCommand struct {
	manager *Manager
	Sub     cmd.SubCommand `cmd:"enable-for"`
	Targets []cmd.Target   `cmd:"target"`
}

// Run ...
func (c enableForCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	for _, target := range c.Targets {
		p, ok := target.(*player.Player)
		if !ok {
			continue
		}

		t := NewPlayer(p)
		if msg, ok := restrictionMessage(c.manager.Restrictions().Check(t)); ok {
			o.Errorf("%s is %s.", p.Name(), msg)
			continue
		}

		c.manager.Enable(t, true)
		p.Message(text.Colourf("<green>Double jump enabled.</green>"))
		o.Printf("Enabled double jump for %s.", p.Name())
	}
}

// Allow ...
func (c enableForCommand) Allow(src cmd.Source) bool {
	return allowAdmin(c.manager, src)
}

// disableForCommand disables double jump for other players.
type disableForCommand struct {
	manager *Manager
	Sub     cmd.SubCommand `cmd:"disable-for"`
	Targets []cmd.Target   `cmd:"target"`
}

// Run ...
func (c disableForCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	for _, target := range c.Targets {
		p, ok := target.(*player.Player)
		if !ok {
			continue
		}

		if !disable(c.manager, p) {
			o.Errorf("%s does not have double jump enabled.", p.Name())
			continue
		}
		p.Message(text.Colourf("<yellow>Double jump disabled.</yellow>"))
		o.Printf("Disabled double jump for %s.", p.Name())
	}
}

// Allow ...
func (c disableForCommand) Allow(src cmd.Source) bool {
	return allowAdmin(c.manager, src)
}

// allowAdmin allows the console and players holding AdminPermission.
func allowAdmin(m *Manager, src cmd.Source) bool {
	p := commandPlayer(src)
	if p == nil {
		return true
	}
	return m.HasPermission(p.UUID(), AdminPermission)
}
