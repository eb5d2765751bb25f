// Package doublejump provides a rate-limited double jump ability for Dragonfly servers.
//
// The engine keeps one piece of bookkeeping per player while the ability is
// enabled for them:
//   - Charges, bounded by a capacity resolved from permissions
//   - A cooldown between two consecutive jumps, expired lazily on read
//   - Charge regeneration on a fixed interval
//   - A streak counter of successful jumps
//
// # Quick Start
//
// Build a manager from a configuration and hand it to every player:
//
//	cfg, err := doublejump.LoadConfig("doublejump.jsonc")
//	if err != nil {
//	    return err
//	}
//
//	mngr := doublejump.NewBuilder(cfg).
//	    Permissions(perms).
//	    Init()
//	defer mngr.Shutdown()
//
//	cmd.Register(mngr.Command())
//
//	for p := range srv.Accept() {
//	    p.Handle(doublejump.NewHandler(mngr))
//	    mngr.ScheduleJoin(doublejump.NewPlayer(p), false)
//	}
//
// # Outcomes
//
// Jump attempts never return errors. Manager.Use reports an Outcome that
// tells the caller which message to show:
//
//	OutcomeUsed        the jump happened, apply the velocity
//	OutcomeNotEnabled  the player has no state and none was created
//	OutcomeRestricted  region, game mode, world or permission forbids it
//	OutcomeOnCooldown  RemainingCooldown is above zero
//	OutcomeDepleted    no charges left, see RemainingRegeneration
//	OutcomeCancelled   a listener cancelled the EventJump
package doublejump

import "time"

// Version is the doublejump version.
const Version = "1.0.0"

// TickDuration is the length of one server tick (20 TPS).
const TickDuration = 50 * time.Millisecond

// Ticks converts a number of server ticks to a duration.
func Ticks(n int) time.Duration {
	return time.Duration(n) * TickDuration
}
