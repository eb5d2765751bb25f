package doublejump

import "github.com/google/uuid"

// Outcome is the result of a double jump attempt.
type Outcome int

const (
	// OutcomeUsed means a charge was spent and the jump should be applied.
	OutcomeUsed Outcome = iota

	// OutcomeNotEnabled means the player has no state.
	OutcomeNotEnabled

	// OutcomeRestricted means a restriction forbids the jump.
	OutcomeRestricted

	// OutcomeOnCooldown means the cooldown is still running.
	OutcomeOnCooldown

	// OutcomeDepleted means no charges are left.
	OutcomeDepleted

	// OutcomeCancelled means a listener cancelled the jump.
	OutcomeCancelled
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeUsed:
		return "Used"
	case OutcomeNotEnabled:
		return "NotEnabled"
	case OutcomeRestricted:
		return "Restricted"
	case OutcomeOnCooldown:
		return "OnCooldown"
	case OutcomeDepleted:
		return "Depleted"
	case OutcomeCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// EventJump is dispatched to listeners before a jump spends a charge.
// Cancelling it leaves the player's state untouched.
type EventJump struct {
	// Player is the jumping player
	Player uuid.UUID

	// Target is the jumping target; nil when the jump was requested by ID
	Target Target

	// State is the player's state before the jump
	State State

	cancelled bool
}

// Cancel prevents the jump.
func (e *EventJump) Cancel() { e.cancelled = true }

// Cancelled reports whether a listener cancelled the jump.
func (e *EventJump) Cancelled() bool { return e.cancelled }

// Listener receives jump events. Listeners run on the goroutine of the
// jump attempt, in registration order, with no lock held.
type Listener func(e *EventJump)
