package doublejump

import (
	"testing"
	"time"
)

func TestStateConsume(t *testing.T) {
	now := newClock().Now()
	s := newState(2, now)

	if !s.consume(now, time.Second, true) {
		t.Fatalf("consume of a full state should succeed")
	}
	if s.Charges() != 1 || s.Streak() != 1 {
		t.Fatalf("state = %v, want 1 charge and streak 1", s)
	}
	if exp, ok := s.CooldownExpiresAt(); !ok || !exp.Equal(now.Add(time.Second)) {
		t.Fatalf("cooldown expires at %v, %v, want %v", exp, ok, now.Add(time.Second))
	}

	before := s
	if s.consume(now, time.Second, true) {
		t.Fatalf("consume on cooldown should fail")
	}
	if s != before {
		t.Fatalf("failed consume mutated state: %v -> %v", before, s)
	}
}

func TestStateCooldownExpiresLazily(t *testing.T) {
	now := newClock().Now()
	s := newState(5, now)
	s.consume(now, 3*time.Second, false)

	if !s.OnCooldown(now.Add(2 * time.Second)) {
		t.Fatalf("expected cooldown after 2s")
	}
	if got := s.RemainingCooldown(now.Add(time.Second)); got != 2*time.Second {
		t.Fatalf("remaining cooldown = %v, want 2s", got)
	}
	if s.OnCooldown(now.Add(3 * time.Second)) {
		t.Fatalf("cooldown should end exactly at expiry")
	}
	if got := s.RemainingCooldown(now.Add(time.Hour)); got != 0 {
		t.Fatalf("remaining cooldown after expiry = %v, want 0", got)
	}
}

func TestStateWithoutCooldown(t *testing.T) {
	now := newClock().Now()
	s := newState(2, now)
	s.consume(now, 0, false)

	if _, ok := s.CooldownExpiresAt(); ok {
		t.Fatalf("zero cooldown should not set an expiry")
	}
	if !s.CanUse(now) {
		t.Fatalf("expected state to be usable immediately")
	}
}

func TestStateZeroCapacityIsDepleted(t *testing.T) {
	now := newClock().Now()
	s := newState(0, now)

	if !s.Depleted() {
		t.Fatalf("zero capacity state should be depleted")
	}
	if s.consume(now, 0, false) {
		t.Fatalf("consume of zero capacity state should fail")
	}
	if _, ok := s.RemainingRegeneration(now, time.Second); ok {
		t.Fatalf("zero capacity state never regenerates")
	}
}

func TestStateRegenerate(t *testing.T) {
	clock := newClock()
	start := clock.Now()
	s := newState(2, start)

	clock.Advance(time.Hour)
	if s.regenerate(clock.Now(), time.Second) {
		t.Fatalf("full state should not regenerate")
	}

	// The anchor moves to the first spend out of a full state
	s.consume(clock.Now(), 0, false)
	spent := clock.Now()
	if d, ok := s.RemainingRegeneration(spent, 10*time.Second); !ok || d != 10*time.Second {
		t.Fatalf("remaining regeneration = %v, %v, want 10s, true", d, ok)
	}

	clock.Advance(9 * time.Second)
	if s.regenerate(clock.Now(), 10*time.Second) {
		t.Fatalf("regenerated before the interval elapsed")
	}
	clock.Advance(time.Second)
	if !s.regenerate(clock.Now(), 10*time.Second) {
		t.Fatalf("expected regeneration after the interval")
	}
	if s.Charges() != 2 {
		t.Fatalf("charges = %d, want 2", s.Charges())
	}
}

func TestStateRemainingRegenerationNeverNegative(t *testing.T) {
	now := newClock().Now()
	s := newState(1, now)
	s.consume(now, 0, false)

	d, ok := s.RemainingRegeneration(now.Add(time.Hour), time.Second)
	if !ok || d != 0 {
		t.Fatalf("remaining regeneration = %v, %v, want 0, true", d, ok)
	}
	if _, ok := s.RemainingRegeneration(now, 0); ok {
		t.Fatalf("disabled regeneration should report no pending charge")
	}
}

func TestUnlimitedState(t *testing.T) {
	now := newClock().Now()
	s := newUnlimitedState()

	for range 10 {
		if !s.consume(now, 0, true) {
			t.Fatalf("unlimited consume should succeed")
		}
	}
	if s.Charges() != 0 || s.Depleted() || s.Streak() != 10 {
		t.Fatalf("state = %v, want untracked charges and streak 10", s)
	}
	if s.regenerate(now.Add(time.Hour), time.Second) {
		t.Fatalf("unlimited state should not regenerate")
	}
	if got := s.String(); got != "State{Charges: unlimited, Streak: 10}" {
		t.Fatalf("String() = %q", got)
	}
}
