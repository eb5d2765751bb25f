package doublejump

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/world"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`{
		// Comments are allowed
		"restrictions": {
			"disabled_game_modes": ["Creative", "spectator"],
			"disabled_worlds": ["nether"],
			"use_permission": "",
			"zones": [{"world": "World", "min": [10, 0, 10], "max": [0, 5, 0]}]
		},
		"limits": {
			"enabled": true,
			"default": 3,
			"permissions": [
				{"permission": "vip.limit", "limit": 5},
				{"permission": "default.limit", "limit": 2}
			],
			"regeneration": "1m"
		},
		"cooldown": "1.5s",
		"join": {"operators": true}
	}`)

	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if len(cfg.DisabledGameModes) != 2 || cfg.DisabledGameModes[0] != world.GameModeCreative {
		t.Fatalf("disabled game modes = %v", cfg.DisabledGameModes)
	}
	if cfg.UsePermission != "" {
		t.Fatalf("use permission = %q, want empty", cfg.UsePermission)
	}
	if len(cfg.Zones) != 1 || cfg.Zones[0].Min != [3]float64{0, 0, 0} {
		t.Fatalf("zones = %v, want normalized corners", cfg.Zones)
	}
	if !cfg.Limits.Enabled || cfg.Limits.Default != 3 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if len(cfg.Limits.Overrides) != 2 || cfg.Limits.Overrides[0].Permission != "vip.limit" {
		t.Fatalf("overrides = %v, want declared order", cfg.Limits.Overrides)
	}
	if cfg.Regeneration != time.Minute || cfg.Cooldown != 1500*time.Millisecond {
		t.Fatalf("durations = %v, %v", cfg.Regeneration, cfg.Cooldown)
	}
	if !cfg.EnableOnJoinForOperators || cfg.EnableOnJoin {
		t.Fatalf("join = %v, %v", cfg.EnableOnJoin, cfg.EnableOnJoinForOperators)
	}

	// Missing keys keep their defaults
	def := DefaultConfig()
	if cfg.JumpMultiplier != def.JumpMultiplier || cfg.JoinDelay != def.JoinDelay || !cfg.StreaksEnabled {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestParseConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	def := DefaultConfig()
	if cfg.UsePermission != def.UsePermission || cfg.Cooldown != def.Cooldown || cfg.Limits.Default != def.Limits.Default {
		t.Fatalf("config = %+v, want defaults", cfg)
	}
	if len(cfg.DisabledGameModes) != 1 || cfg.DisabledGameModes[0] != world.GameModeSpectator {
		t.Fatalf("disabled game modes = %v, want spectator", cfg.DisabledGameModes)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown game mode", `{"restrictions": {"disabled_game_modes": ["hardcore"]}}`, ErrUnknownGameMode},
		{"negative default", `{"limits": {"default": -1}}`, ErrNegativeCapacity},
		{"negative override", `{"limits": {"permissions": [{"permission": "a", "limit": -2}]}}`, ErrNegativeCapacity},
		{"empty permission", `{"limits": {"permissions": [{"permission": "", "limit": 2}]}}`, ErrEmptyPermission},
		{"negative cooldown", `{"cooldown": "-1s"}`, ErrNegativeDuration},
		{"negative delay", `{"join": {"delay": "-2s"}}`, ErrNegativeDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseConfig() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ParseConfig([]byte(`{"cooldown": 5}`)); err == nil {
		t.Fatalf("expected error for numeric duration")
	}
	if _, err := ParseConfig([]byte(`{`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.jsonc")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadConfig() error = %v, want not exist", err)
	}

	path := filepath.Join(dir, "doublejump.jsonc")
	if err := os.WriteFile(path, []byte(`{"cooldown": "4s"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Cooldown != 4*time.Second {
		t.Fatalf("cooldown = %v, want 4s", cfg.Cooldown)
	}
}

func TestExampleConfigParses(t *testing.T) {
	data, err := os.ReadFile("doublejump.example.jsonc")
	if err != nil {
		t.Fatalf("read example: %v", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("parse example: %v", err)
	}
	m, err := NewBuilder(cfg).Logger(discardLogger()).Scheduler(&fakeScheduler{}).ManualRegeneration().Build()
	if err != nil {
		t.Fatalf("build from example: %v", err)
	}
	m.Shutdown()
}

func TestTicks(t *testing.T) {
	if got := Ticks(40); got != 2*time.Second {
		t.Fatalf("Ticks(40) = %v, want 2s", got)
	}
}
