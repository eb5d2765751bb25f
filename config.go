package doublejump

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/jsonc"
	"github.com/go-gl/mathgl/mgl64"
)

// Configuration errors returned by Config.Validate.
var (
	ErrNegativeCapacity = errors.New("negative capacity")
	ErrNegativeDuration = errors.New("negative duration")
	ErrUnknownGameMode  = errors.New("unknown game mode")
	ErrEmptyPermission  = errors.New("empty permission")
)

// Config holds the double jump settings. It is read once when the manager
// is built and never changes afterwards.
type Config struct {
	// DisabledGameModes are game modes in which double jump is unavailable
	DisabledGameModes []world.GameMode

	// DisabledWorlds are world names in which double jump is unavailable
	DisabledWorlds []string

	// UsePermission is required to double jump. Empty means everyone may.
	UsePermission string

	// Zones are restricted cuboids used when no RegionProvider is set
	Zones []Zone

	// Limits is the charge capacity table
	Limits Limits

	// Cooldown is the minimum time between two jumps. Zero disables it.
	Cooldown time.Duration

	// Regeneration is the time to regain one charge. Zero disables it.
	Regeneration time.Duration

	// StreaksEnabled counts successful jumps
	StreaksEnabled bool

	// JumpMultiplier scales the look direction of the jump velocity
	JumpMultiplier float64

	// JumpUp is the vertical component of the jump velocity
	JumpUp float64

	// EnableOnJoin enables double jump for every joining player
	EnableOnJoin bool

	// EnableOnJoinForOperators enables double jump for joining operators
	EnableOnJoinForOperators bool

	// JoinDelay is the wait before enabling on join
	JoinDelay time.Duration
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DisabledGameModes: []world.GameMode{world.GameModeSpectator},
		UsePermission:     "doublejump.use",
		Limits: Limits{
			Enabled: false,
			Default: 5,
		},
		Cooldown:       2 * time.Second,
		Regeneration:   10 * time.Second,
		StreaksEnabled: true,
		JumpMultiplier: 0.6,
		JumpUp:         0.8,
		JoinDelay:      Ticks(40),
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	for i, m := range c.DisabledGameModes {
		if m == nil {
			return fmt.Errorf("doublejump: disabled game mode %d: %w", i, ErrUnknownGameMode)
		}
	}
	if c.Limits.Default < 0 {
		return fmt.Errorf("doublejump: default limit %d: %w", c.Limits.Default, ErrNegativeCapacity)
	}
	for _, l := range c.Limits.Overrides {
		if l.Permission == "" {
			return fmt.Errorf("doublejump: limit %d: %w", l.Limit, ErrEmptyPermission)
		}
		if l.Limit < 0 {
			return fmt.Errorf("doublejump: limit %q: %w", l.Permission, ErrNegativeCapacity)
		}
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("doublejump: cooldown %s: %w", c.Cooldown, ErrNegativeDuration)
	}
	if c.Regeneration < 0 {
		return fmt.Errorf("doublejump: regeneration %s: %w", c.Regeneration, ErrNegativeDuration)
	}
	if c.JoinDelay < 0 {
		return fmt.Errorf("doublejump: join delay %s: %w", c.JoinDelay, ErrNegativeDuration)
	}
	return nil
}

// LoadConfig reads and validates a JSON configuration file.
// Comments are allowed.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("doublejump: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates a JSON configuration.
// Keys missing from data keep their DefaultConfig values.
func ParseConfig(data []byte) (Config, error) {
	fc := toFileConfig(DefaultConfig())
	if err := jsonc.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("doublejump: decode config: %w", err)
	}

	cfg, err := fc.config()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileConfig is the on-disk layout of Config.
type fileConfig struct {
	Restrictions struct {
		DisabledGameModes []string   `json:"disabled_game_modes"`
		DisabledWorlds    []string   `json:"disabled_worlds"`
		UsePermission     string     `json:"use_permission"`
		Zones             []fileZone `json:"zones"`
	} `json:"restrictions"`

	Limits struct {
		Enabled      bool        `json:"enabled"`
		Default      int         `json:"default"`
		Permissions  []fileLimit `json:"permissions"`
		Regeneration duration    `json:"regeneration"`
	} `json:"limits"`

	Cooldown duration `json:"cooldown"`
	Streaks  bool     `json:"streaks"`

	Jump struct {
		Multiplier float64 `json:"multiplier"`
		Up         float64 `json:"up"`
	} `json:"jump"`

	Join struct {
		Players   bool     `json:"players"`
		Operators bool     `json:"operators"`
		Delay     duration `json:"delay"`
	} `json:"join"`
}

// fileLimit keeps overrides as an array so their order survives decoding.
type fileLimit struct {
	Permission string `json:"permission"`
	Limit      int    `json:"limit"`
}

type fileZone struct {
	World string     `json:"world"`
	Min   mgl64.Vec3 `json:"min"`
	Max   mgl64.Vec3 `json:"max"`
}

func toFileConfig(c Config) fileConfig {
	var fc fileConfig
	for _, m := range c.DisabledGameModes {
		fc.Restrictions.DisabledGameModes = append(fc.Restrictions.DisabledGameModes, gameModeName(m))
	}
	fc.Restrictions.DisabledWorlds = c.DisabledWorlds
	fc.Restrictions.UsePermission = c.UsePermission
	for _, z := range c.Zones {
		fc.Restrictions.Zones = append(fc.Restrictions.Zones, fileZone{World: z.World, Min: z.Min, Max: z.Max})
	}

	fc.Limits.Enabled = c.Limits.Enabled
	fc.Limits.Default = c.Limits.Default
	for _, l := range c.Limits.Overrides {
		fc.Limits.Permissions = append(fc.Limits.Permissions, fileLimit(l))
	}
	fc.Limits.Regeneration = duration(c.Regeneration)

	fc.Cooldown = duration(c.Cooldown)
	fc.Streaks = c.StreaksEnabled
	fc.Jump.Multiplier = c.JumpMultiplier
	fc.Jump.Up = c.JumpUp
	fc.Join.Players = c.EnableOnJoin
	fc.Join.Operators = c.EnableOnJoinForOperators
	fc.Join.Delay = duration(c.JoinDelay)
	return fc
}

func (fc fileConfig) config() (Config, error) {
	c := Config{
		DisabledWorlds: fc.Restrictions.DisabledWorlds,
		UsePermission:  fc.Restrictions.UsePermission,
		Limits: Limits{
			Enabled: fc.Limits.Enabled,
			Default: fc.Limits.Default,
		},
		Cooldown:                 time.Duration(fc.Cooldown),
		Regeneration:             time.Duration(fc.Limits.Regeneration),
		StreaksEnabled:           fc.Streaks,
		JumpMultiplier:           fc.Jump.Multiplier,
		JumpUp:                   fc.Jump.Up,
		EnableOnJoin:             fc.Join.Players,
		EnableOnJoinForOperators: fc.Join.Operators,
		JoinDelay:                time.Duration(fc.Join.Delay),
	}

	for _, name := range fc.Restrictions.DisabledGameModes {
		mode, err := parseGameMode(name)
		if err != nil {
			return Config{}, err
		}
		c.DisabledGameModes = append(c.DisabledGameModes, mode)
	}
	for _, z := range fc.Restrictions.Zones {
		c.Zones = append(c.Zones, NewZone(z.World, z.Min, z.Max))
	}
	for _, l := range fc.Limits.Permissions {
		c.Limits.Overrides = append(c.Limits.Overrides, Limit(l))
	}
	return c, nil
}

// parseGameMode resolves a game mode by its configuration name.
func parseGameMode(name string) (world.GameMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "survival":
		return world.GameModeSurvival, nil
	case "creative":
		return world.GameModeCreative, nil
	case "adventure":
		return world.GameModeAdventure, nil
	case "spectator":
		return world.GameModeSpectator, nil
	default:
		return nil, fmt.Errorf("doublejump: game mode %q: %w", name, ErrUnknownGameMode)
	}
}

// gameModeName returns the configuration name of a game mode.
func gameModeName(mode world.GameMode) string {
	switch mode {
	case world.GameModeSurvival:
		return "survival"
	case world.GameModeCreative:
		return "creative"
	case world.GameModeAdventure:
		return "adventure"
	case world.GameModeSpectator:
		return "spectator"
	default:
		return "unknown"
	}
}

// duration is a time.Duration written as a string such as "1.5s".
type duration time.Duration

func (d duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}
