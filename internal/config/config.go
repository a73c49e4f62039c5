package config

import (
	"fmt"
	"os"
	"strings"

	"gridwalk/internal/direction"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/tilemap"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCollisionGroup = "geDefault"
	DefaultSpeed          = 4.0
)

// Config holds all viewer and engine configuration values
type Config struct {
	Display    DisplayConfig     `yaml:"display"`
	Engine     EngineConfig      `yaml:"engine"`
	Map        MapConfig         `yaml:"map"`
	Logging    LoggingConfig     `yaml:"logging"`
	Characters []CharacterConfig `yaml:"characters"`
}

type DisplayConfig struct {
	ScreenWidth   int    `yaml:"screen_width"`
	ScreenHeight  int    `yaml:"screen_height"`
	WindowTitle   string `yaml:"window_title"`
	Resizable     bool   `yaml:"resizable"`
	TileSize      int    `yaml:"tile_size"` // pixels per tile
	TPS           int    `yaml:"tps"`
	EventLogLines int    `yaml:"event_log_lines"`
}

// EngineConfig is the explicit configuration threaded through the engine,
// its tilemap and the movement strategies.
type EngineConfig struct {
	CollisionTilePropertyName  string  `yaml:"collision_tile_property_name"`
	NumberOfDirections         int     `yaml:"number_of_directions"`
	Isometric                  bool    `yaml:"isometric"`
	CharacterCollisionStrategy string  `yaml:"character_collision_strategy"`
	DefaultCollisionGroup      string  `yaml:"default_collision_group"`
	DefaultSpeed               float64 `yaml:"default_speed"` // tiles per second
}

type MapConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CharacterConfig registers a character at startup.
type CharacterConfig struct {
	ID                string          `yaml:"id"`
	Start             mathutil.Vec2   `yaml:"start"`
	Layer             string          `yaml:"layer"`
	Speed             float64         `yaml:"speed"`
	Facing            string          `yaml:"facing"`
	CollisionGroups   []string        `yaml:"collision_groups"`
	CollidesWithTiles *bool           `yaml:"collides_with_tiles"` // default true
	Color             [3]int          `yaml:"color"`
	Movement          *MovementConfig `yaml:"movement"`
}

// MovementConfig attaches a movement strategy. Type is "random", "move_to" or
// "follow". Policy strings are checked by the engine, which falls back to its
// defaults with a warning.
type MovementConfig struct {
	Type string `yaml:"type"`

	// random
	DelayMs float64 `yaml:"delay_ms"`
	Radius  *int    `yaml:"radius"` // default unbounded

	// move_to
	Target                   mathutil.Vec2 `yaml:"target"`
	TargetLayer              string        `yaml:"target_layer"`
	PathBlockedStrategy      string        `yaml:"path_blocked_strategy"`
	RetryBackoffMs           float64       `yaml:"retry_backoff_ms"`
	MaxRetries               *int          `yaml:"max_retries"` // default unbounded
	PathBlockedWaitTimeoutMs float64       `yaml:"path_blocked_wait_timeout_ms"`

	// move_to and follow
	Distance            int    `yaml:"distance"`
	NoPathFoundStrategy string `yaml:"no_path_found_strategy"`

	// follow
	Follow string `yaml:"follow"`
}

const (
	MovementRandom = "random"
	MovementMoveTo = "move_to"
	MovementFollow = "follow"
)

// LoadConfig loads the configuration from a YAML file, fills defaults and
// validates it.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration YAML.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.Display.ScreenWidth == 0 {
		c.Display.ScreenWidth = 960
	}
	if c.Display.ScreenHeight == 0 {
		c.Display.ScreenHeight = 640
	}
	if c.Display.WindowTitle == "" {
		c.Display.WindowTitle = "gridwalk"
	}
	if c.Display.TileSize == 0 {
		c.Display.TileSize = 32
	}
	if c.Display.TPS == 0 {
		c.Display.TPS = 60
	}
	if c.Display.EventLogLines == 0 {
		c.Display.EventLogLines = 8
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Engine.ApplyDefaults()
}

// ApplyDefaults fills unset engine values.
func (e *EngineConfig) ApplyDefaults() {
	if e.CollisionTilePropertyName == "" {
		e.CollisionTilePropertyName = tilemap.DefaultCollisionTilePropertyName
	}
	if e.NumberOfDirections == 0 {
		e.NumberOfDirections = int(direction.Four)
	}
	if e.CharacterCollisionStrategy == "" {
		e.CharacterCollisionStrategy = string(tilemap.BlockTwoTiles)
	}
	if e.DefaultCollisionGroup == "" {
		e.DefaultCollisionGroup = DefaultCollisionGroup
	}
	if e.DefaultSpeed == 0 {
		e.DefaultSpeed = DefaultSpeed
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Display.TileSize < 1 {
		return fmt.Errorf("display.tile_size must be positive")
	}

	ids := make(map[string]bool, len(c.Characters))
	for i, ch := range c.Characters {
		if ch.ID == "" {
			return fmt.Errorf("character %d has no id", i)
		}
		if ids[ch.ID] {
			return fmt.Errorf("duplicate character id %q", ch.ID)
		}
		ids[ch.ID] = true
		if ch.Speed < 0 {
			return fmt.Errorf("character %q: speed must not be negative", ch.ID)
		}
		if ch.Facing != "" {
			if _, err := direction.Parse(ch.Facing); err != nil {
				return fmt.Errorf("character %q: %w", ch.ID, err)
			}
		}
	}

	for _, ch := range c.Characters {
		if ch.Movement == nil {
			continue
		}
		switch strings.ToLower(ch.Movement.Type) {
		case MovementRandom, MovementMoveTo:
		case MovementFollow:
			if !ids[ch.Movement.Follow] {
				return fmt.Errorf("character %q follows unknown character %q", ch.ID, ch.Movement.Follow)
			}
			if ch.Movement.Follow == ch.ID {
				return fmt.Errorf("character %q cannot follow itself", ch.ID)
			}
		default:
			return fmt.Errorf("character %q: unknown movement type %q", ch.ID, ch.Movement.Type)
		}
	}
	return nil
}

// Validate checks the direction count and collision strategy.
func (e *EngineConfig) Validate() error {
	if _, err := direction.ParseNumberOfDirections(e.NumberOfDirections); err != nil {
		return err
	}
	if _, err := tilemap.ParseCollisionStrategy(e.CharacterCollisionStrategy); err != nil {
		return err
	}
	if e.DefaultSpeed < 0 {
		return fmt.Errorf("default_speed must not be negative")
	}
	return nil
}

// Mode returns the directional mode of the engine.
func (e EngineConfig) Mode() direction.Mode {
	return direction.Mode{
		Directions: direction.NumberOfDirections(e.NumberOfDirections),
		Isometric:  e.Isometric,
	}
}

// Helper functions for easy access to commonly used values
func (c *Config) GetScreenWidth() int {
	return c.Display.ScreenWidth
}

func (c *Config) GetScreenHeight() int {
	return c.Display.ScreenHeight
}

func (c *Config) GetTileSize() float64 {
	return float64(c.Display.TileSize)
}

func (c *Config) GetTPS() int {
	return c.Display.TPS
}

func (c *Config) GetMapPath() string {
	return c.Map.Path
}

func (c *Config) GetLogLevel() string {
	return c.Logging.Level
}

// GetCharacter returns the configuration of a character by id.
func (c *Config) GetCharacter(id string) (*CharacterConfig, bool) {
	for i := range c.Characters {
		if c.Characters[i].ID == id {
			return &c.Characters[i], true
		}
	}
	return nil, false
}

// CollidesWithTilesOrDefault reports the configured flag, true when unset.
func (ch CharacterConfig) CollidesWithTilesOrDefault() bool {
	return ch.CollidesWithTiles == nil || *ch.CollidesWithTiles
}
