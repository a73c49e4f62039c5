package world

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TileData describes one tile kind. Properties carry the collision flag the
// engine reads (by default "ge_collide") and anything else a renderer wants.
type TileData struct {
	Key        string         `yaml:"key"`
	Letter     string         `yaml:"letter"`
	Name       string         `yaml:"name"`
	Color      [3]int         `yaml:"color"`
	Properties map[string]any `yaml:"properties"`
}

// TileConfig is the on-disk shape of a tile definition file.
type TileConfig struct {
	Tiles map[string]TileData `yaml:"tiles"`
}

// TileManager handles tile configuration and lookups by key or map letter
type TileManager struct {
	tileData    map[string]*TileData
	letterToKey map[string]string
}

// NewTileManager creates an empty tile manager
func NewTileManager() *TileManager {
	return &TileManager{
		tileData:    make(map[string]*TileData),
		letterToKey: make(map[string]string),
	}
}

// LoadTileConfig loads tile definitions from a YAML file
func (tm *TileManager) LoadTileConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read tile config file: %w", err)
	}
	return tm.LoadTileData(data)
}

// LoadTileData parses tile definitions from YAML bytes and merges them in.
func (tm *TileManager) LoadTileData(data []byte) error {
	var tileConfig TileConfig
	if err := yaml.Unmarshal(data, &tileConfig); err != nil {
		return fmt.Errorf("failed to parse tile config: %w", err)
	}
	return tm.AddTiles(tileConfig.Tiles)
}

// AddTiles registers tile definitions keyed by tile key. A letter may only be
// used by one key.
func (tm *TileManager) AddTiles(tiles map[string]TileData) error {
	keys := make([]string, 0, len(tiles))
	for key := range tiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		// Make a copy to avoid pointer issues
		tileCopy := tiles[key]
		tileCopy.Key = key
		if len([]rune(tileCopy.Letter)) != 1 {
			return fmt.Errorf("tile %q: letter must be a single character, got %q", key, tileCopy.Letter)
		}
		if tileCopy.Letter == " " || tileCopy.Letter == spawnMarker {
			return fmt.Errorf("tile %q: letter %q is reserved", key, tileCopy.Letter)
		}
		if owner, taken := tm.letterToKey[tileCopy.Letter]; taken && owner != key {
			return fmt.Errorf("tile %q: letter %q already used by %q", key, tileCopy.Letter, owner)
		}
		tm.tileData[key] = &tileCopy
		tm.letterToKey[tileCopy.Letter] = key
	}
	return nil
}

// GetTileDataByKey returns the configuration data for a tile by its string key
func (tm *TileManager) GetTileDataByKey(key string) *TileData {
	return tm.tileData[key]
}

// GetTileDataFromLetter returns the tile drawn with the given map letter
func (tm *TileManager) GetTileDataFromLetter(letter string) (*TileData, bool) {
	key, ok := tm.letterToKey[letter]
	if !ok {
		return nil, false
	}
	return tm.tileData[key], true
}

// HasTileKey checks if a tile key exists in the loaded configuration
func (tm *TileManager) HasTileKey(key string) bool {
	_, exists := tm.tileData[key]
	return exists
}

// GetAllTileKeys returns all tile keys in sorted order
func (tm *TileManager) GetAllTileKeys() []string {
	keys := make([]string, 0, len(tm.tileData))
	for key := range tm.tileData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Property returns a tile property by tile key
func (tm *TileManager) Property(key, name string) (any, bool) {
	data, ok := tm.tileData[key]
	if !ok || data.Properties == nil {
		return nil, false
	}
	v, ok := data.Properties[name]
	return v, ok
}

// SetTileProperty allows dynamic modification of tile properties at runtime
func (tm *TileManager) SetTileProperty(key, name string, value any) error {
	data, ok := tm.tileData[key]
	if !ok {
		return fmt.Errorf("unknown tile key: %s", key)
	}
	if data.Properties == nil {
		data.Properties = make(map[string]any)
	}
	data.Properties[name] = value
	return nil
}
