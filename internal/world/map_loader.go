package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gridwalk/internal/mathutil"

	"gopkg.in/yaml.v3"
)

const (
	spawnMarker = "@"

	OrientationOrthogonal = "orthogonal"
	OrientationIsometric  = "isometric"
)

// MapFile is the on-disk shape of a map.
type MapFile struct {
	Name        string              `yaml:"name"`
	Orientation string              `yaml:"orientation"`
	TileWidth   int                 `yaml:"tile_width"`
	TileHeight  int                 `yaml:"tile_height"`
	TileConfig  string              `yaml:"tile_config"` // relative to the map file
	SpawnTile   string              `yaml:"spawn_tile"`  // letter placed under '@', default "."
	Tiles       map[string]TileData `yaml:"tiles"`
	Layers      []LayerFile         `yaml:"layers"`
	Transitions []TransitionData    `yaml:"transitions"`
}

// LayerFile is one layer of rows. Every rune is a tile letter; a space means
// "no tile" and '@' marks a character spawn resolved by the trailing
// "  >[char:id]" definitions on the same row.
type LayerFile struct {
	Name string   `yaml:"name"`
	Rows []string `yaml:"rows"`
}

// TransitionData moves characters entering (X, Y) on layer From to layer To.
type TransitionData struct {
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CharacterSpawn is a spawn point placed in a map layer
type CharacterSpawn struct {
	CharID   string
	Position mathutil.Vec2
	Layer    string
}

// LayerData holds the resolved tiles of one layer. A nil entry means no tile.
type LayerData struct {
	Name  string
	Tiles [][]*TileData
}

// MapData contains the loaded map information
type MapData struct {
	Name        string
	Width       int
	Height      int
	Orientation string
	TileWidth   int
	TileHeight  int
	Layers      []*LayerData
	Transitions []TransitionData
	Spawns      []CharacterSpawn
	TileManager *TileManager
}

// MapLoader handles loading world maps from files
type MapLoader struct {
	tiles *TileManager
}

// NewMapLoader creates a map loader. Tile definitions found in map files are
// merged into tm.
func NewMapLoader(tm *TileManager) *MapLoader {
	if tm == nil {
		tm = NewTileManager()
	}
	return &MapLoader{tiles: tm}
}

// LoadMap loads a map from the specified file path
func (ml *MapLoader) LoadMap(mapPath string) (*MapData, error) {
	data, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file %s: %w", mapPath, err)
	}
	mapData, err := ml.ParseMap(data, filepath.Dir(mapPath))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", mapPath, err)
	}
	return mapData, nil
}

// ParseMap parses map YAML. baseDir resolves a referenced tile_config file.
func (ml *MapLoader) ParseMap(data []byte, baseDir string) (*MapData, error) {
	var file MapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse map: %w", err)
	}

	if file.TileConfig != "" {
		if err := ml.tiles.LoadTileConfig(filepath.Join(baseDir, file.TileConfig)); err != nil {
			return nil, err
		}
	}
	if err := ml.tiles.AddTiles(file.Tiles); err != nil {
		return nil, err
	}

	if len(file.Layers) == 0 {
		return nil, fmt.Errorf("map contains no layers")
	}

	orientation := strings.ToLower(file.Orientation)
	switch orientation {
	case "":
		orientation = OrientationOrthogonal
	case OrientationOrthogonal, OrientationIsometric:
	default:
		return nil, fmt.Errorf("unknown orientation %q", file.Orientation)
	}

	spawnLetter := file.SpawnTile
	if spawnLetter == "" {
		spawnLetter = "."
	}

	mapData := &MapData{
		Name:        file.Name,
		Orientation: orientation,
		TileWidth:   file.TileWidth,
		TileHeight:  file.TileHeight,
		Transitions: file.Transitions,
		TileManager: ml.tiles,
	}

	seen := make(map[string]bool)
	for _, layer := range file.Layers {
		if seen[layer.Name] {
			return nil, fmt.Errorf("duplicate layer %q", layer.Name)
		}
		seen[layer.Name] = true

		parsed, spawns, err := ml.parseLayer(layer, spawnLetter)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", layer.Name, err)
		}
		height := len(parsed.Tiles)
		width := 0
		if height > 0 {
			width = len(parsed.Tiles[0])
		}
		if mapData.Width == 0 && mapData.Height == 0 {
			mapData.Width, mapData.Height = width, height
		} else if width != mapData.Width || height != mapData.Height {
			return nil, fmt.Errorf("layer %q is %dx%d, expected %dx%d", layer.Name, width, height, mapData.Width, mapData.Height)
		}
		mapData.Layers = append(mapData.Layers, parsed)
		mapData.Spawns = append(mapData.Spawns, spawns...)
	}

	if mapData.Width == 0 || mapData.Height == 0 {
		return nil, fmt.Errorf("map contains no valid map data")
	}

	for i, tr := range mapData.Transitions {
		if !mapData.inBounds(mathutil.V(tr.X, tr.Y)) {
			return nil, fmt.Errorf("transition %d at (%d,%d) is outside the map", i, tr.X, tr.Y)
		}
		if tr.To == "" {
			return nil, fmt.Errorf("transition %d at (%d,%d) has no target layer", i, tr.X, tr.Y)
		}
	}

	return mapData, nil
}

func (ml *MapLoader) parseLayer(layer LayerFile, spawnLetter string) (*LayerData, []CharacterSpawn, error) {
	parsed := &LayerData{Name: layer.Name}
	var spawns []CharacterSpawn
	width := -1

	for y, line := range layer.Rows {
		tilesPart, defs := splitDefinitions(line)
		row := []rune(tilesPart)
		if width == -1 {
			width = len(row)
		} else if len(row) != width {
			return nil, nil, fmt.Errorf("line %d has inconsistent width: expected %d, got %d", y+1, width, len(row))
		}

		tiles := make([]*TileData, len(row))
		spawnIndex := 0
		for x, r := range row {
			letter := string(r)
			switch letter {
			case " ":
				continue
			case spawnMarker:
				if spawnIndex >= len(defs) {
					return nil, nil, fmt.Errorf("line %d: spawn marker at column %d has no [char:id] definition", y+1, x+1)
				}
				spawns = append(spawns, CharacterSpawn{
					CharID:   defs[spawnIndex],
					Position: mathutil.V(x, y),
					Layer:    layer.Name,
				})
				spawnIndex++
				letter = spawnLetter
			}
			data, ok := ml.tiles.GetTileDataFromLetter(letter)
			if !ok {
				return nil, nil, fmt.Errorf("line %d: unknown tile letter %q at column %d", y+1, letter, x+1)
			}
			tiles[x] = data
		}
		if spawnIndex < len(defs) {
			return nil, nil, fmt.Errorf("line %d: %d character definitions but %d spawn markers", y+1, len(defs), spawnIndex)
		}
		parsed.Tiles = append(parsed.Tiles, tiles)
	}
	return parsed, spawns, nil
}

// splitDefinitions separates a row into its tile letters and the character ids
// listed after "  >", e.g. "..@..  >[char:npc]".
func splitDefinitions(line string) (string, []string) {
	sepIndex := strings.Index(line, "  >")
	if sepIndex == -1 {
		return line, nil
	}
	var ids []string
	for _, def := range strings.Split(line[sepIndex+3:], ",") {
		def = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(def), ">"))
		if strings.HasPrefix(def, "[char:") && strings.HasSuffix(def, "]") {
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(def, "[char:"), "]"))
		}
	}
	return line[:sepIndex], ids
}

// IsIsometric reports whether the map uses isometric orientation.
func (m *MapData) IsIsometric() bool {
	return m.Orientation == OrientationIsometric
}

// LayerNames returns layer names bottom to top.
func (m *MapData) LayerNames() []string {
	names := make([]string, len(m.Layers))
	for i, l := range m.Layers {
		names[i] = l.Name
	}
	return names
}

// TileAt returns the tile on layer at pos, or nil.
func (m *MapData) TileAt(layer string, pos mathutil.Vec2) *TileData {
	if !m.inBounds(pos) {
		return nil
	}
	for _, l := range m.Layers {
		if l.Name == layer {
			return l.Tiles[pos.Y][pos.X]
		}
	}
	return nil
}

// HasTile reports whether layer has a tile at pos.
func (m *MapData) HasTile(layer string, pos mathutil.Vec2) bool {
	return m.TileAt(layer, pos) != nil
}

// TileProperty looks up a property of the tile on layer at pos.
func (m *MapData) TileProperty(layer string, pos mathutil.Vec2, name string) (any, bool) {
	tile := m.TileAt(layer, pos)
	if tile == nil || tile.Properties == nil {
		return nil, false
	}
	v, ok := tile.Properties[name]
	return v, ok
}

// ForEachTransition calls fn for every transition declared in the map file.
func (m *MapData) ForEachTransition(fn func(pos mathutil.Vec2, from, to string)) {
	for _, tr := range m.Transitions {
		fn(mathutil.V(tr.X, tr.Y), tr.From, tr.To)
	}
}

func (m *MapData) GetWidth() int  { return m.Width }
func (m *MapData) GetHeight() int { return m.Height }

func (m *MapData) inBounds(pos mathutil.Vec2) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < m.Width && pos.Y < m.Height
}
