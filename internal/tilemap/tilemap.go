package tilemap

import (
	"fmt"
	"sort"

	"gridwalk/internal/mathutil"
)

// LayerPosition is a tile coordinate on a map layer. The empty layer means the
// position is not bound to a layer; static blocking is then checked against
// every map layer.
type LayerPosition struct {
	Position mathutil.Vec2
	Layer    string
}

// At is shorthand for a LayerPosition literal.
func At(x, y int, layer string) LayerPosition {
	return LayerPosition{Position: mathutil.V(x, y), Layer: layer}
}

func (p LayerPosition) String() string {
	if p.Layer == "" {
		return p.Position.String()
	}
	return fmt.Sprintf("%s@%s", p.Position, p.Layer)
}

// Tiles is the map-data collaborator: it supplies map bounds, layers and tile
// properties. *world.MapData implements it.
type Tiles interface {
	GetWidth() int
	GetHeight() int
	LayerNames() []string
	HasTile(layer string, pos mathutil.Vec2) bool
	TileProperty(layer string, pos mathutil.Vec2, name string) (any, bool)
}

// Occupant is anything that can stand on a tile and block others.
type Occupant interface {
	ID() string
	CollisionGroups() []string
}

// CollisionStrategy decides which tiles a walking character blocks.
type CollisionStrategy string

const (
	// BlockTwoTiles blocks both the tile being left and the tile being entered
	// until the move commits.
	BlockTwoTiles CollisionStrategy = "BLOCK_TWO_TILES"
	// BlockOneTileAhead frees the tile being left as soon as the move starts.
	BlockOneTileAhead CollisionStrategy = "BLOCK_ONE_TILE_AHEAD"
)

// ParseCollisionStrategy validates a configured collision strategy.
func ParseCollisionStrategy(s string) (CollisionStrategy, error) {
	switch CollisionStrategy(s) {
	case "":
		return BlockTwoTiles, nil
	case BlockTwoTiles, BlockOneTileAhead:
		return CollisionStrategy(s), nil
	}
	return "", fmt.Errorf("unknown character collision strategy %q", s)
}

// Options configure a GridTilemap.
type Options struct {
	CollisionTilePropertyName string
	CollisionStrategy         CollisionStrategy
}

const DefaultCollisionTilePropertyName = "ge_collide"

// GridTilemap is the occupancy map: which occupants stand on which tile of
// which layer, plus static blocking and layer transitions. Occupancy is only
// changed through Reserve, Vacate and RemoveOccupant.
type GridTilemap struct {
	tiles             Tiles
	collisionProperty string
	strategy          CollisionStrategy

	occupants   map[LayerPosition]map[string]Occupant
	held        map[string]map[LayerPosition]bool // reverse index for purging
	transitions map[mathutil.Vec2]map[string]string
}

// NewGridTilemap wraps map data with an empty occupancy map. Transitions from
// the map data are registered by the caller with SetTransition.
func NewGridTilemap(tiles Tiles, opts Options) *GridTilemap {
	if opts.CollisionTilePropertyName == "" {
		opts.CollisionTilePropertyName = DefaultCollisionTilePropertyName
	}
	if opts.CollisionStrategy == "" {
		opts.CollisionStrategy = BlockTwoTiles
	}
	return &GridTilemap{
		tiles:             tiles,
		collisionProperty: opts.CollisionTilePropertyName,
		strategy:          opts.CollisionStrategy,
		occupants:         make(map[LayerPosition]map[string]Occupant),
		held:              make(map[string]map[LayerPosition]bool),
		transitions:       make(map[mathutil.Vec2]map[string]string),
	}
}

func (gt *GridTilemap) CollisionStrategy() CollisionStrategy {
	return gt.strategy
}

func (gt *GridTilemap) Width() int {
	return gt.tiles.GetWidth()
}

func (gt *GridTilemap) Height() int {
	return gt.tiles.GetHeight()
}

// Reserve marks o as standing on pos.
func (gt *GridTilemap) Reserve(o Occupant, pos LayerPosition) {
	set, ok := gt.occupants[pos]
	if !ok {
		set = make(map[string]Occupant)
		gt.occupants[pos] = set
	}
	set[o.ID()] = o

	held, ok := gt.held[o.ID()]
	if !ok {
		held = make(map[LayerPosition]bool)
		gt.held[o.ID()] = held
	}
	held[pos] = true
}

// Vacate removes o from pos. Vacating a tile o does not hold is a no-op.
func (gt *GridTilemap) Vacate(o Occupant, pos LayerPosition) {
	gt.vacate(o.ID(), pos)
}

func (gt *GridTilemap) vacate(id string, pos LayerPosition) {
	if set, ok := gt.occupants[pos]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(gt.occupants, pos)
		}
	}
	if held, ok := gt.held[id]; ok {
		delete(held, pos)
		if len(held) == 0 {
			delete(gt.held, id)
		}
	}
}

// RemoveOccupant releases every tile held by id.
func (gt *GridTilemap) RemoveOccupant(id string) {
	for pos := range gt.held[id] {
		gt.vacate(id, pos)
	}
}

// OccupantsAt returns the ids standing on pos in sorted order.
func (gt *GridTilemap) OccupantsAt(pos LayerPosition) []string {
	set := gt.occupants[pos]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HeldBy returns the positions id currently holds.
func (gt *GridTilemap) HeldBy(id string) []LayerPosition {
	positions := make([]LayerPosition, 0, len(gt.held[id]))
	for pos := range gt.held[id] {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		return a.Position.X < b.Position.X
	})
	return positions
}

// IsBlocking reports whether pos is blocked for a mover with the given
// collision groups. ignoreID excludes the mover itself; ignoreTiles skips static
// tile blocking for characters that do not collide with tiles. Map bounds and
// missing tiles always block.
func (gt *GridTilemap) IsBlocking(pos LayerPosition, collisionGroups []string, ignoreID string, ignoreTiles bool) bool {
	if gt.HasNoTile(pos) {
		return true
	}
	if !ignoreTiles && gt.HasBlockingTile(pos) {
		return true
	}
	return gt.HasBlockingChar(pos, collisionGroups, ignoreID)
}

// HasNoTile reports whether pos is outside the map or has no tile on its
// layer (on any layer for the empty layer).
func (gt *GridTilemap) HasNoTile(pos LayerPosition) bool {
	p := pos.Position
	if p.X < 0 || p.Y < 0 || p.X >= gt.tiles.GetWidth() || p.Y >= gt.tiles.GetHeight() {
		return true
	}
	for _, layer := range gt.relevantLayers(pos.Layer) {
		if gt.tiles.HasTile(layer, p) {
			return false
		}
	}
	return true
}

// HasBlockingTile reports whether a tile at pos carries the collision property.
func (gt *GridTilemap) HasBlockingTile(pos LayerPosition) bool {
	for _, layer := range gt.relevantLayers(pos.Layer) {
		v, ok := gt.tiles.TileProperty(layer, pos.Position, gt.collisionProperty)
		if ok && truthy(v) {
			return true
		}
	}
	return false
}

// HasBlockingChar reports whether an occupant other than ignoreID shares a
// collision group with collisionGroups on pos.
func (gt *GridTilemap) HasBlockingChar(pos LayerPosition, collisionGroups []string, ignoreID string) bool {
	if len(collisionGroups) == 0 {
		return false
	}
	for id, o := range gt.occupants[pos] {
		if id == ignoreID {
			continue
		}
		if sharesGroup(o.CollisionGroups(), collisionGroups) {
			return true
		}
	}
	return false
}

// SetTransition makes characters entering pos on layer from continue on layer to.
func (gt *GridTilemap) SetTransition(pos mathutil.Vec2, from, to string) {
	byLayer, ok := gt.transitions[pos]
	if !ok {
		byLayer = make(map[string]string)
		gt.transitions[pos] = byLayer
	}
	byLayer[from] = to
}

// GetTransition returns the layer a character entering pos from layer from
// ends up on.
func (gt *GridTilemap) GetTransition(pos mathutil.Vec2, from string) (string, bool) {
	to, ok := gt.transitions[pos][from]
	return to, ok
}

// LayerAfterEntering returns the layer of a character entering pos from layer.
func (gt *GridTilemap) LayerAfterEntering(pos mathutil.Vec2, layer string) string {
	if to, ok := gt.GetTransition(pos, layer); ok {
		return to
	}
	return layer
}

func (gt *GridTilemap) relevantLayers(layer string) []string {
	if layer == "" {
		return gt.tiles.LayerNames()
	}
	return []string{layer}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	case int:
		return val != 0
	}
	return false
}

func sharesGroup(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
