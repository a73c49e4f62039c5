// Package testutil builds small maps for engine tests.
package testutil

import (
	"testing"

	"gridwalk/internal/tilemap"
	"gridwalk/internal/world"

	"gopkg.in/yaml.v3"
)

// Layer is one named layer of a test map. Rows use '.' for floor, '#' for a
// colliding wall and ' ' for no tile.
type Layer struct {
	Name string
	Rows []string
}

var testTiles = map[string]world.TileData{
	"floor":  {Letter: "."},
	"wall":   {Letter: "#", Properties: map[string]any{"ge_collide": true}},
	"stairs": {Letter: "S"},
}

// Map parses a single-layer map named "ground".
func Map(t testing.TB, rows ...string) *world.MapData {
	t.Helper()
	return Layers(t, Layer{Name: "ground", Rows: rows})
}

// Layers parses a map from the given layers through the real map loader.
func Layers(t testing.TB, layers ...Layer) *world.MapData {
	t.Helper()
	file := world.MapFile{
		Name:  "test",
		Tiles: testTiles,
	}
	for _, l := range layers {
		file.Layers = append(file.Layers, world.LayerFile{Name: l.Name, Rows: l.Rows})
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		t.Fatalf("marshal test map: %v", err)
	}
	mapData, err := world.NewMapLoader(nil).ParseMap(data, ".")
	if err != nil {
		t.Fatalf("parse test map: %v", err)
	}
	return mapData
}

// Tilemap wraps a single-layer test map in a GridTilemap with default options.
func Tilemap(t testing.TB, rows ...string) *tilemap.GridTilemap {
	t.Helper()
	return tilemap.NewGridTilemap(Map(t, rows...), tilemap.Options{})
}
