package viewer

import (
	"image/color"
	"testing"

	"gridwalk/internal/direction"
	"gridwalk/internal/mathutil"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
)

func held(keys ...ebiten.Key) KeyState {
	return func(k ebiten.Key) bool {
		for _, key := range keys {
			if key == k {
				return true
			}
		}
		return false
	}
}

func TestDirectionFromKeys(t *testing.T) {
	four := direction.Mode{Directions: direction.Four}
	eight := direction.Mode{Directions: direction.Eight}
	iso := direction.Mode{Directions: direction.Four, Isometric: true}

	tests := []struct {
		name string
		keys []ebiten.Key
		mode direction.Mode
		want direction.Direction
	}{
		{"nothing", nil, four, direction.None},
		{"arrow", []ebiten.Key{ebiten.KeyUp}, four, direction.Up},
		{"wasd", []ebiten.Key{ebiten.KeyA}, four, direction.Left},
		{"opposites cancel", []ebiten.Key{ebiten.KeyLeft, ebiten.KeyRight}, four, direction.None},
		{"two cardinals in four", []ebiten.Key{ebiten.KeyUp, ebiten.KeyRight}, four, direction.Right},
		{"two cardinals in eight", []ebiten.Key{ebiten.KeyUp, ebiten.KeyRight}, eight, direction.UpRight},
		{"diagonal key in eight", []ebiten.Key{ebiten.KeyZ}, eight, direction.DownLeft},
		{"diagonal key in four", []ebiten.Key{ebiten.KeyZ}, four, direction.None},
		{"diagonal key isometric", []ebiten.Key{ebiten.KeyE}, iso, direction.UpRight},
		{"cardinal isometric", []ebiten.Key{ebiten.KeyUp}, iso, direction.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DirectionFromKeys(held(tt.keys...), tt.mode))
		})
	}
}

func TestOrthogonalProjection(t *testing.T) {
	p := Projection{OriginX: 10, OriginY: 20, TileSize: 32}

	x, y := p.TileCenter(0, 0)
	assert.Equal(t, 26.0, x)
	assert.Equal(t, 36.0, y)

	assert.Equal(t, mathutil.V(0, 0), p.ScreenToTile(10, 20))
	assert.Equal(t, mathutil.V(2, 1), p.ScreenToTile(10+70, 20+40))
	assert.Equal(t, mathutil.V(-1, 0), p.ScreenToTile(5, 25))
}

func TestIsometricProjectionRoundTrip(t *testing.T) {
	p := Projection{OriginX: 200, OriginY: 50, TileSize: 64, Isometric: true}

	for _, tile := range []mathutil.Vec2{mathutil.V(0, 0), mathutil.V(3, 1), mathutil.V(1, 4), mathutil.V(5, 5)} {
		cx, cy := p.TileCenter(float64(tile.X), float64(tile.Y))
		assert.Equal(t, tile, p.ScreenToTile(cx, cy), "tile %s", tile)
	}

	x, y := p.TileCenter(1, 0)
	assert.Equal(t, 232.0, x)
	assert.Equal(t, 82.0, y)
}

func TestLerp(t *testing.T) {
	x, y := Lerp(mathutil.V(1, 1), mathutil.V(2, 0), 0.25)
	assert.InDelta(t, 1.25, x, 1e-9)
	assert.InDelta(t, 0.75, y, 1e-9)
}

func TestTruncateAndLighten(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc~", truncate("abcdef", 4))

	c := lighten(floorColor, 250)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, floorColor.A, c.A)
}

func TestTileColor(t *testing.T) {
	assert.Equal(t, floorColor, tileColor([3]int{}, false))
	assert.Equal(t, wallColor, tileColor([3]int{}, true))
	assert.Equal(t, rgb([3]int{40, 90, 160}), tileColor([3]int{40, 90, 160}, false))
	assert.Equal(t, color.RGBA{28, 63, 112, 255}, tileColor([3]int{40, 90, 160}, true))
}
