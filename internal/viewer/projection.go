package viewer

import (
	"math"

	"gridwalk/internal/mathutil"
)

// Projection maps tile coordinates to screen pixels. Isometric maps use a
// 2:1 diamond with the top corner of tile (0,0) at the origin.
type Projection struct {
	OriginX, OriginY float64
	TileSize         float64
	Isometric        bool
}

// TileCenter returns the screen position of the center of a (possibly
// fractional) tile coordinate.
func (p Projection) TileCenter(x, y float64) (float64, float64) {
	if p.Isometric {
		half := p.TileSize / 2
		quarter := p.TileSize / 4
		return p.OriginX + (x-y)*half, p.OriginY + (x+y)*quarter + quarter
	}
	return p.OriginX + (x+0.5)*p.TileSize, p.OriginY + (y+0.5)*p.TileSize
}

// ScreenToTile returns the tile under a screen position.
func (p Projection) ScreenToTile(sx, sy float64) mathutil.Vec2 {
	if p.Isometric {
		u := (sx - p.OriginX) / (p.TileSize / 2)
		v := (sy - p.OriginY) / (p.TileSize / 4)
		return mathutil.V(int(math.Floor((v+u)/2)), int(math.Floor((v-u)/2)))
	}
	return mathutil.V(
		int(math.Floor((sx-p.OriginX)/p.TileSize)),
		int(math.Floor((sy-p.OriginY)/p.TileSize)),
	)
}

// Lerp interpolates between two tiles by progress in [0, 1].
func Lerp(from, to mathutil.Vec2, progress float64) (float64, float64) {
	return float64(from.X) + float64(to.X-from.X)*progress,
		float64(from.Y) + float64(to.Y-from.Y)*progress
}
