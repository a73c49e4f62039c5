package viewer

import (
	"fmt"
	"image/color"
	"strings"

	"gridwalk/internal/character"
	"gridwalk/internal/tilemap"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	ebitext "github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	backgroundColor = color.RGBA{15, 15, 22, 255}
	panelColor      = color.RGBA{18, 18, 26, 255}
	borderColor     = color.RGBA{70, 70, 90, 255}
	floorColor      = color.RGBA{60, 70, 60, 255}
	wallColor       = color.RGBA{50, 50, 60, 255}
	labelColor      = color.RGBA{230, 230, 230, 255}
	dimColor        = color.RGBA{150, 150, 170, 255}
)

func (v *Viewer) drawMap(screen *ebiten.Image) {
	m := v.scene.Map
	p := v.projection()
	collide := v.cfg.Engine.CollisionTilePropertyName

	for li, layer := range m.Layers {
		for y, row := range layer.Tiles {
			for x, tile := range row {
				if tile == nil {
					continue
				}
				blocking, _ := tile.Properties[collide].(bool)
				clr := tileColor(tile.Color, blocking)
				// Upper layers are drawn lighter.
				clr = lighten(clr, li*25)
				drawTile(screen, p, x, y, clr)
			}
		}
	}
}

func drawTile(screen *ebiten.Image, p Projection, x, y int, clr color.RGBA) {
	cx, cy := p.TileCenter(float64(x), float64(y))
	if !p.Isometric {
		size := float32(p.TileSize - 1)
		vector.DrawFilledRect(screen, float32(cx-p.TileSize/2), float32(cy-p.TileSize/2), size, size, clr, false)
		return
	}

	half := float32(p.TileSize / 2)
	quarter := float32(p.TileSize / 4)
	var path vector.Path
	path.MoveTo(float32(cx), float32(cy)-quarter)
	path.LineTo(float32(cx)+half, float32(cy))
	path.LineTo(float32(cx), float32(cy)+quarter)
	path.LineTo(float32(cx)-half, float32(cy))
	path.Close()

	vertices, indices := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, g, b, a := clr.RGBA()
	for i := range vertices {
		vertices[i].SrcX, vertices[i].SrcY = 1, 1
		vertices[i].ColorR = float32(r) / 0xffff
		vertices[i].ColorG = float32(g) / 0xffff
		vertices[i].ColorB = float32(b) / 0xffff
		vertices[i].ColorA = float32(a) / 0xffff
	}
	screen.DrawTriangles(vertices, indices, whitePixel(), &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

var whiteImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.White)
	}
	return whiteImage
}

// drawReservations outlines the tiles every character holds in the occupancy
// map.
func (v *Viewer) drawReservations(screen *ebiten.Image) {
	p := v.projection()
	e := v.scene.Engine
	for _, id := range e.GetAllCharacters() {
		held, err := e.GetReservedTiles(id)
		if err != nil {
			continue
		}
		for _, pos := range held {
			drawTileOutline(screen, p, pos.Position.X, pos.Position.Y, rgb(v.scene.Color(id)))
		}
	}
}

func drawTileOutline(screen *ebiten.Image, p Projection, x, y int, clr color.RGBA) {
	fx, fy := float64(x), float64(y)
	corners := [4][2]float64{{fx - 0.5, fy - 0.5}, {fx + 0.5, fy - 0.5}, {fx + 0.5, fy + 0.5}, {fx - 0.5, fy + 0.5}}
	for i, c := range corners {
		n := corners[(i+1)%len(corners)]
		x0, y0 := p.TileCenter(c[0], c[1])
		x1, y1 := p.TileCenter(n[0], n[1])
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, clr, true)
	}
}

func (v *Viewer) drawCharacters(screen *ebiten.Image) {
	p := v.projection()
	e := v.scene.Engine
	radius := float32(p.TileSize) * 0.35
	if p.Isometric {
		radius = float32(p.TileSize) * 0.18
	}

	if v.showStats {
		v.drawReservations(screen)
	}
	for _, id := range e.GetAllCharacters() {
		pos, err := e.GetPosition(id)
		if err != nil {
			continue
		}
		next, _ := e.GetNextPosition(id)
		progress, _ := e.GetMovementProgress(id)
		facing, _ := e.GetFacingDirection(id)

		x, y := Lerp(pos, next.Position, progress)
		cx, cy := p.TileCenter(x, y)
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), radius, rgb(v.scene.Color(id)), true)

		v.drawFoot(screen, cx, cy, radius, v.phases[id])

		// Facing marker.
		fv := e.Mode().ToMap(facing).Vector()
		fx, fy := p.TileCenter(x+float64(fv.X)*0.3, y+float64(fv.Y)*0.3)
		vector.StrokeLine(screen, float32(cx), float32(cy), float32(fx), float32(fy), 2, labelColor, true)

		ebitext.Draw(screen, id, basicfont.Face7x13, int(cx)-len(id)*7/2, int(cy-float64(radius))-4, labelColor)
	}
}

// drawFoot shows the walking phase as a small dot on the stepping side.
func (v *Viewer) drawFoot(screen *ebiten.Image, cx, cy float64, radius float32, phase character.AnimationPhase) {
	var dx float32
	switch phase {
	case character.LeftFoot:
		dx = -radius / 2
	case character.RightFoot:
		dx = radius / 2
	default:
		return
	}
	vector.DrawFilledCircle(screen, float32(cx)+dx, float32(cy)+radius*0.8, radius/4, labelColor, true)
}

func (v *Viewer) drawSidebar(screen *ebiten.Image) {
	w := sidebarWidth
	h := v.cfg.GetScreenHeight() - padding*2
	x := v.cfg.GetScreenWidth() - sidebarWidth - padding
	y := padding
	drawFilledRect(screen, x, y, w, h, panelColor)
	drawRectBorder(screen, x, y, w, h, 2, borderColor)

	e := v.scene.Engine
	m := v.scene.Map
	row := y + 12
	lines := []string{
		fmt.Sprintf("Map: %s (%dx%d)", m.Name, m.Width, m.Height),
		fmt.Sprintf("Mode: %s", e.Mode()),
		"Arrows/WASD move, QEZC diagonals",
		"Click: walk there, B: toggle tile",
		"F3: stats, Esc: quit",
	}
	if hover, ok := v.hoverLine(); ok {
		lines = append(lines, hover)
	}
	for _, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, x+12, row)
		row += 16
	}

	row += 4
	legendX := x + 12
	for _, kind := range v.scene.TileKinds() {
		label := kind.Letter
		if kind.Blocking {
			label += "*"
		}
		drawFilledRect(screen, legendX, row+2, 10, 10, tileColor(kind.Color, kind.Blocking))
		drawText(screen, label, legendX+13, row+12, dimColor)
		legendX += 40
		if legendX > x+w-40 {
			legendX = x + 12
			row += 16
		}
	}
	row += 16

	row += 8
	for _, id := range e.GetAllCharacters() {
		pos, _ := e.GetPosition(id)
		info, _ := e.GetMovement(id)
		desc := "manual"
		if info.Description != "" {
			desc = info.Description
		}
		drawText(screen, fmt.Sprintf("%s %s", id, pos), x+12, row+12, rgb(v.scene.Color(id)))
		row += 14
		drawText(screen, "  "+truncate(desc, 36), x+12, row+12, dimColor)
		row += 16
	}

	if v.showStats {
		row += 8
		s := v.scene.Stats.Snapshot()
		drawText(screen, fmt.Sprintf("tick %v avg %v max %v", s.LastTick, s.AvgTick, s.MaxTick), x+12, row+12, dimColor)
		row += 20
	}

	ebitenutil.DebugPrintAt(screen, "Events:", x+12, row)
	row += 16
	for _, line := range v.scene.Events.Lines() {
		if row > y+h-16 {
			break
		}
		drawText(screen, truncate(line, 38), x+12, row+12, labelColor)
		row += 14
	}
}

// hoverLine describes the tile under the mouse cursor and who stands on it.
func (v *Viewer) hoverLine() (string, bool) {
	pos, ok := v.screenToTile(ebiten.CursorPosition())
	if !ok {
		return "", false
	}
	tile := v.scene.TopTile(pos)
	if tile == nil {
		return fmt.Sprintf("%s: no tile", pos), true
	}
	var occupants []string
	for _, layer := range v.scene.Map.LayerNames() {
		ids, err := v.scene.Engine.GetCharactersAt(tilemap.LayerPosition{Position: pos, Layer: layer})
		if err != nil {
			return "", false
		}
		occupants = append(occupants, ids...)
	}
	name := tile.Name
	if name == "" {
		name = tile.Key
	}
	line := fmt.Sprintf("%s: %s", pos, name)
	if len(occupants) > 0 {
		line += " [" + strings.Join(occupants, ",") + "]"
	}
	return truncate(line, 44), true
}

func drawText(screen *ebiten.Image, s string, x, y int, clr color.Color) {
	ebitext.Draw(screen, s, basicfont.Face7x13, x, y, clr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// tileColor picks the tile's own color, darkened while it blocks, or the
// default floor and wall colors.
func tileColor(c [3]int, blocking bool) color.RGBA {
	switch {
	case c == [3]int{} && blocking:
		return wallColor
	case c == [3]int{}:
		return floorColor
	case blocking:
		return darken(rgb(c), 70)
	}
	return rgb(c)
}

func rgb(c [3]int) color.RGBA {
	return color.RGBA{uint8(c[0]), uint8(c[1]), uint8(c[2]), 255}
}

func lighten(c color.RGBA, amount int) color.RGBA {
	add := func(v uint8) uint8 {
		return uint8(min(255, int(v)+amount))
	}
	return color.RGBA{add(c.R), add(c.G), add(c.B), c.A}
}

func darken(c color.RGBA, percent int) color.RGBA {
	scale := func(v uint8) uint8 {
		return uint8(int(v) * percent / 100)
	}
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), c.A}
}

func drawFilledRect(screen *ebiten.Image, x, y, w, h int, clr color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), clr, false)
}

func drawRectBorder(screen *ebiten.Image, x, y, w, h, thickness int, clr color.RGBA) {
	t := float32(thickness)
	fx, fy, fw, fh := float32(x), float32(y), float32(w), float32(h)
	vector.DrawFilledRect(screen, fx, fy, fw, t, clr, false)
	vector.DrawFilledRect(screen, fx, fy+fh-t, fw, t, clr, false)
	vector.DrawFilledRect(screen, fx, fy, t, fh, clr, false)
	vector.DrawFilledRect(screen, fx+fw-t, fy, t, fh, clr, false)
}
