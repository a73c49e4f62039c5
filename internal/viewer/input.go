package viewer

import (
	"gridwalk/internal/direction"
	"gridwalk/internal/mathutil"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyState reports whether a key is held. ebiten.IsKeyPressed satisfies it.
type KeyState func(ebiten.Key) bool

var diagonalKeys = []struct {
	key ebiten.Key
	dir direction.Direction
}{
	{ebiten.KeyQ, direction.UpLeft},
	{ebiten.KeyE, direction.UpRight},
	{ebiten.KeyZ, direction.DownLeft},
	{ebiten.KeyC, direction.DownRight},
}

// DirectionFromKeys maps the held keys to a direction the mode accepts.
// Arrows and WASD give cardinals, combined into a diagonal when two are held
// in eight-direction mode. Q/E/Z/C give diagonals.
func DirectionFromKeys(pressed KeyState, mode direction.Mode) direction.Direction {
	for _, dk := range diagonalKeys {
		if pressed(dk.key) && mode.Allows(dk.dir) {
			return dk.dir
		}
	}

	dx, dy := 0, 0
	if pressed(ebiten.KeyLeft) || pressed(ebiten.KeyA) {
		dx--
	}
	if pressed(ebiten.KeyRight) || pressed(ebiten.KeyD) {
		dx++
	}
	if pressed(ebiten.KeyUp) || pressed(ebiten.KeyW) {
		dy--
	}
	if pressed(ebiten.KeyDown) || pressed(ebiten.KeyS) {
		dy++
	}
	if dx != 0 && dy != 0 && mode.Directions == direction.Four {
		// Horizontal wins when two cardinals are held without diagonals.
		dy = 0
	}

	dir := direction.FromVector(mathutil.V(dx, dy))
	if !mode.Allows(dir) {
		return direction.None
	}
	return dir
}

// HandleInput reads the keyboard and mouse and drives the player.
func (v *Viewer) HandleInput() error {
	dir := DirectionFromKeys(ebiten.IsKeyPressed, v.scene.Engine.Mode())
	if err := v.scene.MovePlayer(dir); err != nil {
		return err
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if pos, ok := v.screenToTile(mx, my); ok {
			if err := v.scene.SendPlayerTo(pos); err != nil {
				return err
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		if pos, ok := v.screenToTile(ebiten.CursorPosition()); ok {
			if err := v.scene.ToggleTileBlockingAt(pos); err != nil {
				return err
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		v.showStats = !v.showStats
	}
	return nil
}
