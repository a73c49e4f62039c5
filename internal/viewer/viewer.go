// Package viewer renders a scene with ebiten and feeds keyboard and mouse
// input to the player character.
package viewer

import (
	"gridwalk/internal/character"
	"gridwalk/internal/config"
	"gridwalk/internal/event"
	"gridwalk/internal/gridengine"
	"gridwalk/internal/logger"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/scene"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

const (
	sidebarWidth = 300
	padding      = 16
)

// Viewer implements ebiten.Game.
type Viewer struct {
	cfg   *config.Config
	scene *scene.Scene
	log   *logrus.Entry

	showStats bool
	phases    map[string]character.AnimationPhase
	subs      event.Group
}

// New creates a viewer for s.
func New(cfg *config.Config, s *scene.Scene, l *logrus.Logger) *Viewer {
	v := &Viewer{
		cfg:       cfg,
		scene:     s,
		log:       logger.Component(l, "viewer"),
		showStats: true,
		phases:    make(map[string]character.AnimationPhase),
	}
	v.subs.Add(s.Engine.AnimationPhaseChanged().Subscribe(func(ev gridengine.AnimationEvent) {
		v.phases[ev.CharID] = ev.Phase
	}))
	v.subs.Add(s.Engine.CharacterRemoved().Subscribe(func(ev gridengine.CharacterEvent) {
		delete(v.phases, ev.CharID)
	}))
	return v
}

// Close releases the engine subscriptions.
func (v *Viewer) Close() {
	v.subs.Unsubscribe()
}

// Update handles input and advances the engine by one tick.
func (v *Viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if err := v.HandleInput(); err != nil {
		v.log.WithError(err).Error("Input handling failed")
	}
	return v.scene.Update(1000 / float64(ebiten.TPS()))
}

// Draw renders the map, the characters and the sidebar.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	v.drawMap(screen)
	v.drawCharacters(screen)
	v.drawSidebar(screen)
}

// Layout returns the configured screen size.
func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.cfg.GetScreenWidth(), v.cfg.GetScreenHeight()
}

// projection centers the map in the area left of the sidebar.
func (v *Viewer) projection() Projection {
	m := v.scene.Map
	ts := v.cfg.GetTileSize()
	areaW := float64(v.cfg.GetScreenWidth() - sidebarWidth - padding*3)
	areaH := float64(v.cfg.GetScreenHeight() - padding*2)

	if m.IsIsometric() {
		mapW := float64(m.Width+m.Height) * ts / 2
		mapH := float64(m.Width+m.Height) * ts / 4
		return Projection{
			OriginX:   padding + (areaW-mapW)/2 + float64(m.Height)*ts/2,
			OriginY:   padding + (areaH-mapH)/2,
			TileSize:  ts,
			Isometric: true,
		}
	}
	return Projection{
		OriginX:  padding + (areaW-float64(m.Width)*ts)/2,
		OriginY:  padding + (areaH-float64(m.Height)*ts)/2,
		TileSize: ts,
	}
}

func (v *Viewer) screenToTile(sx, sy int) (mathutil.Vec2, bool) {
	pos := v.projection().ScreenToTile(float64(sx), float64(sy))
	m := v.scene.Map
	if pos.X < 0 || pos.Y < 0 || pos.X >= m.Width || pos.Y >= m.Height {
		return pos, false
	}
	return pos, true
}
