// Package scene wires a loaded map and the configured characters into a grid
// engine. It is the glue between config files and the viewer.
package scene

import (
	"fmt"
	"strings"

	"gridwalk/internal/config"
	"gridwalk/internal/direction"
	"gridwalk/internal/event"
	"gridwalk/internal/gridengine"
	"gridwalk/internal/logger"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/movement"
	"gridwalk/internal/tilemap"
	"gridwalk/internal/world"

	"github.com/sirupsen/logrus"
)

// PlayerID is the character driven by the keyboard.
const PlayerID = "player"

var defaultColors = [][3]int{
	{80, 170, 255},
	{255, 200, 60},
	{230, 90, 90},
	{120, 220, 120},
	{200, 120, 230},
}

// Scene owns an engine running on one map.
type Scene struct {
	Engine *gridengine.Engine
	Map    *world.MapData
	Events *EventLog
	Stats  *TickStats

	cfg     *config.Config
	log     *logrus.Entry
	colors  map[string][3]int
	pending []pendingResult
	subs    event.Group
}

// Load reads the map configured in cfg and builds a scene on it.
func Load(cfg *config.Config, l *logrus.Logger) (*Scene, error) {
	mapData, err := world.NewMapLoader(nil).LoadMap(cfg.GetMapPath())
	if err != nil {
		return nil, err
	}
	return New(cfg, mapData, l)
}

// New creates the engine on mapData, registers every configured character and
// every spawn marker, then attaches the configured movements. A nil logger
// selects logger.Log.
func New(cfg *config.Config, mapData *world.MapData, l *logrus.Logger, opts ...gridengine.Option) (*Scene, error) {
	engine := gridengine.New(append([]gridengine.Option{gridengine.WithLogger(l)}, opts...)...)
	engineCfg := cfg.Engine
	if mapData.IsIsometric() {
		engineCfg.Isometric = true
	}
	if err := engine.Create(mapData, engineCfg); err != nil {
		return nil, err
	}

	s := &Scene{
		Engine: engine,
		Map:    mapData,
		Events: NewEventLog(cfg.Display.EventLogLines),
		Stats:  NewTickStats(),
		cfg:    cfg,
		log:    logger.Component(l, "scene"),
		colors: make(map[string][3]int),
	}
	s.subscribe()

	if err := s.addCharacters(); err != nil {
		return nil, err
	}
	if err := s.attachMovements(); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"map":        mapData.Name,
		"characters": len(engine.GetAllCharacters()),
	}).Info("Scene ready")
	return s, nil
}

func (s *Scene) addCharacters() error {
	spawns := make(map[string]world.CharacterSpawn, len(s.Map.Spawns))
	for _, sp := range s.Map.Spawns {
		spawns[sp.CharID] = sp
	}

	for i, ch := range s.cfg.Characters {
		data := gridengine.CharacterData{
			ID:              ch.ID,
			Position:        ch.Start,
			Layer:           ch.Layer,
			Speed:           ch.Speed,
			CollisionGroups: ch.CollisionGroups,
			IgnoreTiles:     !ch.CollidesWithTilesOrDefault(),
		}
		if sp, ok := spawns[ch.ID]; ok {
			data.Position = sp.Position
			data.Layer = sp.Layer
			delete(spawns, ch.ID)
		}
		if ch.Facing != "" {
			facing, err := direction.Parse(ch.Facing)
			if err != nil {
				return fmt.Errorf("character %s: %w", ch.ID, err)
			}
			data.Facing = facing
		}
		if err := s.Engine.AddCharacter(data); err != nil {
			return err
		}
		s.colors[ch.ID] = pickColor(ch.Color, i)
	}

	// Spawn markers without a config entry get default settings.
	for i, sp := range s.Map.Spawns {
		if _, ok := spawns[sp.CharID]; !ok {
			continue
		}
		if err := s.Engine.AddCharacter(gridengine.CharacterData{
			ID:       sp.CharID,
			Position: sp.Position,
			Layer:    sp.Layer,
		}); err != nil {
			return err
		}
		s.colors[sp.CharID] = pickColor([3]int{}, len(s.cfg.Characters)+i)
	}
	return nil
}

func (s *Scene) attachMovements() error {
	for _, ch := range s.cfg.Characters {
		m := ch.Movement
		if m == nil {
			continue
		}
		var err error
		switch strings.ToLower(m.Type) {
		case config.MovementRandom:
			radius := movement.UnboundedRadius
			if m.Radius != nil {
				radius = *m.Radius
			}
			err = s.Engine.MoveRandomly(ch.ID, m.DelayMs, radius)
		case config.MovementMoveTo:
			err = s.moveTo(ch.ID, m)
		case config.MovementFollow:
			err = s.Engine.Follow(ch.ID, m.Follow, gridengine.FollowOptions{
				Distance:            m.Distance,
				NoPathFoundStrategy: m.NoPathFoundStrategy,
			})
		}
		if err != nil {
			return fmt.Errorf("character %s: %w", ch.ID, err)
		}
	}
	return nil
}

func (s *Scene) moveTo(id string, m *config.MovementConfig) error {
	layer := m.TargetLayer
	if layer == "" {
		layer, _ = s.Engine.GetCharLayer(id)
	}
	retries := 0
	if m.MaxRetries != nil {
		retries = *m.MaxRetries
	}
	done, err := s.Engine.MoveTo(id, tilemap.LayerPosition{Position: m.Target, Layer: layer}, gridengine.MoveToOptions{
		Distance:                  m.Distance,
		NoPathFoundStrategy:       m.NoPathFoundStrategy,
		NoPathFoundRetryBackoffMs: m.RetryBackoffMs,
		NoPathFoundMaxRetries:     retries,
		PathBlockedStrategy:       m.PathBlockedStrategy,
		PathBlockedRetryBackoffMs: m.RetryBackoffMs,
		PathBlockedMaxRetries:     retries,
		PathBlockedWaitTimeoutMs:  m.PathBlockedWaitTimeoutMs,
	})
	if err != nil {
		return err
	}
	s.watch(id, done)
	return nil
}

// watch reports the result of a target movement into the event log. The
// channel is drained on the game goroutine from Update.
func (s *Scene) watch(id string, done <-chan movement.Finished) {
	s.pending = append(s.pending, pendingResult{charID: id, done: done})
}

type pendingResult struct {
	charID string
	done   <-chan movement.Finished
}

// Update ticks the engine and collects finished movements.
func (s *Scene) Update(deltaMs float64) error {
	timer := s.Stats.StartTick()
	err := s.Engine.Update(deltaMs)
	timer.EndTick(len(s.Engine.GetAllCharacters()))
	if err != nil {
		return err
	}

	remaining := s.pending[:0]
	for _, p := range s.pending {
		select {
		case f, ok := <-p.done:
			if ok {
				s.Events.Add("%s finished: %s at %s (%s)", p.charID, f.Result, f.Position, f.Description)
			}
		default:
			remaining = append(remaining, p)
		}
	}
	s.pending = remaining
	return nil
}

// MovePlayer forwards a keyboard direction to the player, if there is one.
// Manual input cancels a running movement.
func (s *Scene) MovePlayer(dir direction.Direction) error {
	if dir == direction.None || !s.Engine.HasCharacter(PlayerID) {
		return nil
	}
	info, err := s.Engine.GetMovement(PlayerID)
	if err != nil {
		return err
	}
	if info.Type != movement.TypeNone {
		if err := s.Engine.StopMovement(PlayerID); err != nil {
			return err
		}
	}
	return s.Engine.Move(PlayerID, dir)
}

// SendPlayerTo starts a target movement for the player, as used by mouse clicks.
func (s *Scene) SendPlayerTo(pos mathutil.Vec2) error {
	if !s.Engine.HasCharacter(PlayerID) {
		return nil
	}
	layer, err := s.Engine.GetCharLayer(PlayerID)
	if err != nil {
		return err
	}
	done, err := s.Engine.MoveTo(PlayerID, tilemap.LayerPosition{Position: pos, Layer: layer}, gridengine.MoveToOptions{
		NoPathFoundStrategy: string(movement.NoPathClosestReachable),
	})
	if err != nil {
		return err
	}
	s.watch(PlayerID, done)
	return nil
}

// TileKind describes one tile definition of the scene's map.
type TileKind struct {
	Key      string
	Letter   string
	Name     string
	Color    [3]int
	Blocking bool
}

// TileKinds lists the map's tile definitions sorted by key.
func (s *Scene) TileKinds() []TileKind {
	tiles := s.Map.TileManager
	keys := tiles.GetAllTileKeys()
	kinds := make([]TileKind, 0, len(keys))
	for _, key := range keys {
		data := tiles.GetTileDataByKey(key)
		kinds = append(kinds, TileKind{
			Key:      key,
			Letter:   data.Letter,
			Name:     data.Name,
			Color:    data.Color,
			Blocking: s.blocks(key),
		})
	}
	return kinds
}

// TopTile returns the tile on the highest layer at pos, or nil.
func (s *Scene) TopTile(pos mathutil.Vec2) *world.TileData {
	layers := s.Map.LayerNames()
	for i := len(layers) - 1; i >= 0; i-- {
		if tile := s.Map.TileAt(layers[i], pos); tile != nil {
			return tile
		}
	}
	return nil
}

// SetTileBlocking changes whether every tile of kind key blocks movement.
// Steps already under way finish; the next step sees the new value.
func (s *Scene) SetTileBlocking(key string, blocking bool) error {
	tiles := s.Map.TileManager
	if !tiles.HasTileKey(key) {
		return fmt.Errorf("unknown tile kind %q", key)
	}
	if err := tiles.SetTileProperty(key, s.cfg.Engine.CollisionTilePropertyName, blocking); err != nil {
		return err
	}
	state := "walkable"
	if blocking {
		state = "blocking"
	}
	s.Events.Add("%s tiles are now %s", key, state)
	s.log.WithFields(logrus.Fields{"tile": key, "blocking": blocking}).Info("Tile blocking changed")
	return nil
}

// ToggleTileBlockingAt flips the blocking flag of the top tile kind at pos.
func (s *Scene) ToggleTileBlockingAt(pos mathutil.Vec2) error {
	tile := s.TopTile(pos)
	if tile == nil {
		return nil
	}
	return s.SetTileBlocking(tile.Key, !s.blocks(tile.Key))
}

func (s *Scene) blocks(key string) bool {
	v, ok := s.Map.TileManager.Property(key, s.cfg.Engine.CollisionTilePropertyName)
	blocking, _ := v.(bool)
	return ok && blocking
}

// Color returns the display color of a character.
func (s *Scene) Color(id string) [3]int {
	if c, ok := s.colors[id]; ok {
		return c
	}
	return defaultColors[0]
}

// Close cancels the event log subscriptions.
func (s *Scene) Close() {
	s.subs.Unsubscribe()
}

func (s *Scene) subscribe() {
	e := s.Engine
	s.subs.Add(e.MovementStarted().Subscribe(func(ev gridengine.DirectionEvent) {
		s.Events.Add("%s started moving %s", ev.CharID, ev.Direction)
	}))
	s.subs.Add(e.MovementStopped().Subscribe(func(ev gridengine.DirectionEvent) {
		s.Events.Add("%s stopped", ev.CharID)
	}))
	s.subs.Add(e.PositionChangeFinished().Subscribe(func(ev gridengine.PositionChangeEvent) {
		if ev.ExitLayer != ev.EnterLayer {
			s.Events.Add("%s changed layer %s -> %s", ev.CharID, ev.ExitLayer, ev.EnterLayer)
		}
	}))
	s.subs.Add(e.CharacterRemoved().Subscribe(func(ev gridengine.CharacterEvent) {
		s.Events.Add("%s removed", ev.CharID)
	}))
}

func pickColor(rgb [3]int, i int) [3]int {
	if rgb != [3]int{} {
		return rgb
	}
	return defaultColors[i%len(defaultColors)]
}
