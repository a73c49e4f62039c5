package gridengine

import (
	"fmt"

	"gridwalk/internal/character"
	"gridwalk/internal/direction"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/movement"
	"gridwalk/internal/tilemap"

	"github.com/sirupsen/logrus"
)

// CharacterData registers a character. Zero values select the defaults: the
// engine's default speed, layer "", facing down, the default collision group,
// colliding with tiles.
type CharacterData struct {
	ID              string
	Position        mathutil.Vec2
	Layer           string
	Speed           float64
	Facing          direction.Direction
	CollisionGroups []string
	IgnoreTiles     bool
}

// MovementInfo describes the active movement of a character.
type MovementInfo struct {
	Type        movement.Type
	Description string
}

// MoveToOptions configure MoveTo. Policies are given by name; unknown names
// fall back to STOP and WAIT. Max retries of 0 or less retry forever.
type MoveToOptions struct {
	Distance int

	NoPathFoundStrategy       string
	NoPathFoundRetryBackoffMs float64
	NoPathFoundMaxRetries     int

	PathBlockedStrategy       string
	PathBlockedRetryBackoffMs float64
	PathBlockedMaxRetries     int
	PathBlockedWaitTimeoutMs  float64

	MaxSearchRadius int
}

// FollowOptions configure Follow.
type FollowOptions struct {
	Distance            int
	NoPathFoundStrategy string
}

// AddCharacter registers a character and reserves its tile. Registering an id
// twice is a no-op.
func (e *Engine) AddCharacter(data CharacterData) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if data.ID == "" {
		return fmt.Errorf("add character: empty id")
	}
	if _, ok := e.chars[data.ID]; ok {
		e.charLog(data.ID).Warn("Character already registered")
		return nil
	}

	speed := data.Speed
	if speed <= 0 {
		speed = e.cfg.DefaultSpeed
	}
	groups := data.CollisionGroups
	if groups == nil {
		groups = []string{e.cfg.DefaultCollisionGroup}
	}

	c := character.New(character.Config{
		ID:                data.ID,
		Speed:             speed,
		Facing:            data.Facing,
		CollisionGroups:   groups,
		CollidesWithTiles: !data.IgnoreTiles,
		Mode:              e.mode,
	}, e.tm, tilemap.LayerPosition{Position: data.Position, Layer: data.Layer})

	e.chars[data.ID] = &charEntry{char: c, subs: e.subscribe(c)}
	e.order = append(e.order, data.ID)

	e.charLog(data.ID).WithFields(logrus.Fields{
		"pos":   data.Position.String(),
		"layer": data.Layer,
		"speed": speed,
	}).Debug("Character added")
	return nil
}

// Move starts a single step. Directions the mode does not allow are ignored
// with a warning.
func (e *Engine) Move(id string, dir direction.Direction) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	if !e.mode.Allows(dir) {
		e.charLog(id).Warnf("Direction %s is not allowed in %s mode", dir, e.mode)
		return nil
	}
	c.Move(dir)
	return nil
}

// MoveRandomly makes the character wander. A negative radius is unbounded.
func (e *Engine) MoveRandomly(id string, delayMs float64, radius int) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	c.SetMovement(movement.NewRandomMovement(c, delayMs, radius, e.rnd))
	return nil
}

// MoveTo walks the character to target. The returned channel receives exactly
// one value when the movement finishes, and is closed without a value when it
// is replaced, stopped or the character is removed.
func (e *Engine) MoveTo(id string, target tilemap.LayerPosition, opts MoveToOptions) (<-chan movement.Finished, error) {
	c, err := e.character(id)
	if err != nil {
		return nil, err
	}
	log := e.charLog(id)

	noPath, ok := movement.ParseNoPathFoundStrategy(opts.NoPathFoundStrategy)
	if !ok {
		log.Warnf("Unknown NoPathFoundStrategy '%s'. Falling back to 'STOP'", opts.NoPathFoundStrategy)
	}
	blocked, ok := movement.ParsePathBlockedStrategy(opts.PathBlockedStrategy)
	if !ok {
		log.Warnf("Unknown PathBlockedStrategy '%s'. Falling back to 'WAIT'", opts.PathBlockedStrategy)
	}

	m := movement.NewTargetMovement(c, target, movement.TargetOptions{
		Distance:                  opts.Distance,
		NoPathFoundStrategy:       noPath,
		NoPathFoundRetryBackoffMs: opts.NoPathFoundRetryBackoffMs,
		NoPathFoundMaxRetries:     maxRetries(opts.NoPathFoundMaxRetries),
		PathBlockedStrategy:       blocked,
		PathBlockedRetryBackoffMs: opts.PathBlockedRetryBackoffMs,
		PathBlockedMaxRetries:     maxRetries(opts.PathBlockedMaxRetries),
		PathBlockedWaitTimeoutMs:  opts.PathBlockedWaitTimeoutMs,
		MaxSearchRadius:           opts.MaxSearchRadius,
	}, e.log)
	c.SetMovement(m)
	return m.Finished(), nil
}

func maxRetries(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

// Follow keeps id close to targetID.
func (e *Engine) Follow(id, targetID string, opts FollowOptions) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	followed, err := e.character(targetID)
	if err != nil {
		return err
	}
	if id == targetID {
		return fmt.Errorf("character %s cannot follow itself", id)
	}
	noPath, ok := movement.ParseNoPathFoundStrategy(opts.NoPathFoundStrategy)
	if !ok {
		e.charLog(id).Warnf("Unknown NoPathFoundStrategy '%s'. Falling back to 'STOP'", opts.NoPathFoundStrategy)
	}
	c.SetMovement(movement.NewFollowMovement(c, followed, movement.FollowOptions{
		Distance:            opts.Distance,
		NoPathFoundStrategy: noPath,
	}, e.log))
	return nil
}

// StopMovement detaches the active movement. A step in progress completes.
func (e *Engine) StopMovement(id string) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	c.SetMovement(nil)
	return nil
}

func (e *Engine) GetPosition(id string) (mathutil.Vec2, error) {
	c, err := e.character(id)
	if err != nil {
		return mathutil.Vec2{}, err
	}
	return c.TilePos().Position, nil
}

// GetNextPosition returns the tile the character is walking to, or its
// current tile when idle.
func (e *Engine) GetNextPosition(id string) (tilemap.LayerPosition, error) {
	c, err := e.character(id)
	if err != nil {
		return tilemap.LayerPosition{}, err
	}
	return c.NextTilePos(), nil
}

// GetMovementProgress returns the fraction of the current step in [0, 1).
func (e *Engine) GetMovementProgress(id string) (float64, error) {
	c, err := e.character(id)
	if err != nil {
		return 0, err
	}
	return c.Progress(), nil
}

func (e *Engine) GetFacingDirection(id string) (direction.Direction, error) {
	c, err := e.character(id)
	if err != nil {
		return direction.None, err
	}
	return c.FacingDirection(), nil
}

func (e *Engine) IsMoving(id string) (bool, error) {
	c, err := e.character(id)
	if err != nil {
		return false, err
	}
	return c.IsMoving(), nil
}

func (e *Engine) GetCollisionGroups(id string) ([]string, error) {
	c, err := e.character(id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.CollisionGroups()...), nil
}

func (e *Engine) GetCharLayer(id string) (string, error) {
	c, err := e.character(id)
	if err != nil {
		return "", err
	}
	return c.TilePos().Layer, nil
}

func (e *Engine) GetSpeed(id string) (float64, error) {
	c, err := e.character(id)
	if err != nil {
		return 0, err
	}
	return c.Speed(), nil
}

// GetMovement describes the active movement. Manual control has type "".
func (e *Engine) GetMovement(id string) (MovementInfo, error) {
	c, err := e.character(id)
	if err != nil {
		return MovementInfo{}, err
	}
	if d, ok := c.Movement().(movement.Describer); ok {
		return MovementInfo{Type: d.Type(), Description: d.Describe()}, nil
	}
	return MovementInfo{Type: movement.TypeNone}, nil
}

// HasCharacter reports whether id is registered. It is false before Create.
func (e *Engine) HasCharacter(id string) bool {
	_, ok := e.chars[id]
	return ok
}

// GetAllCharacters returns the registered ids in registration order.
func (e *Engine) GetAllCharacters() []string {
	return append([]string(nil), e.order...)
}

// SetPosition teleports the character, interrupting any step in progress.
func (e *Engine) SetPosition(id string, pos tilemap.LayerPosition) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	c.SetTilePosition(pos)
	return nil
}

func (e *Engine) SetSpeed(id string, tilesPerSecond float64) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	if tilesPerSecond <= 0 {
		return fmt.Errorf("character %s: speed must be positive", id)
	}
	c.SetSpeed(tilesPerSecond)
	return nil
}

// TurnTowards changes the facing direction of an idle character.
func (e *Engine) TurnTowards(id string, dir direction.Direction) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	c.TurnTowards(dir)
	return nil
}

func (e *Engine) SetCollisionGroups(id string, groups []string) error {
	c, err := e.character(id)
	if err != nil {
		return err
	}
	c.SetCollisionGroups(groups)
	return nil
}

// RemoveCharacter destroys the character and releases its tiles. Characters
// following it stop.
func (e *Engine) RemoveCharacter(id string) error {
	if _, err := e.character(id); err != nil {
		return err
	}
	e.remove(id)
	return nil
}

// RemoveAllCharacters removes every character.
func (e *Engine) RemoveAllCharacters() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.removeAll()
	return nil
}

func (e *Engine) removeAll() {
	for _, id := range e.GetAllCharacters() {
		e.remove(id)
	}
}

func (e *Engine) remove(id string) {
	entry := e.chars[id]
	entry.subs.Unsubscribe()
	delete(e.chars, id)
	for i, other := range e.order {
		if other == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	entry.char.Destroy()

	for _, otherID := range e.order {
		other := e.chars[otherID].char
		if f, ok := other.Movement().(*movement.FollowMovement); ok && f.Followed() == id {
			e.charLog(otherID).Warnf("Followed character %s was removed, stopping", id)
			other.SetMovement(nil)
		}
	}

	e.charLog(id).Debug("Character removed")
	e.characterRemoved.Emit(CharacterEvent{CharID: id})
}

// IsBlocked reports whether pos is blocked by a tile, a missing tile or a
// character sharing one of groups. Without groups the default group is used.
func (e *Engine) IsBlocked(pos tilemap.LayerPosition, groups ...string) (bool, error) {
	if !e.initialized {
		return false, ErrNotInitialized
	}
	if len(groups) == 0 {
		groups = []string{e.cfg.DefaultCollisionGroup}
	}
	return e.tm.IsBlocking(pos, groups, "", false), nil
}

// GetCharactersAt returns the ids of the characters standing on or entering
// pos, sorted.
func (e *Engine) GetCharactersAt(pos tilemap.LayerPosition) ([]string, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.tm.OccupantsAt(pos), nil
}

// GetReservedTiles returns the tiles id holds in the occupancy map: its own
// tile and, while moving, the tile it enters.
func (e *Engine) GetReservedTiles(id string) ([]tilemap.LayerPosition, error) {
	if _, err := e.character(id); err != nil {
		return nil, err
	}
	return e.tm.HeldBy(id), nil
}

// IsTileBlocked ignores characters.
func (e *Engine) IsTileBlocked(pos tilemap.LayerPosition) (bool, error) {
	if !e.initialized {
		return false, ErrNotInitialized
	}
	return e.tm.HasNoTile(pos) || e.tm.HasBlockingTile(pos), nil
}

// GetTransition returns the layer entered when stepping onto pos from layer
// from, if a transition is registered.
func (e *Engine) GetTransition(pos mathutil.Vec2, from string) (string, bool, error) {
	if !e.initialized {
		return "", false, ErrNotInitialized
	}
	to, ok := e.tm.GetTransition(pos, from)
	return to, ok, nil
}

func (e *Engine) SetTransition(pos mathutil.Vec2, from, to string) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.tm.SetTransition(pos, from, to)
	return nil
}
