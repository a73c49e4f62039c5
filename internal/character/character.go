package character

import (
	"math"

	"gridwalk/internal/direction"
	"gridwalk/internal/event"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/tilemap"
)

// State of the tile-to-tile movement machine.
type State int

const (
	Idle State = iota
	Moving
)

func (s State) String() string {
	if s == Moving {
		return "moving"
	}
	return "idle"
}

// Movement decides the next step of a character. Update is called once per
// tick with the elapsed milliseconds before the character advances, and again
// with 0 right after a tile commit to ask for a continuation.
type Movement interface {
	Update(deltaMs float64)
}

// Stopper is implemented by movements that hold subscriptions or a result
// stream that must be released when they are replaced.
type Stopper interface {
	Stop()
}

// PositionChange is the payload of position-change-started and -finished.
type PositionChange struct {
	ExitTile   mathutil.Vec2
	EnterTile  mathutil.Vec2
	ExitLayer  string
	EnterLayer string
}

// Config holds the registration data of a character.
type Config struct {
	ID                string
	Speed             float64 // tiles per second
	Facing            direction.Direction
	CollisionGroups   []string
	CollidesWithTiles bool
	Mode              direction.Mode
}

// GridCharacter owns the logical tile position of one character and turns
// discrete moves into continuous progress between tiles.
type GridCharacter struct {
	id                string
	speed             float64
	collisionGroups   []string
	collidesWithTiles bool
	mode              direction.Mode
	tm                *tilemap.GridTilemap

	state             State
	tilePos           tilemap.LayerPosition
	nextTilePos       tilemap.LayerPosition
	movementDirection direction.Direction
	facingDirection   direction.Direction
	lastImpulse       direction.Direction
	progress          float64
	movement          Movement
	animation         *WalkingAnimation
	destroyed         bool

	movementStarted        *event.Subject[direction.Direction]
	movementStopped        *event.Subject[direction.Direction]
	directionChanged       *event.Subject[direction.Direction]
	positionChangeStarted  *event.Subject[PositionChange]
	positionChangeFinished *event.Subject[PositionChange]
	autoMovementSet        *event.Subject[Movement]
}

// New creates a character standing on pos and reserves that tile.
func New(cfg Config, tm *tilemap.GridTilemap, pos tilemap.LayerPosition) *GridCharacter {
	facing := cfg.Facing
	if facing == direction.None {
		facing = direction.Down
	}
	c := &GridCharacter{
		id:                cfg.ID,
		speed:             cfg.Speed,
		collisionGroups:   append([]string(nil), cfg.CollisionGroups...),
		collidesWithTiles: cfg.CollidesWithTiles,
		mode:              cfg.Mode,
		tm:                tm,
		tilePos:           pos,
		nextTilePos:       pos,
		facingDirection:   facing,
		animation:         newWalkingAnimation(),

		movementStarted:        event.NewSubject[direction.Direction](),
		movementStopped:        event.NewSubject[direction.Direction](),
		directionChanged:       event.NewSubject[direction.Direction](),
		positionChangeStarted:  event.NewSubject[PositionChange](),
		positionChangeFinished: event.NewSubject[PositionChange](),
		autoMovementSet:        event.NewSubject[Movement](),
	}
	tm.Reserve(c, pos)
	return c
}

func (c *GridCharacter) ID() string                           { return c.id }
func (c *GridCharacter) CollisionGroups() []string            { return c.collisionGroups }
func (c *GridCharacter) CollidesWithTiles() bool              { return c.collidesWithTiles }
func (c *GridCharacter) Speed() float64                       { return c.speed }
func (c *GridCharacter) Mode() direction.Mode                 { return c.mode }
func (c *GridCharacter) State() State                         { return c.state }
func (c *GridCharacter) IsMoving() bool                       { return c.state == Moving }
func (c *GridCharacter) TilePos() tilemap.LayerPosition       { return c.tilePos }
func (c *GridCharacter) NextTilePos() tilemap.LayerPosition   { return c.nextTilePos }
func (c *GridCharacter) FacingDirection() direction.Direction { return c.facingDirection }
func (c *GridCharacter) Progress() float64                    { return c.progress }
func (c *GridCharacter) Movement() Movement                   { return c.movement }
func (c *GridCharacter) Tilemap() *tilemap.GridTilemap        { return c.tm }
func (c *GridCharacter) Animation() *WalkingAnimation         { return c.animation }
func (c *GridCharacter) IsDestroyed() bool                    { return c.destroyed }

// MovementDirection is the direction of the move in progress, None when idle.
func (c *GridCharacter) MovementDirection() direction.Direction {
	return c.movementDirection
}

func (c *GridCharacter) MovementStarted() *event.Subject[direction.Direction] {
	return c.movementStarted
}

func (c *GridCharacter) MovementStopped() *event.Subject[direction.Direction] {
	return c.movementStopped
}

func (c *GridCharacter) DirectionChanged() *event.Subject[direction.Direction] {
	return c.directionChanged
}

func (c *GridCharacter) PositionChangeStarted() *event.Subject[PositionChange] {
	return c.positionChangeStarted
}

func (c *GridCharacter) PositionChangeFinished() *event.Subject[PositionChange] {
	return c.positionChangeFinished
}

func (c *GridCharacter) AutoMovementSet() *event.Subject[Movement] {
	return c.autoMovementSet
}

func (c *GridCharacter) AnimationPhaseChanged() *event.Subject[AnimationPhase] {
	return c.animation.changed
}

// SetSpeed changes the walking speed. A move in progress continues at the new
// speed.
func (c *GridCharacter) SetSpeed(tilesPerSecond float64) {
	c.speed = tilesPerSecond
}

// SetCollisionGroups replaces the collision groups. Existing reservations keep
// the character registered; blocking checks read the groups live.
func (c *GridCharacter) SetCollisionGroups(groups []string) {
	c.collisionGroups = append([]string(nil), groups...)
}

// SetMovement swaps the active movement. The previous one is stopped if it
// supports it. nil detaches.
func (c *GridCharacter) SetMovement(m Movement) {
	if old, ok := c.movement.(Stopper); ok && c.movement != m {
		old.Stop()
	}
	c.movement = m
	c.autoMovementSet.Emit(m)
}

// TilePosInDirection returns where a step in the commanded direction dir would
// end up, including any layer transition on the destination tile.
func (c *GridCharacter) TilePosInDirection(dir direction.Direction) tilemap.LayerPosition {
	target := c.tilePos.Position.Add(c.mode.ToMap(dir).Vector())
	return tilemap.LayerPosition{
		Position: target,
		Layer:    c.tm.LayerAfterEntering(target, c.tilePos.Layer),
	}
}

// IsBlockingDirection reports whether a step in the commanded direction dir is
// blocked. Blocking is evaluated on the layer the character would enter.
func (c *GridCharacter) IsBlockingDirection(dir direction.Direction) bool {
	if dir == direction.None {
		return false
	}
	return c.tm.IsBlocking(c.TilePosInDirection(dir), c.collisionGroups, c.id, !c.collidesWithTiles)
}

// Move commands one tile step. While moving, the direction is remembered as
// the impulse used to continue after the current tile commits.
func (c *GridCharacter) Move(dir direction.Direction) {
	if c.destroyed {
		return
	}
	if c.state == Moving {
		c.lastImpulse = dir
		return
	}
	if dir == direction.None {
		return
	}
	if c.IsBlockingDirection(dir) {
		c.turn(dir)
		return
	}
	c.startMoving(dir)
}

// TurnTowards changes the facing direction of an idle character.
func (c *GridCharacter) TurnTowards(dir direction.Direction) {
	if c.state == Moving || dir == direction.None {
		return
	}
	c.turn(dir)
}

func (c *GridCharacter) turn(dir direction.Direction) {
	if c.facingDirection == dir {
		return
	}
	c.facingDirection = dir
	c.directionChanged.Emit(dir)
}

func (c *GridCharacter) startMoving(dir direction.Direction) {
	if dir != c.movementDirection {
		c.movementDirection = dir
		c.movementStarted.Emit(dir)
	}
	c.turn(dir)

	exit := c.tilePos
	enter := c.TilePosInDirection(dir)
	if c.tm.CollisionStrategy() == tilemap.BlockOneTileAhead {
		c.tm.Vacate(c, exit)
	}
	c.tm.Reserve(c, enter)
	c.nextTilePos = enter
	c.state = Moving

	c.animation.stepStarted()
	c.positionChangeStarted.Emit(PositionChange{
		ExitTile:   exit.Position,
		EnterTile:  enter.Position,
		ExitLayer:  exit.Layer,
		EnterLayer: enter.Layer,
	})
}

// Update advances the character by deltaMs milliseconds: the movement decides
// first, then walking progress is added and full tiles are committed.
func (c *GridCharacter) Update(deltaMs float64) {
	if c.destroyed {
		return
	}
	if !(deltaMs > 0) || math.IsInf(deltaMs, 1) {
		deltaMs = 0
	}
	if c.movement != nil {
		c.movement.Update(deltaMs)
	}
	if c.state == Moving && !c.destroyed {
		c.advance(deltaMs)
	}
	c.lastImpulse = direction.None
}

func (c *GridCharacter) advance(deltaMs float64) {
	c.progress += c.speed * deltaMs / 1000
	for c.progress >= 1 {
		c.progress--
		c.commit()
		if c.destroyed {
			return
		}

		c.state = Idle
		prevDir := c.movementDirection
		if c.movement != nil {
			c.movement.Update(0)
		} else {
			c.Move(c.lastImpulse)
		}
		if c.destroyed {
			return
		}
		if c.state != Moving {
			c.progress = 0
			c.movementDirection = direction.None
			c.animation.stopped()
			c.movementStopped.Emit(prevDir)
			return
		}
	}
	c.animation.progressed(c.progress)
}

func (c *GridCharacter) commit() {
	exit := c.tilePos
	c.tilePos = c.nextTilePos
	c.tm.Vacate(c, exit)

	c.positionChangeFinished.Emit(PositionChange{
		ExitTile:   exit.Position,
		EnterTile:  c.tilePos.Position,
		ExitLayer:  exit.Layer,
		EnterLayer: c.tilePos.Layer,
	})
}

// SetTilePosition teleports the character. A move in progress is aborted and
// reported as stopped.
func (c *GridCharacter) SetTilePosition(pos tilemap.LayerPosition) {
	if c.state == Moving {
		prevDir := c.movementDirection
		c.state = Idle
		c.progress = 0
		c.movementDirection = direction.None
		c.animation.stopped()
		c.movementStopped.Emit(prevDir)
	}

	exit := c.tilePos
	c.tm.Vacate(c, c.tilePos)
	c.tm.Vacate(c, c.nextTilePos)
	c.tilePos = pos
	c.nextTilePos = pos
	c.tm.Reserve(c, pos)

	change := PositionChange{
		ExitTile:   exit.Position,
		EnterTile:  pos.Position,
		ExitLayer:  exit.Layer,
		EnterLayer: pos.Layer,
	}
	c.positionChangeStarted.Emit(change)
	c.positionChangeFinished.Emit(change)
}

// Destroy releases every tile, stops the movement and completes all subjects.
func (c *GridCharacter) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if s, ok := c.movement.(Stopper); ok {
		s.Stop()
	}
	c.movement = nil
	c.tm.RemoveOccupant(c.id)

	c.movementStarted.Complete()
	c.movementStopped.Complete()
	c.directionChanged.Complete()
	c.positionChangeStarted.Complete()
	c.positionChangeFinished.Complete()
	c.autoMovementSet.Complete()
	c.animation.changed.Complete()
}
