package gridengine

import (
	"gridwalk/internal/character"
	"gridwalk/internal/direction"
	"gridwalk/internal/event"
	"gridwalk/internal/mathutil"
)

// DirectionEvent is emitted for movement-started, movement-stopped and
// direction-changed.
type DirectionEvent struct {
	CharID    string
	Direction direction.Direction
}

// PositionChangeEvent is emitted for position-change-started and -finished.
type PositionChangeEvent struct {
	CharID string
	character.PositionChange
}

// AnimationEvent is emitted when a character's walking phase changes.
type AnimationEvent struct {
	CharID string
	Phase  character.AnimationPhase
}

// CharacterEvent is emitted when a character is removed.
type CharacterEvent struct {
	CharID string
}

func (e *Engine) MovementStarted() *event.Subject[DirectionEvent] {
	return e.movementStarted
}

func (e *Engine) MovementStopped() *event.Subject[DirectionEvent] {
	return e.movementStopped
}

func (e *Engine) DirectionChanged() *event.Subject[DirectionEvent] {
	return e.directionChanged
}

func (e *Engine) PositionChangeStarted() *event.Subject[PositionChangeEvent] {
	return e.positionChangeStarted
}

func (e *Engine) PositionChangeFinished() *event.Subject[PositionChangeEvent] {
	return e.positionChangeFinished
}

func (e *Engine) AnimationPhaseChanged() *event.Subject[AnimationEvent] {
	return e.animationPhaseChanged
}

func (e *Engine) CharacterRemoved() *event.Subject[CharacterEvent] {
	return e.characterRemoved
}

// SteppedOn calls fn whenever one of charIDs finishes entering one of tiles on
// one of layers. An empty filter matches everything.
func (e *Engine) SteppedOn(charIDs []string, tiles []mathutil.Vec2, layers []string, fn func(PositionChangeEvent)) event.Subscription {
	return e.positionChangeFinished.Subscribe(func(ev PositionChangeEvent) {
		if len(charIDs) > 0 && !contains(charIDs, ev.CharID) {
			return
		}
		if len(tiles) > 0 && !contains(tiles, ev.EnterTile) {
			return
		}
		if len(layers) > 0 && !contains(layers, ev.EnterLayer) {
			return
		}
		fn(ev)
	})
}

// subscribe forwards every event of c to the engine streams. The returned
// group is cancelled when the character is removed.
func (e *Engine) subscribe(c *character.GridCharacter) event.Group {
	id := c.ID()
	var g event.Group
	g.Add(c.MovementStarted().Subscribe(func(d direction.Direction) {
		e.movementStarted.Emit(DirectionEvent{CharID: id, Direction: d})
	}))
	g.Add(c.MovementStopped().Subscribe(func(d direction.Direction) {
		e.movementStopped.Emit(DirectionEvent{CharID: id, Direction: d})
	}))
	g.Add(c.DirectionChanged().Subscribe(func(d direction.Direction) {
		e.directionChanged.Emit(DirectionEvent{CharID: id, Direction: d})
	}))
	g.Add(c.PositionChangeStarted().Subscribe(func(p character.PositionChange) {
		e.positionChangeStarted.Emit(PositionChangeEvent{CharID: id, PositionChange: p})
	}))
	g.Add(c.PositionChangeFinished().Subscribe(func(p character.PositionChange) {
		e.positionChangeFinished.Emit(PositionChangeEvent{CharID: id, PositionChange: p})
	}))
	g.Add(c.AnimationPhaseChanged().Subscribe(func(p character.AnimationPhase) {
		e.animationPhaseChanged.Emit(AnimationEvent{CharID: id, Phase: p})
	}))
	return g
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
