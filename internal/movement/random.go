package movement

import (
	"fmt"

	"gridwalk/internal/character"
	"gridwalk/internal/direction"
	"gridwalk/internal/event"
	"gridwalk/internal/mathutil"
)

// UnboundedRadius lets a random movement wander anywhere.
const UnboundedRadius = -1

// RandomMovement wanders in random directions. With a radius it stays within
// that Manhattan distance of the tile it started on and walks a random number
// of tiles in each chosen direction.
type RandomMovement struct {
	char   *character.GridCharacter
	delay  float64
	radius int
	rnd    Randomizer
	anchor mathutil.Vec2

	delayLeft   float64
	currentDir  direction.Direction
	stepSize    int
	stepsWalked int
	sub         event.Subscription
}

// NewRandomMovement anchors the movement at the character's current tile.
func NewRandomMovement(c *character.GridCharacter, delayMs float64, radius int, rnd Randomizer) *RandomMovement {
	if radius < 0 {
		radius = UnboundedRadius
	}
	m := &RandomMovement{
		char:      c,
		delay:     delayMs,
		radius:    radius,
		rnd:       rnd,
		anchor:    c.TilePos().Position,
		delayLeft: delayMs,
	}
	m.sub = c.PositionChangeStarted().Subscribe(func(character.PositionChange) {
		m.stepsWalked++
	})
	return m
}

func (m *RandomMovement) Type() Type { return TypeRandom }

func (m *RandomMovement) Describe() string {
	if m.radius == UnboundedRadius {
		return fmt.Sprintf("random (delay %.0fms)", m.delay)
	}
	return fmt.Sprintf("random (delay %.0fms, radius %d around %s)", m.delay, m.radius, m.anchor)
}

// Anchor is the tile the radius is measured from.
func (m *RandomMovement) Anchor() mathutil.Vec2 { return m.anchor }

func (m *RandomMovement) Stop() {
	m.sub.Unsubscribe()
}

func (m *RandomMovement) Update(deltaMs float64) {
	if m.char.IsMoving() {
		return
	}
	if m.shouldContinue() {
		m.char.Move(m.currentDir)
		return
	}

	m.delayLeft -= deltaMs
	if m.delayLeft > 0 {
		return
	}
	m.delayLeft = m.delay

	m.currentDir = m.freeRandomDirection()
	m.stepsWalked = 0
	m.stepSize = m.randomStepSize()
	m.char.Move(m.currentDir)
}

func (m *RandomMovement) shouldContinue() bool {
	return m.currentDir != direction.None &&
		m.stepsWalked < m.stepSize &&
		!m.char.IsBlockingDirection(m.currentDir) &&
		m.withinRadius(m.char.TilePosInDirection(m.currentDir).Position)
}

func (m *RandomMovement) freeRandomDirection() direction.Direction {
	var free []direction.Direction
	for _, dir := range m.char.Mode().Commandable() {
		if m.char.IsBlockingDirection(dir) {
			continue
		}
		if !m.withinRadius(m.char.TilePosInDirection(dir).Position) {
			continue
		}
		free = append(free, dir)
	}
	if len(free) == 0 {
		return direction.None
	}
	return free[m.rnd.Intn(len(free))]
}

func (m *RandomMovement) randomStepSize() int {
	if m.radius == UnboundedRadius {
		return 1
	}
	budget := m.radius - mathutil.Manhattan(m.char.TilePos().Position, m.anchor)
	if budget < 1 {
		budget = 1
	}
	return m.rnd.Intn(budget) + 1
}

func (m *RandomMovement) withinRadius(p mathutil.Vec2) bool {
	return m.radius == UnboundedRadius || mathutil.Manhattan(p, m.anchor) <= m.radius
}
