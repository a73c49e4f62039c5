package direction

import (
	"fmt"

	"gridwalk/internal/mathutil"
)

// NumberOfDirections selects 4- or 8-directional movement.
type NumberOfDirections int

const (
	Four  NumberOfDirections = 4
	Eight NumberOfDirections = 8
)

// ParseNumberOfDirections validates a configured direction count.
func ParseNumberOfDirections(n int) (NumberOfDirections, error) {
	switch NumberOfDirections(n) {
	case Four, Eight:
		return NumberOfDirections(n), nil
	}
	return 0, fmt.Errorf("number of directions must be 4 or 8, got %d", n)
}

// Mode is the directional configuration shared by the engine, its characters
// and their movement strategies.
type Mode struct {
	Directions NumberOfDirections
	Isometric  bool
}

func (m Mode) String() string {
	if m.Isometric {
		return fmt.Sprintf("%d-dir isometric", m.Directions)
	}
	return fmt.Sprintf("%d-dir", m.Directions)
}

// Allows reports whether d may be commanded in this mode. Eight directions
// allow everything; four directions allow cardinals on orthogonal maps and
// diagonals on isometric maps.
func (m Mode) Allows(d Direction) bool {
	if d == None {
		return true
	}
	if m.Directions == Eight {
		return true
	}
	if m.Isometric {
		return d.IsDiagonal()
	}
	return !d.IsDiagonal()
}

// Commandable lists the directions Allows accepts, in a fixed order.
func (m Mode) Commandable() []Direction {
	if m.Directions == Eight {
		return append(Cardinals(), Diagonals()...)
	}
	if m.Isometric {
		return []Direction{UpLeft, UpRight, DownRight, DownLeft}
	}
	return Cardinals()
}

// ToMap converts a commanded direction to the map-axis direction it moves along.
// On isometric maps screen directions are rotated 45 degrees counter-clockwise,
// so UpLeft walks map Left and UpRight walks map Up.
func (m Mode) ToMap(d Direction) Direction {
	if m.Isometric {
		return d.TurnCounterClockwise()
	}
	return d
}

// FromMap is the inverse of ToMap.
func (m Mode) FromMap(d Direction) Direction {
	if m.Isometric {
		return d.TurnClockwise()
	}
	return d
}

// NeighborDirections lists map-axis directions in breadth-first search order.
func (m Mode) NeighborDirections() []Direction {
	if m.Directions == Eight {
		return append(Cardinals(), Diagonals()...)
	}
	return Cardinals()
}

// Distance is the grid distance matching the connectivity of the mode:
// Manhattan for four directions and Chebyshev for eight.
func (m Mode) Distance(a, b mathutil.Vec2) int {
	if m.Directions == Eight {
		return mathutil.Chebyshev(a, b)
	}
	return mathutil.Manhattan(a, b)
}
