package direction

import (
	"fmt"
	"strings"

	"gridwalk/internal/mathutil"
)

// Direction is one of the eight movement directions, or no movement.
// Directions are the commanded (screen) directions; Mode.ToMap converts them
// to map-axis directions for isometric maps.
type Direction int8

const (
	None Direction = iota
	Left
	UpLeft
	Up
	UpRight
	Right
	DownRight
	Down
	DownLeft
)

var names = map[Direction]string{
	None:      "none",
	Left:      "left",
	UpLeft:    "up-left",
	Up:        "up",
	UpRight:   "up-right",
	Right:     "right",
	DownRight: "down-right",
	Down:      "down",
	DownLeft:  "down-left",
}

var vectors = map[Direction]mathutil.Vec2{
	None:      {X: 0, Y: 0},
	Left:      {X: -1, Y: 0},
	UpLeft:    {X: -1, Y: -1},
	Up:        {X: 0, Y: -1},
	UpRight:   {X: 1, Y: -1},
	Right:     {X: 1, Y: 0},
	DownRight: {X: 1, Y: 1},
	Down:      {X: 0, Y: 1},
	DownLeft:  {X: -1, Y: 1},
}

// clockwise ring starting at Up.
var ring = []Direction{Up, UpRight, Right, DownRight, Down, DownLeft, Left, UpLeft}

func (d Direction) String() string {
	if name, ok := names[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int8(d))
}

// Parse accepts "up-left", "up_left", "UP_LEFT" and friends.
func Parse(s string) (Direction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	for d, name := range names {
		if name == key {
			return d, nil
		}
	}
	return None, fmt.Errorf("unknown direction %q", s)
}

// Vector returns the map delta of one step in d.
func (d Direction) Vector() mathutil.Vec2 {
	return vectors[d]
}

func (d Direction) IsDiagonal() bool {
	switch d {
	case UpLeft, UpRight, DownRight, DownLeft:
		return true
	}
	return false
}

func (d Direction) Opposite() Direction {
	if d == None {
		return None
	}
	return d.rotate(4)
}

func (d Direction) TurnClockwise() Direction {
	return d.rotate(1)
}

func (d Direction) TurnCounterClockwise() Direction {
	return d.rotate(-1)
}

func (d Direction) rotate(steps int) Direction {
	if d == None {
		return None
	}
	for i, r := range ring {
		if r == d {
			return ring[((i+steps)%len(ring)+len(ring))%len(ring)]
		}
	}
	return None
}

// FromVector returns the direction pointing along delta. Only the sign of each
// component is taken into account.
func FromVector(delta mathutil.Vec2) Direction {
	s := delta.Sign()
	for d, v := range vectors {
		if v == s {
			return d
		}
	}
	return None
}

// Cardinals are listed in search order.
func Cardinals() []Direction {
	return []Direction{Up, Right, Down, Left}
}

// Diagonals are listed in search order.
func Diagonals() []Direction {
	return []Direction{UpRight, DownRight, DownLeft, UpLeft}
}
