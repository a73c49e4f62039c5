package mathutil

import "fmt"

// Vec2 is an integer tile coordinate. Y grows downward.
type Vec2 struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y int) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Sign reduces each component to -1, 0 or 1.
func (v Vec2) Sign() Vec2 {
	return Vec2{X: IntSign(v.X), Y: IntSign(v.Y)}
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Manhattan returns the 4-connected grid distance between a and b.
func Manhattan(a, b Vec2) int {
	return IntAbs(a.X-b.X) + IntAbs(a.Y-b.Y)
}

// Chebyshev returns the 8-connected grid distance between a and b.
func Chebyshev(a, b Vec2) int {
	return IntMax(IntAbs(a.X-b.X), IntAbs(a.Y-b.Y))
}

// IntMax returns the larger of two ints.
func IntMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// IntAbs returns |x|.
func IntAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// IntSign returns -1, 0, or 1.
func IntSign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
