package direction

import (
	"testing"

	"gridwalk/internal/mathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOppositeAndRotation(t *testing.T) {
	cases := map[Direction]Direction{
		Up:        Down,
		Left:      Right,
		UpLeft:    DownRight,
		DownLeft:  UpRight,
		None:      None,
		DownRight: UpLeft,
	}
	for d, want := range cases {
		assert.Equal(t, want, d.Opposite(), "opposite of %s", d)
	}

	assert.Equal(t, UpRight, Up.TurnClockwise())
	assert.Equal(t, Up, UpLeft.TurnClockwise())
	assert.Equal(t, UpLeft, Up.TurnCounterClockwise())
	assert.Equal(t, None, None.TurnClockwise())
}

func TestVectorRoundTrip(t *testing.T) {
	for _, d := range append(Cardinals(), Diagonals()...) {
		assert.Equal(t, d, FromVector(d.Vector()))
	}
	assert.Equal(t, Right, FromVector(mathutil.V(5, 0)))
	assert.Equal(t, DownLeft, FromVector(mathutil.V(-3, 2)))
	assert.Equal(t, None, FromVector(mathutil.V(0, 0)))
}

func TestParse(t *testing.T) {
	d, err := Parse("UP_LEFT")
	require.NoError(t, err)
	assert.Equal(t, UpLeft, d)

	d, err = Parse(" down ")
	require.NoError(t, err)
	assert.Equal(t, Down, d)

	_, err = Parse("sideways")
	assert.Error(t, err)
}

func TestModeAllows(t *testing.T) {
	four := Mode{Directions: Four}
	assert.True(t, four.Allows(Up))
	assert.False(t, four.Allows(DownLeft))

	iso := Mode{Directions: Four, Isometric: true}
	assert.False(t, iso.Allows(Up))
	assert.True(t, iso.Allows(DownLeft))

	eight := Mode{Directions: Eight}
	assert.True(t, eight.Allows(Up))
	assert.True(t, eight.Allows(DownLeft))
	assert.True(t, eight.Allows(None))
}

func TestIsometricMapping(t *testing.T) {
	iso := Mode{Directions: Four, Isometric: true}
	assert.Equal(t, Left, iso.ToMap(UpLeft))
	assert.Equal(t, Up, iso.ToMap(UpRight))
	assert.Equal(t, Right, iso.ToMap(DownRight))
	assert.Equal(t, Down, iso.ToMap(DownLeft))
	for _, d := range iso.Commandable() {
		assert.Equal(t, d, iso.FromMap(iso.ToMap(d)))
		assert.False(t, iso.ToMap(d).IsDiagonal(), "%s should walk a map axis", d)
	}

	plain := Mode{Directions: Eight}
	assert.Equal(t, UpLeft, plain.ToMap(UpLeft))
}

func TestModeDistance(t *testing.T) {
	a, b := mathutil.V(0, 0), mathutil.V(4, 3)
	assert.Equal(t, 7, Mode{Directions: Four}.Distance(a, b))
	assert.Equal(t, 4, Mode{Directions: Eight}.Distance(a, b))
}

func TestParseNumberOfDirections(t *testing.T) {
	n, err := ParseNumberOfDirections(8)
	require.NoError(t, err)
	assert.Equal(t, Eight, n)

	_, err = ParseNumberOfDirections(6)
	assert.Error(t, err)
}
