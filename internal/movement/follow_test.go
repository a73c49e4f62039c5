package movement

import (
	"testing"

	"gridwalk/internal/direction"
	"gridwalk/internal/testutil"
	"gridwalk/internal/tilemap"

	"github.com/stretchr/testify/assert"
)

func TestFollowTrailsMovingCharacter(t *testing.T) {
	tm := testutil.Tilemap(t, "......")
	leader := newChar(tm, "leader", 2, 0)
	follower := newChar(tm, "follower", 0, 0)

	follower.SetMovement(NewFollowMovement(follower, leader, FollowOptions{Distance: 1}, nil))
	moveTo(leader, 4, 0, DefaultTargetOptions())

	tick(60, 50, leader, follower)

	assert.Equal(t, tilemap.At(4, 0, "ground"), leader.TilePos())
	assert.Equal(t, tilemap.At(3, 0, "ground"), follower.TilePos())
	assert.False(t, follower.IsMoving())
}

func TestFollowDistanceZeroWaitsAdjacentWhenGroupsOverlap(t *testing.T) {
	tm := testutil.Tilemap(t, "....")
	leader := newChar(tm, "leader", 3, 0)
	follower := newChar(tm, "follower", 0, 0)
	follower.SetMovement(NewFollowMovement(follower, leader, FollowOptions{}, nil))

	tick(40, 50, leader, follower)

	assert.Equal(t, tilemap.At(2, 0, "ground"), follower.TilePos())
}

func TestFollowDistanceZeroSharesTileWithoutCollision(t *testing.T) {
	tm := testutil.Tilemap(t, "....")
	leader := newChar(tm, "leader", 3, 0, "leaders")
	follower := newChar(tm, "follower", 0, 0, "followers")
	follower.SetMovement(NewFollowMovement(follower, leader, FollowOptions{}, nil))

	tick(40, 50, leader, follower)

	assert.Equal(t, tilemap.At(3, 0, "ground"), follower.TilePos())
	assert.Equal(t, []string{"follower", "leader"}, tm.OccupantsAt(tilemap.At(3, 0, "ground")))
}

func TestFollowStopUnsubscribes(t *testing.T) {
	tm := testutil.Tilemap(t, "....")
	leader := newChar(tm, "leader", 3, 0)
	follower := newChar(tm, "follower", 0, 0)
	m := NewFollowMovement(follower, leader, FollowOptions{Distance: 2}, nil)
	follower.SetMovement(m)
	assert.Equal(t, 1, leader.PositionChangeStarted().Len())
	assert.Equal(t, "leader", m.Followed())
	assert.Equal(t, tilemap.At(3, 0, "ground"), m.Target())

	follower.SetMovement(nil)
	assert.Equal(t, 0, leader.PositionChangeStarted().Len())

	leader.Move(direction.Left)
	tick(10, 50, leader, follower)
	assert.Equal(t, tilemap.At(0, 0, "ground"), follower.TilePos())
}
