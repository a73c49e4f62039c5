package movement

import (
	"fmt"

	"gridwalk/internal/character"
	"gridwalk/internal/event"
	"gridwalk/internal/tilemap"

	"github.com/sirupsen/logrus"
)

// FollowOptions configure a follow movement.
type FollowOptions struct {
	// Distance is the stand-off in steps. 0 tries to share the followed
	// character's tile, which only works when their collision groups differ.
	Distance            int
	NoPathFoundStrategy NoPathFoundStrategy
}

// FollowMovement keeps a character close to another one by restarting a target
// movement towards the followed character's destination tile whenever that
// character begins a step.
type FollowMovement struct {
	char     *character.GridCharacter
	followed *character.GridCharacter
	opts     FollowOptions
	log      *logrus.Entry

	inner *TargetMovement
	sub   event.Subscription
}

func NewFollowMovement(c, followed *character.GridCharacter, opts FollowOptions, log *logrus.Entry) *FollowMovement {
	if opts.NoPathFoundStrategy == "" {
		opts.NoPathFoundStrategy = NoPathStop
	}
	if opts.Distance < 0 {
		opts.Distance = 0
	}
	m := &FollowMovement{
		char:     c,
		followed: followed,
		opts:     opts,
		log:      log,
	}
	m.retarget(followed.NextTilePos())
	m.sub = followed.PositionChangeStarted().Subscribe(func(p character.PositionChange) {
		m.retarget(layerPos(p.EnterTile, p.EnterLayer))
	})
	return m
}

func (m *FollowMovement) Type() Type { return TypeFollow }

func (m *FollowMovement) Describe() string {
	return fmt.Sprintf("follow %s (distance %d, no path: %s)", m.followed.ID(), m.opts.Distance, m.opts.NoPathFoundStrategy)
}

// Followed returns the id of the character being followed.
func (m *FollowMovement) Followed() string { return m.followed.ID() }

// Target returns the tile the follower currently walks to.
func (m *FollowMovement) Target() tilemap.LayerPosition { return m.inner.Target() }

func (m *FollowMovement) Update(deltaMs float64) {
	m.inner.Update(deltaMs)
}

// Stop unsubscribes from the followed character.
func (m *FollowMovement) Stop() {
	m.sub.Unsubscribe()
	m.inner.Stop()
}

func (m *FollowMovement) retarget(pos tilemap.LayerPosition) {
	if m.inner != nil {
		m.inner.Stop()
	}
	opts := DefaultTargetOptions()
	opts.Distance = m.opts.Distance
	opts.NoPathFoundStrategy = m.opts.NoPathFoundStrategy
	m.inner = NewTargetMovement(m.char, pos, opts, m.log)
}
