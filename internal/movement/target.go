package movement

import (
	"fmt"

	"gridwalk/internal/character"
	"gridwalk/internal/direction"
	"gridwalk/internal/logger"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/pathfinding"
	"gridwalk/internal/retry"
	"gridwalk/internal/tilemap"

	"github.com/sirupsen/logrus"
)

// TargetState is the phase of a target movement.
type TargetState int

const (
	Searching TargetState = iota
	MovingStep
	WaitingRetry
	Done
)

func (s TargetState) String() string {
	switch s {
	case MovingStep:
		return "MOVING_STEP"
	case WaitingRetry:
		return "WAITING_RETRY"
	case Done:
		return "FINISHED"
	}
	return "SEARCHING"
}

// TargetOptions configure a target movement. Empty strategies select STOP and
// WAIT, a zero backoff the default one. Note that a zero max retries gives up
// on the first retry; DefaultTargetOptions retries forever.
type TargetOptions struct {
	// Distance is the number of steps away from the target at which the
	// movement counts as arrived.
	Distance int

	NoPathFoundStrategy       NoPathFoundStrategy
	NoPathFoundRetryBackoffMs float64
	NoPathFoundMaxRetries     int

	PathBlockedStrategy       PathBlockedStrategy
	PathBlockedRetryBackoffMs float64
	PathBlockedMaxRetries     int
	// PathBlockedWaitTimeoutMs bounds WAIT. 0 waits forever.
	PathBlockedWaitTimeoutMs float64

	// MaxSearchRadius limits pathfinding around the character. 0 is unbounded.
	MaxSearchRadius int
}

// DefaultTargetOptions returns options with unbounded retries.
func DefaultTargetOptions() TargetOptions {
	return TargetOptions{
		NoPathFoundStrategy:   NoPathStop,
		NoPathFoundMaxRetries: retry.DefaultMaxRetries,
		PathBlockedStrategy:   PathBlockedWait,
		PathBlockedMaxRetries: retry.DefaultMaxRetries,
	}
}

// TargetMovement walks a character along the shortest path to a target tile.
// It only acts while the character is idle; a step in progress always
// completes first.
type TargetMovement struct {
	char   *character.GridCharacter
	tm     *tilemap.GridTilemap
	target tilemap.LayerPosition
	opts   TargetOptions
	log    *logrus.Entry

	state      TargetState
	path       []tilemap.LayerPosition
	pathTarget tilemap.LayerPosition
	toClosest  bool

	retryingNoPath bool
	noPathRetry    *retry.Retryable
	blockedRetry   *retry.Retryable
	waitElapsed    float64

	finished chan Finished
	closed   bool

	searches      int
	retryAttempts int
}

// NewTargetMovement creates a movement towards target. The returned movement
// must be attached with GridCharacter.SetMovement.
func NewTargetMovement(c *character.GridCharacter, target tilemap.LayerPosition, opts TargetOptions, log *logrus.Entry) *TargetMovement {
	if opts.NoPathFoundStrategy == "" {
		opts.NoPathFoundStrategy = NoPathStop
	}
	if opts.PathBlockedStrategy == "" {
		opts.PathBlockedStrategy = PathBlockedWait
	}
	if opts.Distance < 0 {
		opts.Distance = 0
	}
	if log == nil {
		log = logger.Component(nil, "movement")
	}
	m := &TargetMovement{
		char:     c,
		tm:       c.Tilemap(),
		target:   target,
		opts:     opts,
		log:      log.WithFields(logrus.Fields{"char_id": c.ID(), "movement": TypeTarget}),
		finished: make(chan Finished, 1),
	}
	m.noPathRetry = retry.New(opts.NoPathFoundRetryBackoffMs, opts.NoPathFoundMaxRetries, func() {
		m.finish(NoPathFound, "no path found after max retries")
	})
	m.blockedRetry = retry.New(opts.PathBlockedRetryBackoffMs, opts.PathBlockedMaxRetries, func() {
		m.finish(PathBlocked, "path blocked after max retries")
	})
	return m
}

func (m *TargetMovement) Type() Type { return TypeTarget }

func (m *TargetMovement) Describe() string {
	return fmt.Sprintf("target %s (distance %d, no path: %s, blocked: %s)",
		m.target, m.opts.Distance, m.opts.NoPathFoundStrategy, m.opts.PathBlockedStrategy)
}

// Target returns the goal tile.
func (m *TargetMovement) Target() tilemap.LayerPosition { return m.target }

// State returns the current phase.
func (m *TargetMovement) State() TargetState { return m.state }

// Finished delivers exactly one value when the movement ends, then closes. It
// closes without a value if the movement is stopped first.
func (m *TargetMovement) Finished() <-chan Finished { return m.finished }

// Stop ends the movement without a result.
func (m *TargetMovement) Stop() {
	if m.closed {
		return
	}
	m.state = Done
	m.closed = true
	close(m.finished)
}

// Update decides the next step. Nothing happens while the character walks.
func (m *TargetMovement) Update(deltaMs float64) {
	if m.state == Done || m.char.IsMoving() || m.char.IsDestroyed() {
		return
	}

	if m.state == WaitingRetry {
		if m.retryingNoPath {
			m.noPathRetry.Retry(deltaMs, func() {
				m.retryAttempts++
				m.attempt(0)
			})
		} else {
			m.blockedRetry.Retry(deltaMs, func() {
				m.retryAttempts++
				m.attempt(0)
			})
		}
		return
	}
	m.attempt(deltaMs)
}

// attempt runs one search-and-step cycle. deltaMs feeds the WAIT timeout.
func (m *TargetMovement) attempt(deltaMs float64) {
	pos := m.char.TilePos()
	if pos == m.target {
		m.finish(Success, "")
		return
	}

	path := m.currentPath()
	if len(path) == 0 {
		m.noPath()
		return
	}
	if m.hasArrived(path) {
		m.finish(Success, "")
		return
	}

	next := path[1]
	dir := m.directionTo(pos, next)
	if m.char.IsBlockingDirection(dir) {
		detour := m.search(true)
		if len(detour.Path) < 2 || m.char.IsBlockingDirection(m.directionTo(pos, detour.Path[1])) {
			m.blocked(deltaMs)
			return
		}
		m.path = detour.Path
		m.pathTarget = m.target
		m.toClosest = false
		next = detour.Path[1]
		dir = m.directionTo(pos, next)
	}

	m.retryingNoPath = false
	m.noPathRetry.Reset()
	m.blockedRetry.Reset()
	m.waitElapsed = 0
	m.state = MovingStep
	m.char.Move(dir)
}

// currentPath reuses the cached path while it still starts at the character's
// tile and leads to the current target.
func (m *TargetMovement) currentPath() []tilemap.LayerPosition {
	pos := m.char.TilePos()
	if len(m.path) > 1 && m.pathTarget == m.target {
		if m.path[0] == pos {
			return m.path
		}
		if m.path[1] == pos {
			m.path = m.path[1:]
			return m.path
		}
	}

	m.state = Searching
	res := m.search(false)
	m.pathTarget = m.target
	m.toClosest = false
	m.path = res.Path
	if len(res.Path) == 0 && m.opts.NoPathFoundStrategy == NoPathClosestReachable {
		m.toClosest = true
		m.path = res.ClosestPath
	}
	return m.path
}

func (m *TargetMovement) hasArrived(path []tilemap.LayerPosition) bool {
	steps := len(path) - 1
	if m.toClosest {
		return steps == 0
	}
	return steps <= m.opts.Distance
}

// search runs the pathfinder. The first pass only honours static blocking;
// withChars also avoids other characters, except on the target tile.
func (m *TargetMovement) search(withChars bool) pathfinding.Result {
	m.searches++
	groups := m.char.CollisionGroups()
	id := m.char.ID()
	ignoreTiles := !m.char.CollidesWithTiles()
	return pathfinding.ShortestPath(m.char.TilePos(), m.target, pathfinding.Options{
		Mode:            m.char.Mode(),
		MaxSearchRadius: m.opts.MaxSearchRadius,
		IsBlocking: func(p mathutil.Vec2, layer string) bool {
			pos := layerPos(p, layer)
			if m.tm.HasNoTile(pos) {
				return true
			}
			if !ignoreTiles && m.tm.HasBlockingTile(pos) {
				return true
			}
			return withChars && pos != m.target && m.tm.HasBlockingChar(pos, groups, id)
		},
		Transition: m.tm.GetTransition,
	})
}

func (m *TargetMovement) directionTo(from, to tilemap.LayerPosition) direction.Direction {
	return m.char.Mode().FromMap(direction.FromVector(to.Position.Sub(from.Position)))
}

func (m *TargetMovement) noPath() {
	switch m.opts.NoPathFoundStrategy {
	case NoPathRetry:
		m.log.Debug("No path found, retrying")
		m.state = WaitingRetry
		m.retryingNoPath = true
	default:
		m.finish(NoPathFound, fmt.Sprintf("no path found to %s", m.target))
	}
}

func (m *TargetMovement) blocked(deltaMs float64) {
	switch m.opts.PathBlockedStrategy {
	case PathBlockedRetry:
		m.log.Debug("Path blocked, retrying")
		m.state = WaitingRetry
		m.retryingNoPath = false
	case PathBlockedStop:
		m.finish(PathBlocked, "path blocked")
	default:
		m.state = Searching
		m.waitElapsed += deltaMs
		if m.opts.PathBlockedWaitTimeoutMs > 0 && m.waitElapsed >= m.opts.PathBlockedWaitTimeoutMs {
			m.finish(PathBlockedWaitTimeout, fmt.Sprintf("path blocked for %.0fms", m.waitElapsed))
		}
	}
}

func (m *TargetMovement) finish(result Result, description string) {
	if m.closed {
		return
	}
	pos := m.char.TilePos()
	m.log.WithFields(logrus.Fields{
		"result":   result,
		"position": pos,
	}).Debug("Target movement finished")

	m.state = Done
	m.closed = true
	m.finished <- Finished{
		Position:    pos.Position,
		Layer:       pos.Layer,
		Result:      result,
		Description: description,
	}
	close(m.finished)
}
