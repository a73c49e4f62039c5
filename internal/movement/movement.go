// Package movement contains the strategies that drive characters on their own:
// random wandering, walking to a target tile and following another character.
package movement

import (
	"math/rand"
	"strings"

	"gridwalk/internal/mathutil"
	"gridwalk/internal/tilemap"
)

// Type names a movement strategy.
type Type string

const (
	TypeRandom Type = "Random"
	TypeTarget Type = "Target"
	TypeFollow Type = "Follow"
	TypeNone   Type = ""
)

// Describer is implemented by every strategy in this package.
type Describer interface {
	Type() Type
	Describe() string
}

// Result is the outcome of a target movement.
type Result string

const (
	Success                Result = "SUCCESS"
	NoPathFound            Result = "NO_PATH_FOUND"
	PathBlocked            Result = "PATH_BLOCKED"
	PathBlockedWaitTimeout Result = "PATH_BLOCKED_WAIT_TIMEOUT"
)

// Finished is delivered once when a target movement ends.
type Finished struct {
	Position    mathutil.Vec2
	Layer       string
	Result      Result
	Description string
}

// NoPathFoundStrategy decides what happens when the goal cannot be reached.
type NoPathFoundStrategy string

const (
	NoPathStop             NoPathFoundStrategy = "STOP"
	NoPathClosestReachable NoPathFoundStrategy = "CLOSEST_REACHABLE"
	NoPathRetry            NoPathFoundStrategy = "RETRY"
)

// ParseNoPathFoundStrategy accepts the upper-case policy names. The empty
// string selects STOP.
func ParseNoPathFoundStrategy(s string) (NoPathFoundStrategy, bool) {
	switch v := NoPathFoundStrategy(strings.ToUpper(strings.TrimSpace(s))); v {
	case "":
		return NoPathStop, true
	case NoPathStop, NoPathClosestReachable, NoPathRetry:
		return v, true
	}
	return NoPathStop, false
}

// PathBlockedStrategy decides what happens when the next step is occupied.
type PathBlockedStrategy string

const (
	PathBlockedWait  PathBlockedStrategy = "WAIT"
	PathBlockedRetry PathBlockedStrategy = "RETRY"
	PathBlockedStop  PathBlockedStrategy = "STOP"
)

// ParsePathBlockedStrategy accepts the upper-case policy names. The empty
// string selects WAIT.
func ParsePathBlockedStrategy(s string) (PathBlockedStrategy, bool) {
	switch v := PathBlockedStrategy(strings.ToUpper(strings.TrimSpace(s))); v {
	case "":
		return PathBlockedWait, true
	case PathBlockedWait, PathBlockedRetry, PathBlockedStop:
		return v, true
	}
	return PathBlockedWait, false
}

// Randomizer is the source of randomness for RandomMovement. *rand.Rand
// satisfies it.
type Randomizer interface {
	Intn(n int) int
}

var _ Randomizer = (*rand.Rand)(nil)

func layerPos(p mathutil.Vec2, layer string) tilemap.LayerPosition {
	return tilemap.LayerPosition{Position: p, Layer: layer}
}
