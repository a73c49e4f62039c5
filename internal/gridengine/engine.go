// Package gridengine is the facade of the movement engine: it owns the
// occupancy map and every registered character, ticks them in registration
// order and multiplexes their state changes into engine-wide event streams.
package gridengine

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gridwalk/internal/character"
	"gridwalk/internal/config"
	"gridwalk/internal/direction"
	"gridwalk/internal/event"
	"gridwalk/internal/logger"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/movement"
	"gridwalk/internal/tilemap"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotInitialized   = errors.New("grid engine not initialized")
	ErrUnknownCharacter = errors.New("unknown character")
)

// TransitionSource is implemented by map data that declares layer transitions.
type TransitionSource interface {
	ForEachTransition(fn func(pos mathutil.Vec2, from, to string))
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine logging to l.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) {
		e.log = logger.Component(l, "gridengine")
	}
}

// WithRandomizer sets the randomness used by random movements.
func WithRandomizer(r movement.Randomizer) Option {
	return func(e *Engine) {
		e.rnd = r
	}
}

type charEntry struct {
	char *character.GridCharacter
	subs event.Group
}

// Engine drives every registered character. It is not safe for concurrent
// use; call it from the game loop goroutine.
type Engine struct {
	log *logrus.Entry
	rnd movement.Randomizer

	initialized bool
	cfg         config.EngineConfig
	mode        direction.Mode
	tm          *tilemap.GridTilemap

	chars map[string]*charEntry
	order []string

	movementStarted        *event.Subject[DirectionEvent]
	movementStopped        *event.Subject[DirectionEvent]
	directionChanged       *event.Subject[DirectionEvent]
	positionChangeStarted  *event.Subject[PositionChangeEvent]
	positionChangeFinished *event.Subject[PositionChangeEvent]
	animationPhaseChanged  *event.Subject[AnimationEvent]
	characterRemoved       *event.Subject[CharacterEvent]
}

// New creates an engine. Create must be called before anything else.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:   logger.Component(nil, "gridengine"),
		chars: make(map[string]*charEntry),

		movementStarted:        event.NewSubject[DirectionEvent](),
		movementStopped:        event.NewSubject[DirectionEvent](),
		directionChanged:       event.NewSubject[DirectionEvent](),
		positionChangeStarted:  event.NewSubject[PositionChangeEvent](),
		positionChangeFinished: event.NewSubject[PositionChangeEvent](),
		animationPhaseChanged:  event.NewSubject[AnimationEvent](),
		characterRemoved:       event.NewSubject[CharacterEvent](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Create initializes the engine on a map. Calling it again removes every
// character and starts over on the new map.
func (e *Engine) Create(tiles tilemap.Tiles, cfg config.EngineConfig) error {
	if tiles == nil {
		return fmt.Errorf("create grid engine: no map data")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("create grid engine: %w", err)
	}
	strategy, _ := tilemap.ParseCollisionStrategy(cfg.CharacterCollisionStrategy)

	if e.initialized {
		e.removeAll()
	}

	e.cfg = cfg
	e.mode = cfg.Mode()
	e.tm = tilemap.NewGridTilemap(tiles, tilemap.Options{
		CollisionTilePropertyName: cfg.CollisionTilePropertyName,
		CollisionStrategy:         strategy,
	})
	if src, ok := tiles.(TransitionSource); ok {
		src.ForEachTransition(e.tm.SetTransition)
	}
	e.initialized = true

	e.log.WithFields(logrus.Fields{
		"width":    tiles.GetWidth(),
		"height":   tiles.GetHeight(),
		"mode":     e.mode.String(),
		"strategy": strategy,
	}).Info("Grid engine created")
	return nil
}

// Mode returns the directional mode the engine was created with.
func (e *Engine) Mode() direction.Mode {
	return e.mode
}

// Update advances every character by deltaMs milliseconds, in registration
// order. Negative, NaN and infinite deltas count as 0.
func (e *Engine) Update(deltaMs float64) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if !(deltaMs > 0) || math.IsInf(deltaMs, 1) {
		deltaMs = 0
	}
	ids := append([]string(nil), e.order...)
	for _, id := range ids {
		if entry, ok := e.chars[id]; ok {
			entry.char.Update(deltaMs)
		}
	}
	return nil
}

func (e *Engine) character(id string) (*character.GridCharacter, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	entry, ok := e.chars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharacter, id)
	}
	return entry.char, nil
}

func (e *Engine) charLog(id string) *logrus.Entry {
	return e.log.WithField("char_id", id)
}
