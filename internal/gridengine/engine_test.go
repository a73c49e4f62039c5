package gridengine

import (
	"errors"
	"math"
	"testing"

	"gridwalk/internal/character"
	"gridwalk/internal/config"
	"gridwalk/internal/direction"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/movement"
	"gridwalk/internal/testutil"
	"gridwalk/internal/tilemap"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

func newEngine(t *testing.T, cfg config.EngineConfig, rows ...string) (*Engine, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	e := New(WithLogger(log), WithRandomizer(firstRand{}))
	require.NoError(t, e.Create(testutil.Map(t, rows...), cfg))
	return e, hook
}

func add(t *testing.T, e *Engine, id string, x, y int) {
	t.Helper()
	require.NoError(t, e.AddCharacter(CharacterData{ID: id, Position: mathutil.V(x, y), Layer: "ground"}))
}

func update(t *testing.T, e *Engine, n int, deltaMs float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, e.Update(deltaMs))
	}
}

func warnings(hook *logtest.Hook) []string {
	var msgs []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			msgs = append(msgs, entry.Message)
		}
	}
	return msgs
}

func ground(x, y int) tilemap.LayerPosition {
	return tilemap.At(x, y, "ground")
}

func TestOperationsBeforeCreate(t *testing.T) {
	e := New()

	assert.ErrorIs(t, e.Update(16), ErrNotInitialized)
	assert.ErrorIs(t, e.AddCharacter(CharacterData{ID: "a"}), ErrNotInitialized)
	assert.ErrorIs(t, e.Move("a", direction.Up), ErrNotInitialized)
	_, err := e.MoveTo("a", ground(1, 1), MoveToOptions{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.IsBlocked(ground(0, 0))
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, e.RemoveAllCharacters(), ErrNotInitialized)
	assert.False(t, e.HasCharacter("a"))
}

func TestUnknownCharacter(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")

	err := e.Move("ghost", direction.Up)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCharacter))
	assert.Contains(t, err.Error(), "ghost")

	_, err = e.GetPosition("ghost")
	assert.ErrorIs(t, err, ErrUnknownCharacter)
	assert.ErrorIs(t, e.RemoveCharacter("ghost"), ErrUnknownCharacter)

	add(t, e, "a", 0, 0)
	assert.ErrorIs(t, e.Follow("a", "ghost", FollowOptions{}), ErrUnknownCharacter)
	assert.Error(t, e.Follow("a", "a", FollowOptions{}))
}

func TestAddCharacterDefaults(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")
	require.NoError(t, e.AddCharacter(CharacterData{ID: "a", Position: mathutil.V(1, 0)}))

	pos, err := e.GetPosition("a")
	require.NoError(t, err)
	assert.Equal(t, mathutil.V(1, 0), pos)

	speed, _ := e.GetSpeed("a")
	assert.Equal(t, config.DefaultSpeed, speed)
	layer, _ := e.GetCharLayer("a")
	assert.Equal(t, "", layer)
	facing, _ := e.GetFacingDirection("a")
	assert.Equal(t, direction.Down, facing)
	groups, _ := e.GetCollisionGroups("a")
	assert.Equal(t, []string{config.DefaultCollisionGroup}, groups)
	info, _ := e.GetMovement("a")
	assert.Equal(t, movement.TypeNone, info.Type)
}

func TestAddCharacterTwiceIsNoOp(t *testing.T) {
	e, hook := newEngine(t, config.EngineConfig{}, "...")
	add(t, e, "a", 0, 0)
	require.NoError(t, e.AddCharacter(CharacterData{ID: "a", Position: mathutil.V(2, 0), Layer: "ground"}))

	assert.Equal(t, []string{"a"}, e.GetAllCharacters())
	pos, _ := e.GetPosition("a")
	assert.Equal(t, mathutil.V(0, 0), pos)
	assert.Equal(t, []string{"Character already registered"}, warnings(hook))
}

func TestDiagonalMoveRejectedInFourDirectionMode(t *testing.T) {
	e, hook := newEngine(t, config.EngineConfig{NumberOfDirections: 4}, "...", "...", "...")
	add(t, e, "a", 1, 1)

	events := 0
	e.MovementStarted().Subscribe(func(DirectionEvent) { events++ })
	e.PositionChangeStarted().Subscribe(func(PositionChangeEvent) { events++ })
	e.DirectionChanged().Subscribe(func(DirectionEvent) { events++ })

	require.NoError(t, e.Move("a", direction.DownLeft))
	update(t, e, 3, 100)

	assert.Zero(t, events)
	pos, _ := e.GetPosition("a")
	assert.Equal(t, mathutil.V(1, 1), pos)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "a", hook.LastEntry().Data["char_id"])
}

func TestMoveEmitsEngineEvents(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")
	add(t, e, "a", 0, 0)

	var started, stopped []DirectionEvent
	var finished []PositionChangeEvent
	e.MovementStarted().Subscribe(func(ev DirectionEvent) { started = append(started, ev) })
	e.MovementStopped().Subscribe(func(ev DirectionEvent) { stopped = append(stopped, ev) })
	e.PositionChangeFinished().Subscribe(func(ev PositionChangeEvent) { finished = append(finished, ev) })

	require.NoError(t, e.Move("a", direction.Right))
	moving, _ := e.IsMoving("a")
	assert.True(t, moving)
	next, _ := e.GetNextPosition("a")
	assert.Equal(t, ground(1, 0), next)

	update(t, e, 1, 125)
	progress, _ := e.GetMovementProgress("a")
	assert.InDelta(t, 0.5, progress, 1e-9)

	update(t, e, 1, 125)
	assert.Equal(t, []DirectionEvent{{CharID: "a", Direction: direction.Right}}, started)
	assert.Equal(t, []DirectionEvent{{CharID: "a", Direction: direction.Right}}, stopped)
	require.Len(t, finished, 1)
	assert.Equal(t, "a", finished[0].CharID)
	assert.Equal(t, mathutil.V(0, 0), finished[0].ExitTile)
	assert.Equal(t, mathutil.V(1, 0), finished[0].EnterTile)
}

func TestMoveToReportsSuccess(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "....")
	add(t, e, "a", 0, 0)

	done, err := e.MoveTo("a", ground(3, 0), MoveToOptions{})
	require.NoError(t, err)
	info, _ := e.GetMovement("a")
	assert.Equal(t, movement.TypeTarget, info.Type)
	assert.NotEmpty(t, info.Description)

	update(t, e, 10, 100)

	f, ok := <-done
	require.True(t, ok)
	assert.Equal(t, movement.Success, f.Result)
	assert.Equal(t, mathutil.V(3, 0), f.Position)
	_, ok = <-done
	assert.False(t, ok)
}

func TestMoveToUnknownPoliciesFallBack(t *testing.T) {
	e, hook := newEngine(t, config.EngineConfig{}, "..#.")
	add(t, e, "a", 0, 0)

	done, err := e.MoveTo("a", ground(3, 0), MoveToOptions{
		NoPathFoundStrategy: "SOMETIMES",
		PathBlockedStrategy: "PANIC",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Unknown NoPathFoundStrategy 'SOMETIMES'. Falling back to 'STOP'",
		"Unknown PathBlockedStrategy 'PANIC'. Falling back to 'WAIT'",
	}, warnings(hook))

	update(t, e, 1, 100)
	f, ok := <-done
	require.True(t, ok)
	assert.Equal(t, movement.NoPathFound, f.Result)
}

func TestRemoveCharacterMidSeek(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, ".....")
	add(t, e, "a", 0, 0)
	done, err := e.MoveTo("a", ground(4, 0), MoveToOptions{})
	require.NoError(t, err)

	update(t, e, 1, 100)
	moving, _ := e.IsMoving("a")
	require.True(t, moving)

	events := 0
	e.MovementStopped().Subscribe(func(DirectionEvent) { events++ })
	e.PositionChangeStarted().Subscribe(func(PositionChangeEvent) { events++ })
	e.PositionChangeFinished().Subscribe(func(PositionChangeEvent) { events++ })
	var removed []CharacterEvent
	e.CharacterRemoved().Subscribe(func(ev CharacterEvent) { removed = append(removed, ev) })

	require.NoError(t, e.RemoveCharacter("a"))

	assert.Equal(t, []CharacterEvent{{CharID: "a"}}, removed)
	assert.False(t, e.HasCharacter("a"))
	blocked, _ := e.IsBlocked(ground(0, 0))
	assert.False(t, blocked)
	blocked, _ = e.IsBlocked(ground(1, 0))
	assert.False(t, blocked)
	assert.Empty(t, e.tm.HeldBy("a"))

	_, ok := <-done
	assert.False(t, ok)

	update(t, e, 5, 100)
	assert.Zero(t, events)
}

func TestRemovingFollowedCharacterStopsFollower(t *testing.T) {
	e, hook := newEngine(t, config.EngineConfig{}, ".....")
	add(t, e, "leader", 4, 0)
	add(t, e, "dog", 0, 0)
	require.NoError(t, e.Follow("dog", "leader", FollowOptions{Distance: 1}))

	info, _ := e.GetMovement("dog")
	assert.Equal(t, movement.TypeFollow, info.Type)

	require.NoError(t, e.RemoveCharacter("leader"))

	info, _ = e.GetMovement("dog")
	assert.Equal(t, movement.TypeNone, info.Type)
	assert.Equal(t, []string{"Followed character leader was removed, stopping"}, warnings(hook))
}

func TestSteppedOnFiltersEvents(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "....", "....")
	add(t, e, "a", 0, 0)
	add(t, e, "b", 0, 1)

	var hits []PositionChangeEvent
	sub := e.SteppedOn([]string{"a"}, []mathutil.Vec2{mathutil.V(2, 0)}, nil, func(ev PositionChangeEvent) {
		hits = append(hits, ev)
	})

	_, err := e.MoveTo("a", ground(3, 0), MoveToOptions{})
	require.NoError(t, err)
	_, err = e.MoveTo("b", ground(3, 1), MoveToOptions{})
	require.NoError(t, err)
	update(t, e, 10, 100)

	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].CharID)
	assert.Equal(t, mathutil.V(2, 0), hits[0].EnterTile)

	sub.Unsubscribe()
	_, err = e.MoveTo("a", ground(0, 0), MoveToOptions{})
	require.NoError(t, err)
	update(t, e, 10, 100)
	assert.Len(t, hits, 1)
}

func TestIsBlocked(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, ".#. ")
	require.NoError(t, e.AddCharacter(CharacterData{
		ID:              "a",
		Position:        mathutil.V(2, 0),
		Layer:           "ground",
		CollisionGroups: []string{"guards"},
	}))

	cases := []struct {
		name   string
		pos    tilemap.LayerPosition
		groups []string
		want   bool
	}{
		{"floor", ground(0, 0), nil, false},
		{"wall", ground(1, 0), nil, true},
		{"no tile", ground(3, 0), nil, true},
		{"outside", ground(9, 9), nil, true},
		{"char default group", ground(2, 0), nil, false},
		{"char same group", ground(2, 0), []string{"guards"}, true},
		{"char other group", ground(2, 0), []string{"thieves"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.IsBlocked(tc.pos, tc.groups...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	blocked, err := e.IsTileBlocked(ground(2, 0))
	require.NoError(t, err)
	assert.False(t, blocked)
	blocked, _ = e.IsTileBlocked(ground(1, 0))
	assert.True(t, blocked)
}

func TestTransitionsChangeLayer(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	e := New(WithLogger(log))
	require.NoError(t, e.Create(testutil.Layers(t,
		testutil.Layer{Name: "ground", Rows: []string{".. "}},
		testutil.Layer{Name: "upper", Rows: []string{" .."}},
	), config.EngineConfig{}))
	add(t, e, "a", 0, 0)

	require.NoError(t, e.SetTransition(mathutil.V(1, 0), "ground", "upper"))
	to, ok, err := e.GetTransition(mathutil.V(1, 0), "ground")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "upper", to)

	require.NoError(t, e.Move("a", direction.Right))
	update(t, e, 1, 250)

	layer, _ := e.GetCharLayer("a")
	assert.Equal(t, "upper", layer)

	require.NoError(t, e.Move("a", direction.Right))
	update(t, e, 1, 250)
	pos, _ := e.GetPosition("a")
	assert.Equal(t, mathutil.V(2, 0), pos)
}

func TestSetPositionAndMutations(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "....")
	add(t, e, "a", 0, 0)

	require.NoError(t, e.SetPosition("a", ground(3, 0)))
	pos, _ := e.GetPosition("a")
	assert.Equal(t, mathutil.V(3, 0), pos)
	blocked, _ := e.IsBlocked(ground(0, 0))
	assert.False(t, blocked)

	require.NoError(t, e.SetSpeed("a", 8))
	speed, _ := e.GetSpeed("a")
	assert.Equal(t, 8.0, speed)
	assert.Error(t, e.SetSpeed("a", 0))

	require.NoError(t, e.TurnTowards("a", direction.Left))
	facing, _ := e.GetFacingDirection("a")
	assert.Equal(t, direction.Left, facing)

	require.NoError(t, e.SetCollisionGroups("a", []string{"x"}))
	groups, _ := e.GetCollisionGroups("a")
	assert.Equal(t, []string{"x"}, groups)
}

func TestMoveRandomlyAndStop(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...", "...", "...")
	add(t, e, "a", 1, 1)

	require.NoError(t, e.MoveRandomly("a", 0, 1))
	info, _ := e.GetMovement("a")
	assert.Equal(t, movement.TypeRandom, info.Type)

	update(t, e, 1, 10)
	moving, _ := e.IsMoving("a")
	assert.True(t, moving)

	require.NoError(t, e.StopMovement("a"))
	info, _ = e.GetMovement("a")
	assert.Equal(t, movement.TypeNone, info.Type)
}

func TestCreateAgainRemovesCharacters(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")
	add(t, e, "a", 0, 0)
	add(t, e, "b", 1, 0)

	var removed []string
	e.CharacterRemoved().Subscribe(func(ev CharacterEvent) { removed = append(removed, ev.CharID) })

	require.NoError(t, e.Create(testutil.Map(t, "....."), config.EngineConfig{NumberOfDirections: 8}))
	assert.Equal(t, []string{"a", "b"}, removed)
	assert.Empty(t, e.GetAllCharacters())
	assert.Equal(t, direction.Eight, e.Mode().Directions)

	assert.Error(t, e.Create(testutil.Map(t, "."), config.EngineConfig{NumberOfDirections: 6}))
}

func TestUpdateSkipsCharactersRemovedDuringTick(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "....", "....")
	add(t, e, "a", 0, 0)
	add(t, e, "b", 0, 1)
	require.NoError(t, e.Move("a", direction.Right))
	require.NoError(t, e.Move("b", direction.Right))

	e.PositionChangeFinished().Subscribe(func(ev PositionChangeEvent) {
		if ev.CharID == "a" && e.HasCharacter("b") {
			require.NoError(t, e.RemoveCharacter("b"))
		}
	})
	var bFinished int
	e.PositionChangeFinished().Subscribe(func(ev PositionChangeEvent) {
		if ev.CharID == "b" {
			bFinished++
		}
	})

	update(t, e, 1, 250)
	assert.Equal(t, []string{"a"}, e.GetAllCharacters())
	assert.Zero(t, bFinished)
}

func TestAnimationEventsCarryCharID(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")
	add(t, e, "a", 0, 0)

	var phases []character.AnimationPhase
	e.AnimationPhaseChanged().Subscribe(func(ev AnimationEvent) {
		assert.Equal(t, "a", ev.CharID)
		phases = append(phases, ev.Phase)
	})
	require.NoError(t, e.Move("a", direction.Right))
	update(t, e, 2, 125)

	assert.Equal(t, []character.AnimationPhase{character.LeftFoot, character.Standing}, phases)
}

func TestSingleMoveIndependentOfFrameSplit(t *testing.T) {
	for _, frames := range [][]float64{{250}, {200, 50}, {125, 125}, {250, 250}, {100, 100, 100, 100}} {
		e, _ := newEngine(t, config.EngineConfig{}, ".....")
		add(t, e, "a", 0, 0)
		require.NoError(t, e.Move("a", direction.Right))
		for _, ms := range frames {
			require.NoError(t, e.Update(ms))
		}

		pos, _ := e.GetPosition("a")
		moving, _ := e.IsMoving("a")
		assert.Equal(t, mathutil.V(1, 0), pos, "frames %v", frames)
		assert.False(t, moving, "frames %v", frames)
	}
}

func TestUpdateIgnoresInvalidDeltas(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")
	add(t, e, "a", 0, 0)
	require.NoError(t, e.Move("a", direction.Right))
	update(t, e, 1, 100)

	for _, ms := range []float64{-500, math.NaN(), math.Inf(1), math.Inf(-1), 0} {
		require.NoError(t, e.Update(ms))
		progress, _ := e.GetMovementProgress("a")
		assert.InDelta(t, 0.4, progress, 1e-9, "delta %v", ms)
	}

	update(t, e, 1, 150)
	pos, _ := e.GetPosition("a")
	assert.Equal(t, mathutil.V(1, 0), pos)
}

func TestOccupancyQueries(t *testing.T) {
	e, _ := newEngine(t, config.EngineConfig{}, "...")
	add(t, e, "a", 0, 0)
	add(t, e, "b", 2, 0)

	require.NoError(t, e.Move("a", direction.Right))
	held, err := e.GetReservedTiles("a")
	require.NoError(t, err)
	assert.Equal(t, []tilemap.LayerPosition{ground(0, 0), ground(1, 0)}, held)

	ids, err := e.GetCharactersAt(ground(1, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	update(t, e, 1, 250)
	held, _ = e.GetReservedTiles("a")
	assert.Equal(t, []tilemap.LayerPosition{ground(1, 0)}, held)
	ids, _ = e.GetCharactersAt(ground(0, 0))
	assert.Empty(t, ids)

	_, err = e.GetReservedTiles("ghost")
	assert.ErrorIs(t, err, ErrUnknownCharacter)
	_, err = New().GetCharactersAt(ground(0, 0))
	assert.ErrorIs(t, err, ErrNotInitialized)
}
