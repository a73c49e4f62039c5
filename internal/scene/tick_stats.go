package scene

import "time"

// TickStats tracks how long engine updates take. Like the engine it is owned
// by the goroutine that runs the game loop.
type TickStats struct {
	tickCount  uint64
	lastTick   time.Duration
	avgTick    float64 // nanoseconds, exponential moving average
	maxTick    time.Duration
	characters int
}

// StatsSnapshot is a consistent copy of the tick statistics.
type StatsSnapshot struct {
	Ticks      uint64
	LastTick   time.Duration
	AvgTick    time.Duration
	MaxTick    time.Duration
	Characters int
}

const tickSmoothing = 0.1

func NewTickStats() *TickStats {
	return &TickStats{}
}

// TickTimer measures one engine update.
type TickTimer struct {
	stats     *TickStats
	startTime time.Time
}

// StartTick begins timing an update.
func (ts *TickStats) StartTick() *TickTimer {
	return &TickTimer{stats: ts, startTime: time.Now()}
}

// EndTick records the elapsed time and the number of characters updated.
func (tt *TickTimer) EndTick(characters int) {
	tt.stats.record(time.Since(tt.startTime), characters)
}

func (ts *TickStats) record(d time.Duration, characters int) {
	ts.tickCount++
	ts.lastTick = d
	ts.characters = characters
	if ts.tickCount == 1 {
		ts.avgTick = float64(d)
	} else {
		ts.avgTick += (float64(d) - ts.avgTick) * tickSmoothing
	}
	if d > ts.maxTick {
		ts.maxTick = d
	}
}

// Snapshot returns the current statistics.
func (ts *TickStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Ticks:      ts.tickCount,
		LastTick:   ts.lastTick,
		AvgTick:    time.Duration(ts.avgTick),
		MaxTick:    ts.maxTick,
		Characters: ts.characters,
	}
}

// Reset clears every counter.
func (ts *TickStats) Reset() {
	*ts = TickStats{}
}
