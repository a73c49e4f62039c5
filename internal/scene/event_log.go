package scene

import "fmt"

// EventLog keeps the most recent lines reported by the engine.
type EventLog struct {
	lines []string
	max   int
	total int
}

// NewEventLog creates a log holding at most max lines. max below 1 keeps one.
func NewEventLog(max int) *EventLog {
	if max < 1 {
		max = 1
	}
	return &EventLog{max: max}
}

// Add appends a formatted line, dropping the oldest one when full.
func (l *EventLog) Add(format string, args ...any) {
	l.total++
	line := fmt.Sprintf("%4d %s", l.total, fmt.Sprintf(format, args...))
	if len(l.lines) == l.max {
		copy(l.lines, l.lines[1:])
		l.lines[len(l.lines)-1] = line
		return
	}
	l.lines = append(l.lines, line)
}

// Lines returns the retained lines, oldest first.
func (l *EventLog) Lines() []string {
	return append([]string(nil), l.lines...)
}

// Total is the number of lines ever added.
func (l *EventLog) Total() int {
	return l.total
}
