// Package event provides the push-based notification primitives the engine uses
// to report character state changes. Subjects are not safe for concurrent use;
// the engine is driven from a single goroutine.
package event

// Subscription cancels a registration made with Subject.Subscribe.
type Subscription interface {
	Unsubscribe()
}

// Subject fans a value out to every registered listener in subscription order.
type Subject[T any] struct {
	listeners []*listener[T]
	completed bool
}

type listener[T any] struct {
	fn     func(T)
	active bool
	owner  *Subject[T]
}

func (l *listener[T]) Unsubscribe() {
	if !l.active {
		return
	}
	l.active = false
	l.owner.remove(l)
}

// NewSubject creates an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers fn. Subscribing to a completed subject returns an
// inactive subscription.
func (s *Subject[T]) Subscribe(fn func(T)) Subscription {
	l := &listener[T]{fn: fn, owner: s}
	if s.completed {
		return l
	}
	l.active = true
	s.listeners = append(s.listeners, l)
	return l
}

// Emit delivers v to the listeners registered at the time of the call. A
// listener unsubscribed by an earlier listener during the same Emit is skipped.
func (s *Subject[T]) Emit(v T) {
	if s.completed || len(s.listeners) == 0 {
		return
	}
	snapshot := make([]*listener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	for _, l := range snapshot {
		if l.active {
			l.fn(v)
		}
	}
}

// Complete drops every listener; later Emit calls are no-ops.
func (s *Subject[T]) Complete() {
	for _, l := range s.listeners {
		l.active = false
	}
	s.listeners = nil
	s.completed = true
}

// Len returns the number of active listeners.
func (s *Subject[T]) Len() int {
	return len(s.listeners)
}

func (s *Subject[T]) remove(target *listener[T]) {
	for i, l := range s.listeners {
		if l == target {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Group collects subscriptions that share a lifetime, such as everything the
// engine subscribed to for one character.
type Group struct {
	subs []Subscription
}

func (g *Group) Add(sub Subscription) {
	g.subs = append(g.subs, sub)
}

// Unsubscribe cancels every subscription in the group.
func (g *Group) Unsubscribe() {
	for _, sub := range g.subs {
		sub.Unsubscribe()
	}
	g.subs = nil
}
