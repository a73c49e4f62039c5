package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectEmitsInOrder(t *testing.T) {
	s := NewSubject[int]()
	var got []string
	s.Subscribe(func(v int) { got = append(got, "a") })
	s.Subscribe(func(v int) { got = append(got, "b") })

	s.Emit(1)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, s.Len())
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	s := NewSubject[int]()
	calls := 0
	var second Subscription
	s.Subscribe(func(int) { second.Unsubscribe() })
	second = s.Subscribe(func(int) { calls++ })

	s.Emit(1)
	s.Emit(2)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, s.Len())
}

func TestCompleteStopsDelivery(t *testing.T) {
	s := NewSubject[string]()
	calls := 0
	sub := s.Subscribe(func(string) { calls++ })

	s.Complete()
	s.Emit("x")
	sub.Unsubscribe()
	s.Subscribe(func(string) { calls++ })
	s.Emit("y")

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, s.Len())
}

func TestGroupUnsubscribe(t *testing.T) {
	a := NewSubject[int]()
	b := NewSubject[int]()
	calls := 0
	var g Group
	g.Add(a.Subscribe(func(int) { calls++ }))
	g.Add(b.Subscribe(func(int) { calls++ }))

	a.Emit(1)
	g.Unsubscribe()
	a.Emit(1)
	b.Emit(1)

	assert.Equal(t, 1, calls)
}
