package character

import "gridwalk/internal/event"

// AnimationPhase is the walking pose a renderer should show. Picking the
// actual sprite frame is left to the renderer.
type AnimationPhase int

const (
	Standing AnimationPhase = iota
	LeftFoot
	RightFoot
)

func (p AnimationPhase) String() string {
	switch p {
	case LeftFoot:
		return "left-foot"
	case RightFoot:
		return "right-foot"
	}
	return "standing"
}

// WalkingAnimation tracks the walking phase of a character. Each tile step
// starts on alternating feet and returns to standing after half a tile.
type WalkingAnimation struct {
	phase    AnimationPhase
	lastFoot AnimationPhase
	changed  *event.Subject[AnimationPhase]
}

func newWalkingAnimation() *WalkingAnimation {
	return &WalkingAnimation{
		phase:    Standing,
		lastFoot: RightFoot,
		changed:  event.NewSubject[AnimationPhase](),
	}
}

// Phase returns the current phase.
func (w *WalkingAnimation) Phase() AnimationPhase {
	return w.phase
}

func (w *WalkingAnimation) stepStarted() {
	if w.lastFoot == LeftFoot {
		w.lastFoot = RightFoot
	} else {
		w.lastFoot = LeftFoot
	}
	w.set(w.lastFoot)
}

func (w *WalkingAnimation) progressed(progress float64) {
	if progress >= 0.5 {
		w.set(Standing)
	}
}

func (w *WalkingAnimation) stopped() {
	w.set(Standing)
}

func (w *WalkingAnimation) set(phase AnimationPhase) {
	if w.phase == phase {
		return
	}
	w.phase = phase
	w.changed.Emit(phase)
}
