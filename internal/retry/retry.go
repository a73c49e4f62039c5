// Package retry implements a tick-driven retry policy with a fixed backoff.
package retry

const (
	DefaultBackoffMs  = 200
	DefaultMaxRetries = -1 // unbounded
)

// Retryable calls a function every time the accumulated tick time reaches the
// backoff, until it has done so maxRetries times. The next attempt after that
// calls the give-up callback once instead and the controller goes quiet until
// Reset.
type Retryable struct {
	backoffMs  float64
	maxRetries int
	onGiveUp   func()

	elapsed float64
	retries int
	gaveUp  bool
}

// New creates a controller. backoffMs <= 0 selects the default backoff and a
// negative maxRetries retries forever.
func New(backoffMs float64, maxRetries int, onGiveUp func()) *Retryable {
	if backoffMs <= 0 {
		backoffMs = DefaultBackoffMs
	}
	return &Retryable{
		backoffMs:  backoffMs,
		maxRetries: maxRetries,
		onGiveUp:   onGiveUp,
	}
}

// Retry adds deltaMs to the elapsed time and calls fn once the backoff has
// passed.
func (r *Retryable) Retry(deltaMs float64, fn func()) {
	if r.gaveUp {
		return
	}
	r.elapsed += deltaMs
	if r.elapsed < r.backoffMs {
		return
	}
	r.elapsed = 0
	r.retries++
	if r.maxRetries < 0 || r.retries <= r.maxRetries {
		fn()
		return
	}
	r.gaveUp = true
	if r.onGiveUp != nil {
		r.onGiveUp()
	}
}

// Reset clears the elapsed time and the retry count.
func (r *Retryable) Reset() {
	r.elapsed = 0
	r.retries = 0
	r.gaveUp = false
}

// Retries is the number of backoff periods that have passed since the last
// reset, including the one that gave up.
func (r *Retryable) Retries() int {
	return r.retries
}
