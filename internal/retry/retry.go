package retry

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"wikifeed/internal/feederr"
)

const (
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxAttempts = 3
)

// Executor runs operations under a bounded, exponentially backed-off
// retry policy. Attempt counters are shared per operation identity:
// two concurrent callers using the same id draw from one retry budget,
// which caps total retry pressure on a single logical resource.
type Executor struct {
	mu        sync.Mutex
	attempts  map[string]int
	baseDelay time.Duration
	rng       *rand.Rand
}

// New creates an executor. A zero baseDelay falls back to the default.
func New(baseDelay time.Duration) *Executor {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Executor{
		attempts:  make(map[string]int),
		baseDelay: baseDelay,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Attempts returns the current shared attempt count for an identity
func (e *Executor) Attempts(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts[id]
}

// nextAttempt increments and returns the shared counter for id
func (e *Executor) nextAttempt(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts[id]++
	return e.attempts[id]
}

// reset zeroes the counter for id on success or final exhaustion
func (e *Executor) reset(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attempts, id)
}

// delay computes the backoff before the given attempt number:
// baseDelay * 2^(attempt-1) * jitter, jitter uniform in [0.8, 1.2]
func (e *Executor) delay(attempt int) time.Duration {
	backoff := e.baseDelay * (1 << (attempt - 1))
	e.mu.Lock()
	jitter := 0.8 + 0.4*e.rng.Float64()
	e.mu.Unlock()
	return time.Duration(float64(backoff) * jitter)
}

// Do invokes op under the executor's retry policy for the given
// identity. On success the shared counter resets and the value is
// returned. Retryable failures back off and retry while the counter is
// below maxAttempts; exhaustion or a non-retryable failure resets the
// counter and surfaces the classified error. No wall-clock deadline is
// enforced here; callers needing one wrap ctx with a timeout.
func Do[T any](ctx context.Context, e *Executor, id string, maxAttempts int, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for {
		if err := ctx.Err(); err != nil {
			e.reset(id)
			return zero, feederr.Classify(err)
		}

		attempt := e.nextAttempt(id)

		value, err := op(ctx)
		if err == nil {
			e.reset(id)
			return value, nil
		}

		classified := feederr.Classify(err)
		if !feederr.Retryable(classified) || attempt >= maxAttempts {
			e.reset(id)
			return zero, classified
		}

		wait := e.delay(attempt)
		log.Printf("Retrying %s after %v (attempt %d/%d): %v", id, wait, attempt, maxAttempts, classified)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			e.reset(id)
			return zero, feederr.Classify(ctx.Err())
		}
	}
}
