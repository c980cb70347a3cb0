// Package guard wraps calls to external stores with an explicit failure
// policy. Whether a component fails open or closed when its store is down is
// a configuration choice, not something inferred from error handling shape.
package guard

import "context"

// Policy decides the effect of a store failure.
type Policy int

const (
	// FailOpen degrades to Allow when the store call fails. Used by the
	// rate limiter: login must not become unusable because a side-car
	// counter store is down.
	FailOpen Policy = iota
	// FailClosed degrades to Deny when the store call fails. Used by the
	// webhook idempotency guard: never risk double-processing a payment.
	FailClosed
)

// Effect is the outcome of a guarded call.
type Effect int

const (
	Allow Effect = iota
	Deny
)

// Verdict carries the effect plus whether it came from policy degradation
// rather than a real store answer.
type Verdict struct {
	Effect   Effect
	Degraded bool
	Err      error // the store error when Degraded
}

// Call runs fn and maps any error to the policy's degraded effect. fn returns
// the effect the store decided when it is reachable.
func Call(ctx context.Context, policy Policy, fn func(ctx context.Context) (Effect, error)) Verdict {
	effect, err := fn(ctx)
	if err == nil {
		return Verdict{Effect: effect}
	}
	degraded := Allow
	if policy == FailClosed {
		degraded = Deny
	}
	return Verdict{Effect: degraded, Degraded: true, Err: err}
}
