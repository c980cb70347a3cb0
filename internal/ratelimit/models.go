package ratelimit

import "fmt"

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool `json:"allowed"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	// ResetSeconds is the time until the current window closes. Nil when the
	// store reported no usable TTL or the check degraded to fail-open.
	ResetSeconds *int `json:"reset"`
	// Degraded is set when the counter store was unreachable and the check
	// failed open. Not serialized; callers use it for logging and metrics.
	Degraded bool `json:"-"`
}

// Key builds a namespaced counter key, e.g. "rl:auth:login:1.2.3.4".
func Key(scope, identifier string) string {
	return fmt.Sprintf("rl:auth:%s:%s", scope, identifier)
}
