package ports

import (
	"context"
	"time"
)

// ReleaseFunc gives up a claim taken with Claimer.Claim.
type ReleaseFunc func(ctx context.Context) error

// Claimer coordinates several skill replicas listening to the same broker.
// Only the replica holding the claim on a checklist id runs it.
type Claimer interface {
	// Claim tries once to take the key for ttl.
	// It returns ok=false without error when another owner holds the key.
	// The ReleaseFunc is only valid when ok is true.
	Claim(ctx context.Context, key string, ttl time.Duration) (release ReleaseFunc, ok bool, err error)
}
