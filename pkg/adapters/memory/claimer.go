package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/checklist/pkg/ports"
	"github.com/google/uuid"
)

// Claimer implements ports.Claimer in memory.
// Replicas sharing one Claimer value coordinate with each other; it never leaves the process.
type Claimer struct {
	mu     sync.Mutex
	claims map[string]claim
	now    func() time.Time
}

type claim struct {
	token   string
	expires time.Time
}

// NewClaimer creates an empty claimer.
func NewClaimer() *Claimer {
	return &Claimer{
		claims: make(map[string]claim),
		now:    time.Now,
	}
}

// Claim takes key when it is free or expired.
func (c *Claimer) Claim(ctx context.Context, key string, ttl time.Duration) (ports.ReleaseFunc, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if held, ok := c.claims[key]; ok && (held.expires.IsZero() || now.Before(held.expires)) {
		return nil, false, nil
	}

	token := uuid.NewString()
	entry := claim{token: token}
	if ttl > 0 {
		entry.expires = now.Add(ttl)
	}
	c.claims[key] = entry

	return func(context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if held, ok := c.claims[key]; ok && held.token == token {
			delete(c.claims, key)
		}
		return nil
	}, true, nil
}
