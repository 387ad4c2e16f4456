package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/checklist/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = backend.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Claimer implements ports.Claimer using Redis SET NX PX.
type Claimer struct {
	client *backend.Client
	prefix string
}

// NewClaimer creates a claimer whose keys live under prefix.
func NewClaimer(client *backend.Client, prefix string) *Claimer {
	return &Claimer{
		client: client,
		prefix: prefix,
	}
}

// Claim makes a single SET NX attempt. The value is a random token so that only the
// holder can release the key.
func (c *Claimer) Claim(ctx context.Context, key string, ttl time.Duration) (ports.ReleaseFunc, bool, error) {
	claimKey := c.prefix + "claim:" + key
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, claimKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis error claiming %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, c.client, []string{claimKey}, token).Err()
	}, true, nil
}
