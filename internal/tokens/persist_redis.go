package tokens

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPersister stores token snapshots in a Redis hash per owner. Suited to
// session-scoped deployments where tokens live alongside other session state.
type RedisPersister struct {
	client *redis.Client
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisPersister connects to the configured Redis instance.
func NewRedisPersister(cfg RedisConfig) *RedisPersister {
	return &RedisPersister{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func tokensKey(ownerID string) string {
	return "tokens:" + ownerID
}

// Upsert writes the rows into the owner's hash. HSET overwrites existing
// fields, which gives the same last-write-wins behavior as the SQL backend.
func (p *RedisPersister) Upsert(ctx context.Context, rows []Row) error {
	byOwner := make(map[string]map[string]string)
	for _, row := range rows {
		fields, ok := byOwner[row.OwnerID]
		if !ok {
			fields = make(map[string]string)
			byOwner[row.OwnerID] = fields
		}
		fields[row.Key] = row.Value
	}

	for ownerID, fields := range byOwner {
		if err := p.client.HSet(ctx, tokensKey(ownerID), fields).Err(); err != nil {
			return fmt.Errorf("failed to write tokens for %q: %w", ownerID, err)
		}
	}
	return nil
}

// Load returns all tokens persisted for the owner.
func (p *RedisPersister) Load(ctx context.Context, ownerID string) (map[string]string, error) {
	tokens, err := p.client.HGetAll(ctx, tokensKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens for %q: %w", ownerID, err)
	}
	return tokens, nil
}

// Close closes the Redis connection.
func (p *RedisPersister) Close() error {
	return p.client.Close()
}
