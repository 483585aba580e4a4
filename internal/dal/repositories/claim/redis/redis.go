package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/redis"
)

const claimOperation = "claim"

// ClaimRepository uses SET NX so that only one instance wins a key.
type ClaimRepository struct {
	client *redis.Client
}

func NewClaimRepository(client *redis.Client) *ClaimRepository {
	return &ClaimRepository{
		client: client,
	}
}

func (r *ClaimRepository) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.Redis().SetNX(ctx, r.client.Key(claimOperation, key), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}

	return ok, nil
}
