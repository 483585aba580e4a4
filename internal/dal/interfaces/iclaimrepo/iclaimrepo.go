package iclaimrepo

import (
	"context"
	"time"
)

// IClaimRepository hands out one-time claims shared by all service instances.
type IClaimRepository interface {
	// Claim reports true to exactly one caller per key until ttl expires.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
