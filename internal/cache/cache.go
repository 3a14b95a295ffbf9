package cache

import (
	"context"
	"time"

	"github.com/BearBump/SwiftDrop/internal/models"
)

// ParcelCache keeps parcels for the public tracking lookup, keyed by
// tracking ID. A miss is (nil, false, nil).
type ParcelCache interface {
	GetParcel(ctx context.Context, trackingID string) (*models.Parcel, bool, error)
	SetParcel(ctx context.Context, p *models.Parcel, ttl time.Duration) error
}

// RateLimiter counts hits on key within window and reports whether the
// count is still within limit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}
