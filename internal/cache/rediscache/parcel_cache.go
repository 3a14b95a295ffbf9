// Package rediscache holds the Redis-backed tracking cache and rate limiter.
package rediscache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const trackingKeyPrefix = "parcel:tracking:"

// TrackingKey is the Redis key of the cached parcel behind trackingID.
func TrackingKey(trackingID string) string {
	return trackingKeyPrefix + strings.ToUpper(strings.TrimSpace(trackingID))
}

// ParcelCache stores parcels as JSON under TrackingKey.
type ParcelCache struct {
	c *redis.Client
}

func NewParcelCache(addr string) *ParcelCache {
	return &ParcelCache{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// GetParcel returns (nil, false, nil) on a miss. A corrupted entry is
// dropped and reported as a miss with an error.
func (pc *ParcelCache) GetParcel(ctx context.Context, trackingID string) (*models.Parcel, bool, error) {
	key := TrackingKey(trackingID)
	b, err := pc.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get parcel")
	}

	var p models.Parcel
	if err := json.Unmarshal(b, &p); err != nil {
		_ = pc.c.Del(ctx, key).Err()
		return nil, false, errors.Wrapf(err, "decode cached parcel %s", key)
	}
	return &p, true, nil
}

func (pc *ParcelCache) SetParcel(ctx context.Context, p *models.Parcel, ttl time.Duration) error {
	if p == nil || p.TrackingID == "" {
		return errors.New("parcel without tracking id")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode parcel")
	}
	if err := pc.c.Set(ctx, TrackingKey(p.TrackingID), b, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set parcel")
	}
	return nil
}

func (pc *ParcelCache) Ping(ctx context.Context) error {
	return errors.Wrap(pc.c.Ping(ctx).Err(), "redis ping")
}

func (pc *ParcelCache) Close() error {
	return pc.c.Close()
}
