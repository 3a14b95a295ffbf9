package main

import (
	"context"

	"github.com/BearBump/SwiftDrop/config"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/cache/rediscache"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/services/parcels"
	"github.com/BearBump/SwiftDrop/internal/services/users"
	"github.com/BearBump/SwiftDrop/internal/storage/pgparcels"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// backend is what the CLI commands operate on.
type backend interface {
	CreateUser(ctx context.Context, req users.RegisterRequest) (*models.User, error)
	SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.User, error)
	SetParcelBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error)
	Track(ctx context.Context, trackingID string) (*models.Parcel, error)
}

type openBackendFunc func(configPath string) (backend, func(), error)

// operator is the identity CLI actions are attributed to.
var operator = auth.Identity{ID: uuid.Nil, Role: models.RoleAdmin}

type serviceBackend struct {
	users   *users.Service
	parcels *parcels.Service
}

func openServiceBackend(configPath string) (backend, func(), error) {
	if configPath == "" {
		return nil, nil, errors.New("config path is required (--config or configPath env)")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	s := cfg.SwiftDrop

	st, err := pgparcels.New(cfg.Database.ConnString())
	if err != nil {
		return nil, nil, err
	}
	rc := rediscache.NewParcelCache(cfg.Redis.Addr())

	b := &serviceBackend{
		users: users.New(st, auth.NewBcryptHasher(s.BcryptCost), auth.NewTokenIssuer(s.JWTSecret, s.JWTTTL()), nil, users.Config{
			ShortIDLength: s.ShortIDLength,
			MaxAttempts:   s.IDMaxAttempts,
		}),
		parcels: parcels.New(st, st, rc, nil, parcels.Config{
			TrackingPrefix:       s.TrackingPrefix,
			TrackingRandomLength: s.TrackingRandomLength,
			MaxAttempts:          s.IDMaxAttempts,
			CacheTTL:             s.TrackingCacheTTL(),
		}),
	}
	closeFn := func() {
		_ = rc.Close()
		st.Close()
	}
	return b, closeFn, nil
}

func (b *serviceBackend) CreateUser(ctx context.Context, req users.RegisterRequest) (*models.User, error) {
	return b.users.CreateUser(ctx, req)
}

func (b *serviceBackend) SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.User, error) {
	return b.users.SetBlocked(ctx, operator, id, blocked)
}

func (b *serviceBackend) SetParcelBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Parcel, error) {
	return b.parcels.SetBlocked(ctx, id, blocked)
}

func (b *serviceBackend) Track(ctx context.Context, trackingID string) (*models.Parcel, error) {
	return b.parcels.GetByTrackingID(ctx, trackingID)
}
