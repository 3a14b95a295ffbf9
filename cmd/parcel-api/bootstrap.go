package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/SwiftDrop/config"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/broker/kafka"
	"github.com/BearBump/SwiftDrop/internal/cache/rediscache"
	"github.com/BearBump/SwiftDrop/internal/services/parcels"
	"github.com/BearBump/SwiftDrop/internal/services/users"
	"github.com/BearBump/SwiftDrop/internal/storage/pgparcels"
)

type parcelAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   parcelAPIOpts
	deps   apiDeps

	closers []func()
}

func mustBootstrapParcelAPI() *parcelAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	if err := cfg.RequireJWT(); err != nil {
		panic(err)
	}
	s := cfg.SwiftDrop

	st := mustOpenPostgresWithRetry(cfg.Database.ConnString(), 60*time.Second)
	rc := rediscache.NewParcelCache(cfg.Redis.Addr())
	rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
	producer := kafka.NewProducer(cfg.Kafka.Brokers())

	usersSvc := users.New(st,
		auth.NewBcryptHasher(s.BcryptCost),
		auth.NewTokenIssuer(s.JWTSecret, s.JWTTTL()),
		rl,
		users.Config{
			ShortIDLength: s.ShortIDLength,
			MaxAttempts:   s.IDMaxAttempts,
			LoginLimit:    int64(s.LoginRateLimitPerMinute),
			LoginWindow:   time.Minute,
		})
	parcelsSvc := parcels.New(st, st, rc, producer, parcels.Config{
		TrackingPrefix:       s.TrackingPrefix,
		TrackingRandomLength: s.TrackingRandomLength,
		MaxAttempts:          s.IDMaxAttempts,
		CacheTTL:             s.TrackingCacheTTL(),
		Topic:                cfg.Kafka.ParcelStatusTopicName,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &parcelAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: parcelAPIOpts{
			httpAddr:       s.HTTPAddr,
			swaggerPath:    swaggerPath,
			requestTimeout: s.RequestTimeout(),
			trackLimit:     int64(s.TrackRateLimitPerMinute),
		},
		deps: apiDeps{
			parcels: parcelsSvc,
			users:   usersSvc,
			limiter: rl,
			checks: map[string]healthCheck{
				"postgres": st.Ping,
				"redis":    rc.Ping,
			},
		},
		closers: []func(){
			func() { _ = producer.Close() },
			func() { _ = rl.Close() },
			func() { _ = rc.Close() },
			st.Close,
		},
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgparcels.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgparcels.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *parcelAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *parcelAPIApp) Run() error {
	return runParcelAPI(a.ctx, a.opts, a.deps)
}
