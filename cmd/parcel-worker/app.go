package main

import (
	"context"
	"log/slog"

	"github.com/BearBump/SwiftDrop/config"
	"github.com/BearBump/SwiftDrop/internal/broker/kafka"
	"github.com/BearBump/SwiftDrop/internal/cache"
	"github.com/BearBump/SwiftDrop/internal/cache/rediscache"
	"github.com/BearBump/SwiftDrop/internal/services/parcels"
	"github.com/BearBump/SwiftDrop/internal/services/projector"
	"github.com/BearBump/SwiftDrop/internal/storage/pgparcels"
)

type workerStore interface {
	parcels.Repository
	parcels.UserDirectory
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (store workerStore, closeFn func(), err error)
	newCache    func(cfg *config.Config) (c cache.ParcelCache, closeFn func())
	newConsumer func(cfg *config.Config) (c projector.Consumer, closeFn func())
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (workerStore, func(), error) {
			st, err := pgparcels.New(cfg.Database.ConnString())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newCache: func(cfg *config.Config) (cache.ParcelCache, func()) {
			rc := rediscache.NewParcelCache(cfg.Redis.Addr())
			return rc, func() { _ = rc.Close() }
		},
		newConsumer: func(cfg *config.Config) (projector.Consumer, func()) {
			c := kafka.NewConsumer(cfg.Kafka.Brokers(), cfg.Kafka.ParcelStatusTopicName, cfg.SwiftDrop.KafkaConsumerGroup)
			return c, func() { _ = c.Close() }
		},
	}
}

// RunParcelWorker projects parcel status events into the tracking cache and
// serves the ops HTTP endpoints until ctx is cancelled.
func RunParcelWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	store, closeStore, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}
	c, closeCache := f.newCache(cfg)
	if closeCache != nil {
		defer closeCache()
	}
	consumer, closeConsumer := f.newConsumer(cfg)
	if closeConsumer != nil {
		defer closeConsumer()
	}

	// воркер только перечитывает посылки, события сам не публикует
	svc := parcels.New(store, store, c, nil, parcels.Config{
		TrackingPrefix:       cfg.SwiftDrop.TrackingPrefix,
		TrackingRandomLength: cfg.SwiftDrop.TrackingRandomLength,
		MaxAttempts:          cfg.SwiftDrop.IDMaxAttempts,
		CacheTTL:             cfg.SwiftDrop.TrackingCacheTTL(),
		Topic:                cfg.Kafka.ParcelStatusTopicName,
	})
	p := projector.New(consumer, svc)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpOpts.projector = p
	httpOpts.cfg = cfg
	if httpOpts.httpAddr == "" {
		httpOpts.httpAddr = cfg.SwiftDrop.WorkerHTTPAddr
	}
	httpErr := make(chan error, 1)
	if httpOpts.swaggerPath != "" {
		go func() { httpErr <- runWorkerHTTPServer(ctx, httpOpts) }()
	} else {
		slog.Warn("worker ops HTTP disabled: swaggerPath is empty")
	}

	slog.Info("parcel worker started",
		"topic", cfg.Kafka.ParcelStatusTopicName,
		"group", cfg.SwiftDrop.KafkaConsumerGroup,
	)
	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	select {
	case err := <-runErr:
		return err
	case err := <-httpErr:
		cancel()
		<-runErr
		return err
	}
}
