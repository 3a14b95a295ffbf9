package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/SwiftDrop/config"
	"github.com/BearBump/SwiftDrop/internal/api/httpx"
	"github.com/BearBump/SwiftDrop/internal/services/projector"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type workerHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	projector *projector.Projector
	cfg       *config.Config
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("worker swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("worker swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newWorkerRouter(opts), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

func newWorkerRouter(opts workerHTTPOpts) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, httpx.RequestLogger, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.projector == nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "projector not wired"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		if opts.projector == nil {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"error": "projector not wired"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, opts.projector.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		if opts.cfg == nil {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"error": "config not wired"})
			return
		}
		// Only operational settings; no secrets.
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"topic":                   opts.cfg.Kafka.ParcelStatusTopicName,
			"consumerGroup":           opts.cfg.SwiftDrop.KafkaConsumerGroup,
			"trackingCacheTTLSeconds": opts.cfg.SwiftDrop.TrackingCacheTTLSeconds,
		})
	})

	r.Post("/resync/{trackingId}", func(w http.ResponseWriter, r *http.Request) {
		if opts.projector == nil {
			httpx.Fail(w, http.StatusServiceUnavailable, "projector not wired")
			return
		}
		p, err := opts.projector.Resync(r.Context(), chi.URLParam(r, "trackingId"))
		if err != nil {
			httpx.Error(w, r, err)
			return
		}
		httpx.OK(w, http.StatusOK, p)
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})

	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	return r
}
