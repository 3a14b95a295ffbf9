package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/SwiftDrop/internal/api/httpx"
	parcelsapi "github.com/BearBump/SwiftDrop/internal/api/parcels_api"
	usersapi "github.com/BearBump/SwiftDrop/internal/api/users_api"
	"github.com/BearBump/SwiftDrop/internal/cache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type parcelAPIOpts struct {
	httpAddr       string
	swaggerPath    string
	requestTimeout time.Duration
	trackLimit     int64

	onListen func(httpAddr string)
}

type userService interface {
	usersapi.Service
	httpx.Authenticator
}

// healthCheck is one dependency probed by /health.
type healthCheck func(ctx context.Context) error

type apiDeps struct {
	parcels parcelsapi.Service
	users   userService
	limiter cache.RateLimiter
	checks  map[string]healthCheck
}

func runParcelAPI(ctx context.Context, opts parcelAPIOpts, deps apiDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newRouter(opts, deps), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP API listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

func newRouter(opts parcelAPIOpts, deps apiDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, httpx.RequestLogger, middleware.Recoverer)
	if opts.requestTimeout > 0 {
		r.Use(middleware.Timeout(opts.requestTimeout))
	}

	r.Get("/health", healthHandler(deps.checks))

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/swagger.json")))

	var trackLimit func(http.Handler) http.Handler
	if deps.limiter != nil {
		trackLimit = httpx.RateLimitByIP(deps.limiter, "track", opts.trackLimit, time.Minute)
	}
	parcelsapi.New(deps.parcels).Mount(r, deps.users, trackLimit)
	usersapi.New(deps.users).Mount(r, deps.users)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		code := http.StatusOK
		out := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("health check failed", "check", name, "err", err)
				out[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			out[name] = "up"
		}
		if code != http.StatusOK {
			httpx.WriteJSON(w, code, map[string]any{"status": "fail", "message": "dependency unavailable", "data": out})
			return
		}
		httpx.OK(w, code, map[string]any{"status": "ok", "checks": out})
	}
}
