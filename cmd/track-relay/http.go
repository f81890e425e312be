package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/TrackRelay/config"
	"github.com/BearBump/TrackRelay/internal/services/reconciler"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type adminHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	coord *reconciler.Coordinator
	cfg   *config.Config
}

func runAdminHTTPServer(ctx context.Context, opts adminHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.coord == nil {
			_, _ = w.Write([]byte(`{"error":"coordinator not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.coord.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Avoid dumping secrets; show only operational relay settings.
		out := map[string]any{
			"passIntervalSeconds":       opts.cfg.Relay.PassIntervalSeconds,
			"carrierThrottleSeconds":    opts.cfg.Relay.CarrierThrottleSeconds,
			"carrierRateLimitPerMinute": opts.cfg.Relay.CarrierRateLimitPerMinute,
			"messageSettleSeconds":      opts.cfg.Relay.MessageSettleSeconds,
			"dispatchRetrySeconds":      opts.cfg.Relay.DispatchRetrySeconds,
			"generateTestStatuses":      opts.cfg.Relay.GenerateTestStatuses,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.coord == nil {
			_, _ = w.Write([]byte(`{"error":"coordinator not wired"}`))
			return
		}
		opts.coord.Trigger()
		_, _ = w.Write([]byte(`{"triggered":true}`))
	})

	// Swagger docs are optional: mounted only when a spec file is configured.
	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
			return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
		}
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.swaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	return srv.Serve(lis)
}
