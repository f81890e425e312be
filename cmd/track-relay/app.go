package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/TrackRelay/config"
	"github.com/BearBump/TrackRelay/internal/broker/kafka"
	"github.com/BearBump/TrackRelay/internal/cache"
	"github.com/BearBump/TrackRelay/internal/cache/rediscache"
	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/integrations/partner"
	"github.com/BearBump/TrackRelay/internal/integrations/partner/partnerhttp"
	"github.com/BearBump/TrackRelay/internal/integrations/pegas"
	"github.com/BearBump/TrackRelay/internal/integrations/pegas/fake"
	"github.com/BearBump/TrackRelay/internal/integrations/pegas/pegashttp"
	"github.com/BearBump/TrackRelay/internal/observe"
	"github.com/BearBump/TrackRelay/internal/services/reconciler"
	"github.com/BearBump/TrackRelay/internal/services/requests"
	"github.com/BearBump/TrackRelay/internal/storage/pgshipping"
)

// relayStorage is what the engine needs from persistence: the queue and
// ledger operations plus original-request reads.
type relayStorage interface {
	reconciler.Repository
	requests.Repository
}

type relayFactories struct {
	newStorage       func(cfg *config.Config) (relayStorage, func(), error)
	newProducer      func(cfg *config.Config) observe.Producer
	newRateLimiter   func(cfg *config.Config) reconciler.RateLimiter
	newCache         func(cfg *config.Config) cache.BytesCache
	newCarrierClient func(cfg *config.Config) pegas.Client
	newPartnerClient func(cfg *config.Config) partner.Client
}

func defaultRelayFactories() relayFactories {
	return relayFactories{
		newStorage: func(cfg *config.Config) (relayStorage, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgshipping.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) observe.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) reconciler.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newCache: func(cfg *config.Config) cache.BytesCache {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.New(redisAddr)
		},
		newCarrierClient: func(cfg *config.Config) pegas.Client {
			// The synthetic-status path and missing carrier config both
			// fall back to the local fake.
			if cfg.Relay.GenerateTestStatuses || cfg.Relay.CarrierBaseURL == "" {
				return fake.New()
			}
			return pegashttp.New(cfg.Relay.CarrierBaseURL, cfg.Relay.CarrierAccessKey)
		},
		newPartnerClient: func(cfg *config.Config) partner.Client {
			return partnerhttp.New(cfg.Relay.PartnerBaseURL)
		},
	}
}

type relaySettings struct {
	passInterval time.Duration
	pacing       reconciler.PacingConfig

	rateLimitPerMinute int64
	requestCacheTTL    time.Duration

	failureTopic   string
	forwardedTopic string
}

func relaySettingsFromConfig(cfg *config.Config) relaySettings {
	s := relaySettings{
		passInterval: time.Duration(cfg.Relay.PassIntervalSeconds) * time.Second,
		pacing: reconciler.PacingConfig{
			ThrottleDelay: time.Duration(cfg.Relay.CarrierThrottleSeconds) * time.Second,
			SettleDelay:   time.Duration(cfg.Relay.MessageSettleSeconds) * time.Second,
			RetryDelay:    time.Duration(cfg.Relay.DispatchRetrySeconds) * time.Second,
		},
		rateLimitPerMinute: int64(cfg.Relay.CarrierRateLimitPerMinute),
		requestCacheTTL:    time.Duration(cfg.Relay.RequestCacheTTLSeconds) * time.Second,
		failureTopic:       cfg.Kafka.FailureTopicName,
		forwardedTopic:     cfg.Kafka.ForwardedTopicName,
	}
	if s.passInterval <= 0 {
		s.passInterval = 60 * time.Second
	}
	if s.rateLimitPerMinute <= 0 {
		s.rateLimitPerMinute = 120
	}
	if s.requestCacheTTL <= 0 {
		s.requestCacheTTL = time.Hour
	}
	if s.failureTopic == "" {
		s.failureTopic = "reconcile.failure"
	}
	if s.forwardedTopic == "" {
		s.forwardedTopic = "tracking.forwarded"
	}
	return s
}

func RunTrackRelay(ctx context.Context, cfg *config.Config, f relayFactories) error {
	s := relaySettingsFromConfig(cfg)

	st, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	producer := f.newProducer(cfg)
	rl := f.newRateLimiter(cfg)
	carrierClient := f.newCarrierClient(cfg)
	partnerClient := f.newPartnerClient(cfg)

	policy := reconciler.NewPacingPolicy(s.pacing, nil)

	fetcher := reconciler.NewFetcher(carrierClient, policy, nil).
		WithRateLimiter(rl, s.rateLimitPerMinute)
	builder := reconciler.NewBuilder(fetcher, edi.DefaultEventMap(), policy)
	dispatcher := reconciler.NewDispatcher(partnerClient, policy)

	reqSvc := requests.New(st, f.newCache(cfg), s.requestCacheTTL)

	coord := reconciler.New(st, reqSvc, fetcher, builder, dispatcher, nil).
		WithSettings(s.passInterval).
		WithForwardedFeed(producer, s.forwardedTopic)

	// Rebuild the fetcher/coordinator sink now that the coordinator
	// exists: failure records carry the live pass id.
	sink := observe.NewKafkaSink(producer, s.failureTopic, coord.PassID)
	fetcher.WithSink(sink)
	coord.WithSink(sink)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runAdminHTTPServer(ctx, adminHTTPOpts{
			httpAddr:    cfg.Relay.HTTPAddr,
			swaggerPath: cfg.Relay.SwaggerPath,
			coord:       coord,
			cfg:         cfg,
		})
	}()

	coordErr := make(chan error, 1)
	go func() {
		slog.Info("reconciliation loop started", "pass_interval", s.passInterval.String())
		coordErr <- coord.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-coordErr:
		return err
	case err := <-httpErr:
		return err
	}
}
