package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/TrackRelay/internal/integrations/pegas"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/BearBump/TrackRelay/internal/observe"
)

// Unavailability reasons for a carrier fetch.
const (
	ReasonCarrierError = "carrier_error"
	ReasonNoData       = "no_data"
)

// FetchResult is either carrier data or a typed "unavailable" reason.
// Callers can tell a failed fetch from an empty delta without sentinels.
type FetchResult struct {
	Available bool
	Reason    string

	PerformersNumber string
	PlannedDelivery  *time.Time
	Statuses         []models.DeliveryStatus
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Fetcher is the fail-soft boundary around the carrier: transport and
// decoding failures degrade to an unavailable result, reported to the sink
// and never propagated as an error.
type Fetcher struct {
	carrier pegas.Client
	rl      RateLimiter
	policy  *PacingPolicy
	sink    observe.Sink

	rateLimitPerMinute int64
}

func NewFetcher(carrier pegas.Client, policy *PacingPolicy, sink observe.Sink) *Fetcher {
	if sink == nil {
		sink = observe.LogSink{}
	}
	return &Fetcher{carrier: carrier, policy: policy, sink: sink}
}

func (f *Fetcher) WithRateLimiter(rl RateLimiter, perMinute int64) *Fetcher {
	f.rl = rl
	f.rateLimitPerMinute = perMinute
	return f
}

func (f *Fetcher) WithSink(sink observe.Sink) *Fetcher {
	if sink != nil {
		f.sink = sink
	}
	return f
}

// Fetch returns the carrier's current view of one shipment. A fixed
// throttle delay precedes every call.
func (f *Fetcher) Fetch(ctx context.Context, documentNumber string) FetchResult {
	f.policy.Throttle()

	if f.rl != nil && f.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:pegas:%s", time.Now().UTC().Format("200601021504"))
		allowed, n, err := f.rl.Allow(ctx, minuteKey, f.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			// Limiter trouble must not block reconciliation.
			slog.Warn("rate limiter unavailable", "error", err.Error())
		} else if !allowed {
			slog.Warn("carrier rate limit exceeded", "count", n)
			f.policy.RateLimitWait()
		}
	}

	res, err := f.carrier.OrderStatus(ctx, documentNumber)
	if err != nil {
		f.sink.Failure(ctx, "pegas", err.Error(), map[string]string{"document": documentNumber})
		return FetchResult{Reason: ReasonCarrierError}
	}

	if len(res.Statuses) == 0 {
		return FetchResult{Reason: ReasonNoData}
	}

	return FetchResult{
		Available:        true,
		PerformersNumber: res.PerformersNumber,
		PlannedDelivery:  res.PlannedDelivery,
		Statuses:         res.Statuses,
	}
}
