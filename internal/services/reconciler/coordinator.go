package reconciler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/TrackRelay/internal/broker/messages"
	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/BearBump/TrackRelay/internal/observe"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Repository interface {
	PurgeDelivered(ctx context.Context) (int64, error)
	ListPending(ctx context.Context) ([]*models.Shipment, error)
	HistoryCodes(ctx context.Context, documentNumber string) ([]string, error)
	HasLifecycleCode(ctx context.Context, documentNumber string) (bool, error)
	AppendHistory(ctx context.Context, recs []models.HistoryRecord) error
}

type RequestSource interface {
	GetPKGINF(ctx context.Context, documentNumber string) (*edi.PKGINF, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Coordinator drives reconciliation passes: purge delivered shipments,
// walk the pending queue in request-id order, and per shipment run
// fetch -> resolve -> build -> dispatch -> record. Shipments are processed
// one at a time; a build or dispatch failure aborts the whole pass and the
// unrecorded statuses stay visible as new on the next one.
type Coordinator struct {
	repo       Repository
	requests   RequestSource
	fetcher    *Fetcher
	builder    *Builder
	dispatcher *Dispatcher
	sink       observe.Sink

	producer       Producer
	forwardedTopic string

	passInterval time.Duration
	triggerCh    chan struct{}

	passID atomic.Value // string, current pass id

	startedAtUnixNano   int64
	lastPassUnixNano    atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalPasses         atomic.Int64
	totalShipments      atomic.Int64
	totalMessagesSent   atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, requests RequestSource, fetcher *Fetcher, builder *Builder, dispatcher *Dispatcher, sink observe.Sink) *Coordinator {
	if sink == nil {
		sink = observe.LogSink{}
	}
	c := &Coordinator{
		repo:              repo,
		requests:          requests,
		fetcher:           fetcher,
		builder:           builder,
		dispatcher:        dispatcher,
		sink:              sink,
		passInterval:      60 * time.Second,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
	c.passID.Store("")
	return c
}

func (c *Coordinator) WithSettings(passInterval time.Duration) *Coordinator {
	if passInterval > 0 {
		c.passInterval = passInterval
	}
	return c
}

func (c *Coordinator) WithForwardedFeed(producer Producer, topic string) *Coordinator {
	c.producer = producer
	c.forwardedTopic = topic
	return c
}

func (c *Coordinator) WithSink(sink observe.Sink) *Coordinator {
	if sink != nil {
		c.sink = sink
	}
	return c
}

// PassID returns the id of the pass currently running (empty between passes).
func (c *Coordinator) PassID() string {
	v, _ := c.passID.Load().(string)
	return v
}

// Trigger forces an immediate pass (best-effort, non-blocking).
func (c *Coordinator) Trigger() {
	c.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case c.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt         time.Time  `json:"startedAt"`
	LastPassAt        *time.Time `json:"lastPassAt,omitempty"`
	LastTriggerAt     *time.Time `json:"lastTriggerAt,omitempty"`
	TotalPasses       int64      `json:"totalPasses"`
	TotalShipments    int64      `json:"totalShipments"`
	TotalMessagesSent int64      `json:"totalMessagesSent"`
	TotalErrors       int64      `json:"totalErrors"`
	LastError         string     `json:"lastError,omitempty"`
}

func (c *Coordinator) Stats() Stats {
	st := Stats{
		StartedAt:         time.Unix(0, c.startedAtUnixNano).UTC(),
		TotalPasses:       c.totalPasses.Load(),
		TotalShipments:    c.totalShipments.Load(),
		TotalMessagesSent: c.totalMessagesSent.Load(),
		TotalErrors:       c.totalErrors.Load(),
	}
	if n := c.lastPassUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastPassAt = &t
	}
	if n := c.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	c.lastErrorMu.Lock()
	st.LastError = c.lastError
	c.lastErrorMu.Unlock()
	return st
}

func (c *Coordinator) Run(ctx context.Context) error {
	t := time.NewTicker(c.passInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.runPassLogged(ctx)
		case <-c.triggerCh:
			c.runPassLogged(ctx)
		}
	}
}

func (c *Coordinator) runPassLogged(ctx context.Context) {
	if err := c.runPass(ctx); err != nil {
		// A failed pass halts here; the next tick resumes from the
		// unrecorded state.
		c.totalErrors.Add(1)
		c.lastErrorMu.Lock()
		c.lastError = err.Error()
		c.lastErrorMu.Unlock()
		slog.Error("reconciliation pass aborted", "error", err.Error())
	}
}

func (c *Coordinator) runPass(ctx context.Context) error {
	now := time.Now().UTC()
	c.lastPassUnixNano.Store(now.UnixNano())
	c.totalPasses.Add(1)

	passID := uuid.NewString()
	c.passID.Store(passID)
	defer c.passID.Store("")

	purged, err := c.repo.PurgeDelivered(ctx)
	if err != nil {
		return errors.Wrap(err, "purge delivered")
	}
	if purged > 0 {
		slog.Info("purged delivered shipments", "pass_id", passID, "count", purged)
	}

	pending, err := c.repo.ListPending(ctx)
	if err != nil {
		return errors.Wrap(err, "list pending")
	}

	for _, sh := range pending {
		if err := c.processShipment(ctx, passID, sh); err != nil {
			return errors.Wrapf(err, "shipment %s", sh.DocumentNumber)
		}
	}
	return nil
}

// processShipment runs one shipment through a pass. An unavailable fetch
// or an empty delta ends the shipment quietly (the queue entry stays); a
// missing original request skips the shipment with a failure record; any
// build or dispatch error propagates and aborts the pass.
func (c *Coordinator) processShipment(ctx context.Context, passID string, sh *models.Shipment) error {
	c.totalShipments.Add(1)

	res := c.fetcher.Fetch(ctx, sh.DocumentNumber)
	if !res.Available {
		return nil
	}

	historyCodes, err := c.repo.HistoryCodes(ctx, sh.DocumentNumber)
	if err != nil {
		return errors.Wrap(err, "history codes")
	}

	delta := ResolveDelta(res.Statuses, historyCodes)
	if len(delta) == 0 {
		return nil
	}

	req, err := c.requests.GetPKGINF(ctx, sh.RequestDocumentNumber)
	if err != nil {
		// Queue entry without a readable original request: skip it,
		// leave it queued, and make the gap visible.
		c.sink.Failure(ctx, "requests", err.Error(), map[string]string{
			"document":         sh.DocumentNumber,
			"request_document": sh.RequestDocumentNumber,
		})
		return nil
	}

	hasLifecycle, err := c.repo.HasLifecycleCode(ctx, sh.DocumentNumber)
	if err != nil {
		return errors.Wrap(err, "lifecycle lookup")
	}

	sent := 0
	sequence := 1
	for _, pkg := range req.Packages {
		msg, err := c.builder.Build(ctx, BuildInput{
			Request:             req,
			DocumentNumber:      sh.DocumentNumber,
			Delta:               delta,
			CartonNumber:        pkg.CartonNumber,
			Sequence:            sequence,
			HasLifecycleHistory: hasLifecycle,
		})
		if err != nil {
			return errors.Wrap(err, "build message")
		}
		sequence++

		ok, err := c.dispatcher.Dispatch(ctx, msg)
		if err != nil {
			return errors.Wrap(err, "dispatch message")
		}
		if ok {
			sent++
			c.totalMessagesSent.Add(1)
		}
	}

	// Record only after every carton went through: a dispatch failure
	// above keeps these statuses new for the next pass.
	recs := make([]models.HistoryRecord, 0, len(delta))
	codes := make([]string, 0, len(delta))
	for _, st := range delta {
		recs = append(recs, models.HistoryRecord{
			DocumentNumber: sh.DocumentNumber,
			Code:           st.Code,
			Status:         st.Description,
			MessageNumber:  sh.MessageNumber,
			RequestID:      sh.RequestID,
		})
		codes = append(codes, st.Code)
	}
	if err := c.repo.AppendHistory(ctx, recs); err != nil {
		return errors.Wrap(err, "append history")
	}

	c.publishForwarded(ctx, passID, sh, codes, sent)
	return nil
}

func (c *Coordinator) publishForwarded(ctx context.Context, passID string, sh *models.Shipment, codes []string, sent int) {
	if c.producer == nil || c.forwardedTopic == "" {
		return
	}
	b, err := json.Marshal(messages.TrackingForwarded{
		PassID:         passID,
		DocumentNumber: sh.DocumentNumber,
		MessageNumber:  sh.MessageNumber,
		RequestID:      sh.RequestID,
		Codes:          codes,
		MessagesSent:   sent,
		At:             time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := c.producer.Publish(ctx, c.forwardedTopic, []byte(sh.DocumentNumber), b); err != nil {
		slog.Error("publish forwarded event", "document", sh.DocumentNumber, "error", err.Error())
	}
}
