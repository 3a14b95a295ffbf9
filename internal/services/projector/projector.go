package projector

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/broker/messages"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/pkg/errors"
)

type Consumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error
}

// Refresher reloads a parcel and rewrites its tracking cache entry.
type Refresher interface {
	RefreshTracking(ctx context.Context, trackingID string) (*models.Parcel, error)
}

// Projector keeps the public tracking cache in line with parcel status
// events. Malformed events and events for unknown parcels are skipped and
// committed; any other failure stops consumption without a commit so the
// event is redelivered after a backoff.
type Projector struct {
	consumer  Consumer
	refresher Refresher

	retryDelay time.Duration
	maxRetries int

	startedAtUnixNano int64
	lastEventUnixNano atomic.Int64
	totalReceived     atomic.Int64
	totalApplied      atomic.Int64
	totalSkipped      atomic.Int64
	totalErrors       atomic.Int64

	mu        sync.Mutex
	lastError string
	byStatus  map[string]int64
}

func New(consumer Consumer, refresher Refresher) *Projector {
	return &Projector{
		consumer:          consumer,
		refresher:         refresher,
		retryDelay:        time.Second,
		maxRetries:        3,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
		byStatus:          map[string]int64{},
	}
}

func (p *Projector) WithRetry(delay time.Duration, maxRetries int) *Projector {
	if delay > 0 {
		p.retryDelay = delay
	}
	if maxRetries >= 0 {
		p.maxRetries = maxRetries
	}
	return p
}

type Stats struct {
	StartedAt     time.Time        `json:"startedAt"`
	LastEventAt   *time.Time       `json:"lastEventAt,omitempty"`
	TotalReceived int64            `json:"totalReceived"`
	TotalApplied  int64            `json:"totalApplied"`
	TotalSkipped  int64            `json:"totalSkipped"`
	TotalErrors   int64            `json:"totalErrors"`
	ByStatus      map[string]int64 `json:"byStatus"`
	LastError     string           `json:"lastError,omitempty"`
}

func (p *Projector) Stats() Stats {
	st := Stats{
		StartedAt:     time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalReceived: p.totalReceived.Load(),
		TotalApplied:  p.totalApplied.Load(),
		TotalSkipped:  p.totalSkipped.Load(),
		TotalErrors:   p.totalErrors.Load(),
	}
	if n := p.lastEventUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastEventAt = &t
	}
	p.mu.Lock()
	st.LastError = p.lastError
	st.ByStatus = make(map[string]int64, len(p.byStatus))
	for k, v := range p.byStatus {
		st.ByStatus[k] = v
	}
	p.mu.Unlock()
	return st
}

// Run consumes until ctx is cancelled, resuming after failures.
func (p *Projector) Run(ctx context.Context) error {
	for {
		err := p.consumer.Consume(ctx, p.Handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			p.recordError(err)
			slog.Error("consume parcel events", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.retryDelay):
		}
	}
}

// Handle applies one ParcelStatusChanged event.
func (p *Projector) Handle(ctx context.Context, key, value []byte) error {
	p.totalReceived.Add(1)
	p.lastEventUnixNano.Store(time.Now().UTC().UnixNano())

	var msg messages.ParcelStatusChanged
	if err := json.Unmarshal(value, &msg); err != nil || msg.TrackingID == "" {
		p.totalSkipped.Add(1)
		slog.Warn("skip malformed parcel event", "key", string(key))
		return nil
	}

	var err error
	for i := 0; i <= p.maxRetries; i++ {
		if _, err = p.refresher.RefreshTracking(ctx, msg.TrackingID); err == nil {
			break
		}
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			p.totalSkipped.Add(1)
			slog.Warn("skip event for unknown parcel", "tracking_id", msg.TrackingID)
			return nil
		}
		if i < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * p.retryDelay):
			}
		}
	}
	if err != nil {
		p.totalErrors.Add(1)
		p.recordError(err)
		return errors.Wrapf(err, "refresh tracking %s", msg.TrackingID)
	}

	p.totalApplied.Add(1)
	p.mu.Lock()
	p.byStatus[msg.Status]++
	p.mu.Unlock()
	slog.Info("tracking cache refreshed", "tracking_id", msg.TrackingID, "status", msg.Status)
	return nil
}

// Resync refreshes one tracking id on demand.
func (p *Projector) Resync(ctx context.Context, trackingID string) (*models.Parcel, error) {
	parcel, err := p.refresher.RefreshTracking(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	slog.Info("tracking resynced", "tracking_id", trackingID)
	return parcel, nil
}

func (p *Projector) recordError(err error) {
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
}
