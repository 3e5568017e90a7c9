package draftrace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

// StatusSource is the part of the league backend the poller reads
type StatusSource interface {
	GetRaceStatus(ctx context.Context) (*models.RaceStatus, error)
	GetDraftOrder(ctx context.Context) (models.DraftOrder, error)
}

// StatusSink receives poll results
type StatusSink interface {
	ObserveStatus(ctx context.Context, status models.RaceStatus) error
	CaptureOrder(ctx context.Context, order models.DraftOrder) error
}

// Poller reads the race status on a fixed interval. At most one poll is in
// flight; a tick that finds one running is skipped.
type Poller struct {
	source   StatusSource
	sink     StatusSink
	clock    clockwork.Clock
	interval time.Duration

	inFlight *semaphore.Weighted
	captured atomic.Bool
	polls    atomic.Int64
	skipped  atomic.Int64

	mu       sync.RWMutex
	last     *models.RaceStatus
	lastPoll time.Time
}

// PollerStats summarises the poller for health checks
type PollerStats struct {
	Polls         int64     `json:"polls"`
	Skipped       int64     `json:"skipped"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	StatusKnown   bool      `json:"status_known"`
	OrderCaptured bool      `json:"order_captured"`
}

func NewPoller(source StatusSource, sink StatusSink, clock clockwork.Clock, interval time.Duration) *Poller {
	return &Poller{
		source:   source,
		sink:     sink,
		clock:    clock,
		interval: interval,
		inFlight: semaphore.NewWeighted(1),
	}
}

// Run polls immediately and then on every tick until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", p.interval).Msg("race status poller started")
	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Int64("polls", p.polls.Load()).Int64("skipped", p.skipped.Load()).Msg("race status poller stopped")
			return
		case <-ticker.Chan():
			p.tick(ctx)
		}
	}
}

// tick starts a poll unless one is still running
func (p *Poller) tick(ctx context.Context) bool {
	if !p.inFlight.TryAcquire(1) {
		p.skipped.Add(1)
		log.Debug().Msg("previous status poll still in flight, skipping tick")
		return false
	}
	go func() {
		defer p.inFlight.Release(1)
		p.PollOnce(ctx)
	}()
	return true
}

// PollOnce fetches the status and forwards it. A failed fetch keeps the last
// known status; after completion the order is fetched until one capture
// succeeds.
func (p *Poller) PollOnce(ctx context.Context) {
	p.polls.Add(1)

	status, err := p.source.GetRaceStatus(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("failed to poll race status, keeping last known status")
		return
	}

	p.mu.Lock()
	p.last = status
	p.lastPoll = p.clock.Now()
	p.mu.Unlock()

	if err := p.sink.ObserveStatus(ctx, *status); err != nil {
		log.Debug().Err(err).Msg("dropping race status, sink gone")
		return
	}

	if !status.DraftCompleted || p.captured.Load() {
		return
	}

	order, err := p.source.GetDraftOrder(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("draft completed but order fetch failed, retrying next poll")
		}
		return
	}
	if err := p.sink.CaptureOrder(ctx, order); err != nil {
		log.Warn().Err(err).Msg("failed to capture final draft order")
		return
	}
	p.captured.Store(true)
	log.Info().Strs("owners", order.Owners()).Msg("final draft order captured")
}

// LastStatus returns the most recent successful poll result, or nil
func (p *Poller) LastStatus() *models.RaceStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return nil
	}
	s := *p.last
	return &s
}

// Captured reports whether the final order has been captured
func (p *Poller) Captured() bool {
	return p.captured.Load()
}

// Stats returns the poll counters and the time of the last successful poll
func (p *Poller) Stats() PollerStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PollerStats{
		Polls:         p.polls.Load(),
		Skipped:       p.skipped.Load(),
		LastSuccessAt: p.lastPoll,
		StatusKnown:   p.last != nil,
		OrderCaptured: p.captured.Load(),
	}
}
