package draftrace

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace/events"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

var ErrControllerStopped = errors.New("race controller stopped")

// OrderSource fetches the current draft order from the backend
type OrderSource interface {
	GetDraftOrder(ctx context.Context) (models.DraftOrder, error)
}

// EventPublisher receives every race transition
type EventPublisher interface {
	Publish(ctx context.Context, event events.RaceEvent) error
}

type ControllerConfig struct {
	AnimationDuration time.Duration
	JitterInterval    time.Duration
	// FrameInterval is how often snapshots are pushed while racing; zero
	// disables frame pushes.
	FrameInterval time.Duration
	Contestants   int
}

// Snapshot is what the race view renders
type Snapshot struct {
	Phase         Phase              `json:"phase"`
	Status        *models.RaceStatus `json:"status,omitempty"`
	TimeRemaining string             `json:"time_remaining,omitempty"`
	CanStart      bool               `json:"can_start"`
	Order         models.DraftOrder  `json:"order,omitempty"`
	Locked        bool               `json:"locked"`
	RevealError   string             `json:"reveal_error,omitempty"`
	RevealPending bool               `json:"reveal_pending"`
	Race          *RaceFrame         `json:"race,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type message interface{ isMessage() }

type statusMsg struct {
	status models.RaceStatus
}

type captureMsg struct {
	order models.DraftOrder
	reply chan error
}

type startMsg struct {
	reply chan error
}

type retryMsg struct {
	reply chan error
}

type snapshotMsg struct {
	reply chan Snapshot
}

type subscribeMsg struct {
	reply chan subscription
}

type unsubscribeMsg struct {
	id int
}

type revealResultMsg struct {
	sessionID string
	order     models.DraftOrder
	err       error
}

func (statusMsg) isMessage()       {}
func (captureMsg) isMessage()      {}
func (startMsg) isMessage()        {}
func (retryMsg) isMessage()        {}
func (snapshotMsg) isMessage()     {}
func (subscribeMsg) isMessage()    {}
func (unsubscribeMsg) isMessage()  {}
func (revealResultMsg) isMessage() {}

type subscription struct {
	id int
	ch chan Snapshot
}

// Controller owns the race machine and its session. Every input is handled
// on the Run goroutine, so machine state is never shared.
type Controller struct {
	cfg       ControllerConfig
	orders    OrderSource
	publisher EventPublisher
	clock     clockwork.Clock
	rng       *rand.Rand

	inbox  chan message
	events chan events.RaceEvent
	done   chan struct{}

	// owned by Run
	machine     *Machine
	session     *RaceSession
	lastFrame   *RaceFrame
	animTimer   clockwork.Timer
	frameTicker clockwork.Ticker
	subscribers map[int]chan Snapshot
	nextSubID   int
}

func NewController(cfg ControllerConfig, orders OrderSource, publisher EventPublisher, clock clockwork.Clock, rng *rand.Rand) *Controller {
	if rng == nil {
		now := uint64(clock.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	return &Controller{
		cfg:         cfg,
		orders:      orders,
		publisher:   publisher,
		clock:       clock,
		rng:         rng,
		inbox:       make(chan message, 64),
		events:      make(chan events.RaceEvent, 64),
		done:        make(chan struct{}),
		machine:     NewMachine(),
		subscribers: make(map[int]chan Snapshot),
	}
}

// Run processes inputs until ctx is cancelled. Fetches still in flight at
// that point are discarded.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.stopTimers()

	go c.publishEvents(ctx)

	log.Info().Dur("animation", c.cfg.AnimationDuration).Int("contestants", c.cfg.Contestants).Msg("race controller started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("race controller stopping")
			for id, ch := range c.subscribers {
				close(ch)
				delete(c.subscribers, id)
			}
			return nil
		case msg := <-c.inbox:
			c.handle(ctx, msg)
		case <-c.animationC():
			c.animTimer = nil
			c.stopFrames()
			c.apply(ctx, c.machine.AnimationElapsed())
			c.broadcast()
		case <-c.frameC():
			c.broadcast()
		}
	}
}

// ObserveStatus feeds a poll result
func (c *Controller) ObserveStatus(ctx context.Context, status models.RaceStatus) error {
	return c.send(ctx, statusMsg{status: status})
}

// CaptureOrder feeds the order fetched after completion
func (c *Controller) CaptureOrder(ctx context.Context, order models.DraftOrder) error {
	reply := make(chan error, 1)
	if err := c.send(ctx, captureMsg{order: order, reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

// Start is the manual start action
func (c *Controller) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := c.send(ctx, startMsg{reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

// RetryReveal re-fetches the order after a failed reveal
func (c *Controller) RetryReveal(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := c.send(ctx, retryMsg{reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := c.send(ctx, snapshotMsg{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrControllerStopped
	}
}

// Subscribe returns a channel of snapshots pushed on every change. The
// channel starts with the current snapshot and is closed when the controller
// stops. Slow subscribers miss intermediate snapshots.
func (c *Controller) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	reply := make(chan subscription, 1)
	if err := c.send(ctx, subscribeMsg{reply: reply}); err != nil {
		return nil, nil, err
	}
	var sub subscription
	select {
	case sub = <-reply:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-c.done:
		return nil, nil, ErrControllerStopped
	}

	cancel := func() {
		select {
		case c.inbox <- unsubscribeMsg{id: sub.id}:
		case <-c.done:
		}
	}
	return sub.ch, cancel, nil
}

func (c *Controller) send(ctx context.Context, msg message) error {
	select {
	case c.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControllerStopped
	}
}

func (c *Controller) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControllerStopped
	}
}

func (c *Controller) handle(ctx context.Context, msg message) {
	switch m := msg.(type) {
	case statusMsg:
		res := c.machine.ObserveStatus(m.status)
		c.apply(ctx, res)
		c.broadcast()

	case captureMsg:
		res, err := c.machine.CaptureOrder(m.order)
		m.reply <- err
		if err != nil {
			log.Warn().Err(err).Msg("rejected captured draft order")
			return
		}
		c.apply(ctx, res)
		c.broadcast()

	case startMsg:
		res, err := c.machine.Start()
		m.reply <- err
		if err != nil {
			log.Debug().Err(err).Str("phase", string(c.machine.Phase())).Msg("start rejected")
			return
		}
		c.apply(ctx, res)
		c.broadcast()

	case retryMsg:
		res, err := c.machine.RetryReveal()
		m.reply <- err
		if err != nil {
			return
		}
		log.Info().Msg("retrying draft order reveal")
		c.apply(ctx, res)
		c.broadcast()

	case revealResultMsg:
		if c.session == nil || c.session.ID.String() != m.sessionID {
			log.Debug().Str("session_id", m.sessionID).Msg("discarding reveal for stale session")
			return
		}
		if m.err != nil {
			log.Error().Err(m.err).Str("session_id", m.sessionID).Msg("failed to fetch draft order for reveal")
			c.apply(ctx, c.machine.RevealFailed(m.err))
			c.emit(events.EventTypeRevealFailed, events.RevealFailedPayload{
				SessionID: m.sessionID,
				Error:     m.err.Error(),
				FailedAt:  c.clock.Now(),
			})
		} else {
			c.apply(ctx, c.machine.RevealSucceeded(m.order))
		}
		c.broadcast()

	case snapshotMsg:
		m.reply <- c.snapshot()

	case subscribeMsg:
		c.nextSubID++
		ch := make(chan Snapshot, 8)
		ch <- c.snapshot()
		c.subscribers[c.nextSubID] = ch
		m.reply <- subscription{id: c.nextSubID, ch: ch}

	case unsubscribeMsg:
		if ch, ok := c.subscribers[m.id]; ok {
			close(ch)
			delete(c.subscribers, m.id)
		}
	}
}

// apply carries out the effects and announces the transitions of res
func (c *Controller) apply(ctx context.Context, res Result) {
	for _, effect := range res.Effects {
		switch effect.Type {
		case EffectStartAnimation:
			c.startAnimation(effect.Auto)
		case EffectFetchRevealOrder:
			c.fetchReveal(ctx)
		}
	}

	for _, t := range res.Transitions {
		log.Info().
			Str("from", string(t.From)).
			Str("to", string(t.To)).
			Str("reason", t.Reason).
			Msg("race phase changed")

		c.emit(events.EventTypePhaseChanged, events.PhaseChangedPayload{
			From:      string(t.From),
			To:        string(t.To),
			Reason:    t.Reason,
			ChangedAt: c.clock.Now(),
		})

		switch t.To {
		case PhaseRevealed, PhaseLockedFinal:
			state := c.machine.State()
			eventType := events.EventTypeOrderRevealed
			if t.To == PhaseLockedFinal {
				eventType = events.EventTypeOrderLocked
			}
			c.emit(eventType, events.OrderPayload{
				Owners: state.Order.Owners(),
				Locked: t.To == PhaseLockedFinal,
				At:     c.clock.Now(),
			})
			c.endSession()
		}
	}
}

func (c *Controller) startAnimation(auto bool) {
	c.stopTimers()
	c.lastFrame = nil
	c.session = NewRaceSession(c.clock.Now(), c.cfg.AnimationDuration, c.cfg.JitterInterval, c.cfg.Contestants, c.rng)
	c.animTimer = c.clock.NewTimer(c.cfg.AnimationDuration)
	if c.cfg.FrameInterval > 0 {
		c.frameTicker = c.clock.NewTicker(c.cfg.FrameInterval)
	}

	log.Info().
		Str("session_id", c.session.ID.String()).
		Bool("auto", auto).
		Msg("race started")

	c.emit(events.EventTypeRaceStarted, events.RaceStartedPayload{
		SessionID:   c.session.ID.String(),
		Auto:        auto,
		StartedAt:   c.session.StartedAt,
		DurationSec: c.cfg.AnimationDuration.Seconds(),
		Contestants: c.cfg.Contestants,
	})
}

// fetchReveal issues the reveal fetch off the loop; the result comes back
// through the inbox tagged with the session it belongs to
func (c *Controller) fetchReveal(ctx context.Context) {
	if c.session == nil {
		return
	}
	sessionID := c.session.ID.String()
	log.Info().Str("session_id", sessionID).Msg("fetching draft order for reveal")

	go func() {
		order, err := c.orders.GetDraftOrder(ctx)
		if ctx.Err() != nil {
			return
		}
		select {
		case c.inbox <- revealResultMsg{sessionID: sessionID, order: order, err: err}:
		case <-ctx.Done():
		case <-c.done:
		}
	}()
}

func (c *Controller) endSession() {
	if c.session != nil {
		frame := c.session.Advance(c.session.StartedAt.Add(c.session.Duration))
		c.lastFrame = &frame
	}
	c.session = nil
	c.stopTimers()
}

func (c *Controller) snapshot() Snapshot {
	state := c.machine.State()
	snap := Snapshot{
		Phase:         state.Phase,
		Status:        state.Status,
		CanStart:      state.CanStart(),
		Order:         state.Order,
		Locked:        state.Phase == PhaseLockedFinal,
		RevealPending: state.RevealPending,
		UpdatedAt:     c.clock.Now(),
	}
	if state.RevealError != nil {
		snap.RevealError = state.RevealError.Error()
	}
	if state.Status != nil && state.Phase == PhaseLocked {
		snap.TimeRemaining = FormatTimeRemaining(state.Status.TimeUntilReveal)
	}
	switch {
	case c.session != nil:
		frame := c.session.Advance(c.clock.Now())
		snap.Race = &frame
	case c.lastFrame != nil:
		frame := *c.lastFrame
		snap.Race = &frame
	}
	return snap
}

func (c *Controller) broadcast() {
	if len(c.subscribers) == 0 {
		return
	}
	snap := c.snapshot()
	for id, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			log.Debug().Int("subscriber", id).Msg("subscriber channel full, dropping snapshot")
		}
	}
}

func (c *Controller) emit(eventType events.EventType, payload any) {
	if c.publisher == nil {
		return
	}
	sessionID := ""
	if c.session != nil {
		sessionID = c.session.ID.String()
	}
	event, err := events.NewRaceEvent(eventType, sessionID, payload, c.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build race event")
		return
	}
	select {
	case c.events <- event:
	default:
		log.Warn().Str("event_type", string(eventType)).Msg("event queue full, dropping race event")
	}
}

// publishEvents delivers events in order without blocking the loop
func (c *Controller) publishEvents(ctx context.Context) {
	if c.publisher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.events:
			publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := c.publisher.Publish(publishCtx, event); err != nil {
				log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish race event")
			}
			cancel()
		}
	}
}

func (c *Controller) animationC() <-chan time.Time {
	if c.animTimer == nil {
		return nil
	}
	return c.animTimer.Chan()
}

func (c *Controller) frameC() <-chan time.Time {
	if c.frameTicker == nil {
		return nil
	}
	return c.frameTicker.Chan()
}

func (c *Controller) stopFrames() {
	if c.frameTicker != nil {
		c.frameTicker.Stop()
		c.frameTicker = nil
	}
}

func (c *Controller) stopTimers() {
	if c.animTimer != nil {
		c.animTimer.Stop()
		c.animTimer = nil
	}
	c.stopFrames()
}
