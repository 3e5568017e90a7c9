package draftrace

import (
	"errors"
	"fmt"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

var (
	ErrStatusUnknown = errors.New("race status not loaded yet")
	ErrRaceLocked    = errors.New("race is locked")
	ErrNotReady      = errors.New("race is not ready to start")
	ErrAlreadyRacing = errors.New("race already in progress")
	ErrNoRevealError = errors.New("no failed reveal to retry")
)

// Phase is the lifecycle stage of the draft order race
type Phase string

const (
	PhaseLoading     Phase = "loading"
	PhaseLocked      Phase = "locked"
	PhaseReady       Phase = "ready"
	PhaseRacing      Phase = "racing"
	PhaseRevealed    Phase = "revealed"
	PhaseLockedFinal Phase = "locked_final"
)

// EffectType is work the owner of the machine has to carry out
type EffectType string

const (
	EffectStartAnimation   EffectType = "StartAnimation"
	EffectFetchRevealOrder EffectType = "FetchRevealOrder"
)

type Effect struct {
	Type EffectType
	Auto bool
}

type Transition struct {
	From   Phase
	To     Phase
	Reason string
}

// Result lists what a single input did to the machine
type Result struct {
	Transitions []Transition
	Effects     []Effect
}

func (r Result) Changed() bool {
	return len(r.Transitions) > 0
}

// State is a read-only view of the machine
type State struct {
	Phase         Phase
	Status        *models.RaceStatus
	Order         models.DraftOrder
	RevealError   error
	RaceStarted   bool
	Animating     bool
	RevealPending bool
	Completed     bool
}

// CanStart reports whether a manual start would be accepted
func (s State) CanStart() bool {
	return s.Phase == PhaseReady && s.Status != nil && !s.Status.TimeLocked && !s.Status.DraftCompleted && !s.Completed
}

// Machine decides race transitions from poll results, timers and user
// actions. It performs no I/O and is not safe for concurrent use; the
// Controller owns it.
type Machine struct {
	phase  Phase
	status *models.RaceStatus

	completed     bool
	raceStarted   bool
	animating     bool
	revealPending bool
	revealErr     error

	revealed models.DraftOrder
	locked   models.DraftOrder
}

func NewMachine() *Machine {
	return &Machine{phase: PhaseLoading}
}

func (m *Machine) Phase() Phase {
	return m.phase
}

func (m *Machine) State() State {
	state := State{
		Phase:         m.phase,
		RevealError:   m.revealErr,
		RaceStarted:   m.raceStarted,
		Animating:     m.animating,
		RevealPending: m.revealPending,
		Completed:     m.completed,
	}
	if m.status != nil {
		s := *m.status
		state.Status = &s
	}
	switch m.phase {
	case PhaseRevealed:
		state.Order = m.revealed
	case PhaseLockedFinal:
		state.Order = m.locked
	}
	return state
}

// ObserveStatus applies a poll result
func (m *Machine) ObserveStatus(status models.RaceStatus) Result {
	m.status = &status
	var res Result

	if m.phase == PhaseLockedFinal {
		return res
	}

	if status.DraftCompleted {
		m.completed = true
		m.finalize(&res, "draft completed")
		// shown as locked until the final order is captured
		if m.phase == PhaseLoading {
			m.to(&res, PhaseLocked, "draft completed, waiting for final order")
		}
		return res
	}

	// a completed draft never goes back to a startable phase, even if a later
	// poll disagrees
	if m.completed {
		return res
	}

	switch m.phase {
	case PhaseLoading:
		if status.RevealDue() {
			m.to(&res, PhaseReady, "reveal deadline passed")
		} else {
			m.to(&res, PhaseLocked, "reveal deadline in the future")
		}
	case PhaseLocked:
		if status.RevealDue() {
			m.to(&res, PhaseReady, "reveal deadline passed")
		}
	}

	if m.phase == PhaseReady && status.ShouldAutoStart && !m.raceStarted {
		m.startRace(&res, true)
	}
	return res
}

// CaptureOrder records the authoritative order fetched after completion.
// The first captured order is permanent.
func (m *Machine) CaptureOrder(order models.DraftOrder) (Result, error) {
	var res Result
	if m.locked != nil {
		return res, nil
	}
	normalized, err := order.Normalize()
	if err != nil {
		return res, err
	}
	m.locked = normalized
	m.completed = true
	m.finalize(&res, "authoritative order captured")
	return res, nil
}

// Start is the manual start action
func (m *Machine) Start() (Result, error) {
	var res Result
	switch {
	case m.status == nil:
		return res, ErrStatusUnknown
	case m.completed || m.status.DraftCompleted || m.status.TimeLocked:
		return res, ErrRaceLocked
	case m.phase == PhaseRacing:
		return res, ErrAlreadyRacing
	case m.phase != PhaseReady:
		return res, fmt.Errorf("%w: phase is %s", ErrNotReady, m.phase)
	}
	m.startRace(&res, false)
	return res, nil
}

// AnimationElapsed is fed when the animation timer fires
func (m *Machine) AnimationElapsed() Result {
	var res Result
	if m.phase != PhaseRacing || !m.animating {
		return res
	}
	m.animating = false

	if m.locked != nil {
		m.to(&res, PhaseLockedFinal, "animation finished, order already locked")
		return res
	}
	m.requestReveal(&res)
	return res
}

// RevealSucceeded applies the order fetched for the reveal
func (m *Machine) RevealSucceeded(order models.DraftOrder) Result {
	var res Result
	if m.phase != PhaseRacing || !m.revealPending {
		return res
	}
	m.revealPending = false

	if m.locked != nil {
		m.to(&res, PhaseLockedFinal, "order locked while revealing")
		return res
	}

	normalized, err := order.Normalize()
	if err != nil {
		m.revealErr = err
		return res
	}
	m.revealed = normalized
	m.revealErr = nil
	m.to(&res, PhaseRevealed, "order revealed")
	return res
}

// RevealFailed keeps the race resolved but without an order
func (m *Machine) RevealFailed(err error) Result {
	var res Result
	if m.phase != PhaseRacing || !m.revealPending {
		return res
	}
	m.revealPending = false
	m.revealErr = err
	return res
}

// RetryReveal re-issues the reveal fetch after a failure
func (m *Machine) RetryReveal() (Result, error) {
	var res Result
	if m.phase != PhaseRacing || m.animating || m.revealPending || m.revealErr == nil {
		return res, ErrNoRevealError
	}
	m.revealErr = nil
	if m.locked != nil {
		m.to(&res, PhaseLockedFinal, "order already locked")
		return res, nil
	}
	m.requestReveal(&res)
	return res, nil
}

func (m *Machine) startRace(res *Result, auto bool) {
	m.raceStarted = true
	m.animating = true
	m.revealErr = nil
	reason := "started manually"
	if auto {
		reason = "auto start"
	}
	m.to(res, PhaseRacing, reason)
	res.Effects = append(res.Effects, Effect{Type: EffectStartAnimation, Auto: auto})
}

func (m *Machine) requestReveal(res *Result) {
	m.revealPending = true
	res.Effects = append(res.Effects, Effect{Type: EffectFetchRevealOrder})
}

// finalize locks the order once it has been captured. A running animation is
// allowed to finish first; AnimationElapsed completes the substitution.
func (m *Machine) finalize(res *Result, reason string) {
	if m.locked == nil || m.phase == PhaseLockedFinal {
		return
	}
	if m.phase == PhaseRacing && m.animating {
		return
	}
	m.revealPending = false
	m.revealErr = nil
	m.to(res, PhaseLockedFinal, reason)
}

func (m *Machine) to(res *Result, phase Phase, reason string) {
	if m.phase == phase {
		return
	}
	res.Transitions = append(res.Transitions, Transition{From: m.phase, To: phase, Reason: reason})
	m.phase = phase
}
