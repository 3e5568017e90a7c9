package draftrace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

var (
	lockedStatus    = models.RaceStatus{TimeLocked: true, TimeUntilReveal: 3725}
	readyStatus     = models.RaceStatus{TimeLocked: false}
	autoStartStatus = models.RaceStatus{TimeLocked: true, TimeUntilReveal: 0, ShouldAutoStart: true}
	completedStatus = models.RaceStatus{DraftCompleted: true, ShouldAutoStart: true}

	sampleOrder = models.DraftOrder{
		{Position: 2, Owner: "Bob"},
		{Position: 1, Owner: "Alice"},
		{Position: 3, Owner: "Cara"},
	}
	lockedOrder = models.DraftOrder{
		{Position: 1, Owner: "Cara"},
		{Position: 2, Owner: "Alice"},
		{Position: 3, Owner: "Bob"},
	}
)

func effectTypes(res Result) []EffectType {
	var types []EffectType
	for _, e := range res.Effects {
		types = append(types, e.Type)
	}
	return types
}

func racingMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine()
	m.ObserveStatus(readyStatus)
	_, err := m.Start()
	require.NoError(t, err)
	require.Equal(t, PhaseRacing, m.Phase())
	return m
}

func TestMachine_InitialStatus(t *testing.T) {
	tests := []struct {
		name   string
		status models.RaceStatus
		want   Phase
	}{
		{"time locked with time remaining", lockedStatus, PhaseLocked},
		{"not time locked", readyStatus, PhaseReady},
		{"time locked but deadline reached", models.RaceStatus{TimeLocked: true}, PhaseReady},
		{"completed without captured order", models.RaceStatus{DraftCompleted: true}, PhaseLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			assert.Equal(t, PhaseLoading, m.Phase())
			m.ObserveStatus(tt.status)
			assert.Equal(t, tt.want, m.Phase())
		})
	}
}

func TestMachine_LockedBecomesReadyWhenDeadlinePasses(t *testing.T) {
	m := NewMachine()
	m.ObserveStatus(lockedStatus)
	require.Equal(t, PhaseLocked, m.Phase())

	m.ObserveStatus(models.RaceStatus{TimeLocked: true, TimeUntilReveal: 12})
	assert.Equal(t, PhaseLocked, m.Phase())

	res := m.ObserveStatus(models.RaceStatus{TimeLocked: true, TimeUntilReveal: 0})
	assert.Equal(t, PhaseReady, m.Phase())
	require.Len(t, res.Transitions, 1)
	assert.Equal(t, Transition{From: PhaseLocked, To: PhaseReady, Reason: "reveal deadline passed"}, res.Transitions[0])
}

func TestMachine_AutoStartFromLoading(t *testing.T) {
	m := NewMachine()
	res := m.ObserveStatus(autoStartStatus)

	assert.Equal(t, PhaseRacing, m.Phase())
	require.Len(t, res.Transitions, 2)
	assert.Equal(t, PhaseReady, res.Transitions[0].To)
	assert.Equal(t, PhaseRacing, res.Transitions[1].To)
	require.Len(t, res.Effects, 1)
	assert.Equal(t, Effect{Type: EffectStartAnimation, Auto: true}, res.Effects[0])
}

func TestMachine_AutoStartFiresOnce(t *testing.T) {
	m := NewMachine()
	m.ObserveStatus(autoStartStatus)
	m.AnimationElapsed()
	m.RevealSucceeded(sampleOrder)
	require.Equal(t, PhaseRevealed, m.Phase())

	for i := 0; i < 5; i++ {
		res := m.ObserveStatus(autoStartStatus)
		assert.Empty(t, res.Effects)
		assert.Equal(t, PhaseRevealed, m.Phase())
	}
}

func TestMachine_AutoStartAfterManualStartIsIgnored(t *testing.T) {
	m := racingMachine(t)
	res := m.ObserveStatus(autoStartStatus)
	assert.Empty(t, res.Effects)
	assert.Equal(t, PhaseRacing, m.Phase())
}

func TestMachine_Start(t *testing.T) {
	tests := []struct {
		name    string
		status  *models.RaceStatus
		wantErr error
	}{
		{"no status yet", nil, ErrStatusUnknown},
		{"time locked", &lockedStatus, ErrRaceLocked},
		{"time locked at deadline", &models.RaceStatus{TimeLocked: true}, ErrRaceLocked},
		{"completed", &completedStatus, ErrRaceLocked},
		{"ready", &readyStatus, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			if tt.status != nil {
				m.ObserveStatus(*tt.status)
			}
			res, err := m.Start()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, res.Effects)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PhaseRacing, m.Phase())
			assert.Equal(t, []EffectType{EffectStartAnimation}, effectTypes(res))
			assert.False(t, res.Effects[0].Auto)
		})
	}
}

func TestMachine_StartWhileRacing(t *testing.T) {
	m := racingMachine(t)
	_, err := m.Start()
	assert.ErrorIs(t, err, ErrAlreadyRacing)
}

func TestMachine_StartAfterReveal(t *testing.T) {
	m := racingMachine(t)
	m.AnimationElapsed()
	m.RevealSucceeded(sampleOrder)

	_, err := m.Start()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMachine_AnimationElapsedRequestsOneReveal(t *testing.T) {
	m := racingMachine(t)

	res := m.AnimationElapsed()
	assert.Equal(t, []EffectType{EffectFetchRevealOrder}, effectTypes(res))

	// a second timer fire must not issue another fetch
	res = m.AnimationElapsed()
	assert.Empty(t, res.Effects)
	assert.True(t, m.State().RevealPending)
}

func TestMachine_RevealSucceeded(t *testing.T) {
	m := racingMachine(t)
	m.AnimationElapsed()

	res := m.RevealSucceeded(sampleOrder)
	require.Len(t, res.Transitions, 1)
	assert.Equal(t, PhaseRevealed, m.Phase())

	state := m.State()
	assert.Equal(t, []string{"Alice", "Bob", "Cara"}, state.Order.Owners())
	assert.Nil(t, state.RevealError)
}

func TestMachine_RevealFailedThenRetry(t *testing.T) {
	m := racingMachine(t)
	m.AnimationElapsed()

	fetchErr := errors.New("backend asleep")
	m.RevealFailed(fetchErr)
	assert.Equal(t, PhaseRacing, m.Phase())
	assert.Equal(t, fetchErr, m.State().RevealError)

	res, err := m.RetryReveal()
	require.NoError(t, err)
	assert.Equal(t, []EffectType{EffectFetchRevealOrder}, effectTypes(res))
	assert.Nil(t, m.State().RevealError)

	_, err = m.RetryReveal()
	assert.ErrorIs(t, err, ErrNoRevealError)

	m.RevealSucceeded(sampleOrder)
	assert.Equal(t, PhaseRevealed, m.Phase())
}

func TestMachine_RetryWithoutFailure(t *testing.T) {
	m := racingMachine(t)
	_, err := m.RetryReveal()
	assert.ErrorIs(t, err, ErrNoRevealError)
}

func TestMachine_InvalidRevealOrderIsAFailure(t *testing.T) {
	m := racingMachine(t)
	m.AnimationElapsed()

	m.RevealSucceeded(models.DraftOrder{{Position: 1, Owner: "A"}, {Position: 3, Owner: "B"}})
	assert.Equal(t, PhaseRacing, m.Phase())
	assert.ErrorIs(t, m.State().RevealError, models.ErrInvalidDraftOrder)
}

func TestMachine_CompletedOnLoadGoesStraightToLockedFinal(t *testing.T) {
	m := NewMachine()
	res := m.ObserveStatus(completedStatus)
	assert.Empty(t, res.Effects, "completed status must not start the animation")
	assert.NotEqual(t, PhaseRacing, m.Phase())

	res, err := m.CaptureOrder(lockedOrder)
	require.NoError(t, err)
	assert.Empty(t, res.Effects)
	assert.Equal(t, PhaseLockedFinal, m.Phase())
	assert.Equal(t, []string{"Cara", "Alice", "Bob"}, m.State().Order.Owners())
}

func TestMachine_CompletedWhileCaptureFailsShowsLocked(t *testing.T) {
	m := NewMachine()
	res := m.ObserveStatus(completedStatus)
	require.Len(t, res.Transitions, 1)
	assert.Equal(t, Transition{From: PhaseLoading, To: PhaseLocked, Reason: "draft completed, waiting for final order"}, res.Transitions[0])

	for i := 0; i < 3; i++ {
		res = m.ObserveStatus(completedStatus)
		assert.False(t, res.Changed())
		assert.Equal(t, PhaseLocked, m.Phase())
	}
	state := m.State()
	assert.False(t, state.CanStart())
	assert.Empty(t, state.Order)

	res, err := m.CaptureOrder(lockedOrder)
	require.NoError(t, err)
	require.Len(t, res.Transitions, 1)
	assert.Equal(t, PhaseLocked, res.Transitions[0].From)
	assert.Equal(t, PhaseLockedFinal, m.Phase())
}

func TestMachine_CompletionDuringAnimationWaitsForTimer(t *testing.T) {
	m := racingMachine(t)

	m.ObserveStatus(completedStatus)
	_, err := m.CaptureOrder(lockedOrder)
	require.NoError(t, err)
	assert.Equal(t, PhaseRacing, m.Phase())

	res := m.AnimationElapsed()
	assert.Empty(t, res.Effects, "locked order must not be refetched")
	assert.Equal(t, PhaseLockedFinal, m.Phase())
	assert.Equal(t, []string{"Cara", "Alice", "Bob"}, m.State().Order.Owners())
}

func TestMachine_CompletionWhileRevealInFlight(t *testing.T) {
	m := racingMachine(t)
	m.AnimationElapsed()

	_, err := m.CaptureOrder(lockedOrder)
	require.NoError(t, err)
	assert.Equal(t, PhaseLockedFinal, m.Phase())

	// the late reveal result is ignored
	res := m.RevealSucceeded(sampleOrder)
	assert.False(t, res.Changed())
	assert.Equal(t, []string{"Cara", "Alice", "Bob"}, m.State().Order.Owners())
}

func TestMachine_CompletionAfterRevealLocksCapturedOrder(t *testing.T) {
	m := racingMachine(t)
	m.AnimationElapsed()
	m.RevealSucceeded(sampleOrder)

	m.ObserveStatus(completedStatus)
	_, err := m.CaptureOrder(lockedOrder)
	require.NoError(t, err)
	assert.Equal(t, PhaseLockedFinal, m.Phase())
	assert.Equal(t, []string{"Cara", "Alice", "Bob"}, m.State().Order.Owners())
}

func TestMachine_LockedFinalIsTerminal(t *testing.T) {
	m := NewMachine()
	m.ObserveStatus(completedStatus)
	_, err := m.CaptureOrder(lockedOrder)
	require.NoError(t, err)

	m.ObserveStatus(readyStatus)
	m.ObserveStatus(autoStartStatus)
	_, err = m.CaptureOrder(sampleOrder)
	require.NoError(t, err)
	_, startErr := m.Start()

	assert.ErrorIs(t, startErr, ErrRaceLocked)
	assert.Equal(t, PhaseLockedFinal, m.Phase())
	assert.Equal(t, []string{"Cara", "Alice", "Bob"}, m.State().Order.Owners())
}

func TestMachine_CompletedNeverReturnsToReady(t *testing.T) {
	m := NewMachine()
	m.ObserveStatus(lockedStatus)
	m.ObserveStatus(completedStatus)

	// a flaky poll reporting the draft as open again is not trusted
	res := m.ObserveStatus(autoStartStatus)
	assert.False(t, res.Changed())
	assert.Equal(t, PhaseLocked, m.Phase())

	_, err := m.Start()
	assert.ErrorIs(t, err, ErrRaceLocked)
}

func TestMachine_CaptureRejectsInvalidOrder(t *testing.T) {
	m := NewMachine()
	m.ObserveStatus(completedStatus)

	_, err := m.CaptureOrder(nil)
	assert.ErrorIs(t, err, models.ErrInvalidDraftOrder)
	assert.NotEqual(t, PhaseLockedFinal, m.Phase())

	_, err = m.CaptureOrder(lockedOrder)
	require.NoError(t, err)
	assert.Equal(t, PhaseLockedFinal, m.Phase())
}

func TestState_CanStart(t *testing.T) {
	m := NewMachine()
	assert.False(t, m.State().CanStart())

	m.ObserveStatus(lockedStatus)
	assert.False(t, m.State().CanStart())

	m.ObserveStatus(readyStatus)
	assert.True(t, m.State().CanStart())

	_, err := m.Start()
	require.NoError(t, err)
	assert.False(t, m.State().CanStart())
}
