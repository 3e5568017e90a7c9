package draftrace

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(contestants int) (*RaceSession, time.Time) {
	start := time.Date(2025, 8, 24, 18, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewPCG(1, 2))
	return NewRaceSession(start, 4*time.Second, 2*time.Second, contestants, rng), start
}

func TestRaceSession_Contestants(t *testing.T) {
	s, start := newTestSession(10)
	frame := s.Advance(start)

	require.Len(t, frame.Contestants, 10)
	for i, c := range frame.Contestants {
		assert.Equal(t, i+1, c.Lane)
		assert.GreaterOrEqual(t, c.Speed, minSpeed)
		assert.LessOrEqual(t, c.Speed, maxSpeed)
		assert.Zero(t, c.Progress)
	}
	assert.Equal(t, s.ID.String(), frame.SessionID)
	assert.False(t, frame.Finished)
}

func TestRaceSession_ProgressIsClampedAndMonotonic(t *testing.T) {
	s, start := newTestSession(10)

	prev := make([]float64, 10)
	for ms := 0; ms <= 5000; ms += 100 {
		frame := s.Advance(start.Add(time.Duration(ms) * time.Millisecond))
		for i, c := range frame.Contestants {
			assert.GreaterOrEqual(t, c.Progress, 0.0)
			assert.LessOrEqual(t, c.Progress, 1.0)
			assert.GreaterOrEqual(t, c.Progress, prev[i])
			assert.GreaterOrEqual(t, c.LateralOffset, -maxLateralOffset)
			assert.LessOrEqual(t, c.LateralOffset, maxLateralOffset)
			prev[i] = c.Progress
		}
	}
}

func TestRaceSession_AllFinishAtDuration(t *testing.T) {
	s, start := newTestSession(6)
	frame := s.Advance(start.Add(4 * time.Second))

	assert.True(t, frame.Finished)
	assert.Equal(t, 4*time.Second, frame.Elapsed)
	for _, c := range frame.Contestants {
		assert.Equal(t, 1.0, c.Progress)
	}
}

func TestRaceSession_TimeDoesNotRunBackwards(t *testing.T) {
	s, start := newTestSession(3)
	later := s.Advance(start.Add(3 * time.Second))
	earlier := s.Advance(start.Add(time.Second))

	assert.Equal(t, later.Elapsed, earlier.Elapsed)
	assert.Equal(t, later.Contestants, earlier.Contestants)
}

func TestRaceSession_JitterOnlyChangesPerInterval(t *testing.T) {
	s, start := newTestSession(4)

	first := s.Advance(start.Add(500 * time.Millisecond))
	second := s.Advance(start.Add(1900 * time.Millisecond))
	for i := range first.Contestants {
		assert.Equal(t, first.Contestants[i].LateralOffset, second.Contestants[i].LateralOffset)
	}

	third := s.Advance(start.Add(2100 * time.Millisecond))
	changed := false
	for i := range third.Contestants {
		if third.Contestants[i].LateralOffset != second.Contestants[i].LateralOffset {
			changed = true
		}
	}
	assert.True(t, changed)
}

func TestRaceSession_SeededRunsAreReproducible(t *testing.T) {
	a, start := newTestSession(5)
	b, _ := newTestSession(5)

	at := start.Add(3 * time.Second)
	assert.Equal(t, a.Advance(at).Contestants, b.Advance(at).Contestants)
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{-5, "0s"},
		{0, "0s"},
		{42, "42s"},
		{60, "1m 0s"},
		{3725, "1h 2m 5s"},
		{86400, "1d 0h 0m 0s"},
		{93784, "1d 2h 3m 4s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimeRemaining(tt.seconds))
		})
	}
}
