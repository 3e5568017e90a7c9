package draftrace

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

const (
	minSpeed = 0.85
	maxSpeed = 1.15

	maxJitterStep    = 0.15
	maxLateralOffset = 0.5
)

// ContestantState is one lane of the race animation
type ContestantState struct {
	Lane          int     `json:"lane"`
	Speed         float64 `json:"speed"`
	LateralOffset float64 `json:"lateral_offset"`
	Progress      float64 `json:"progress"`
}

// RaceFrame is the animation state at one instant
type RaceFrame struct {
	SessionID   string            `json:"session_id"`
	StartedAt   time.Time         `json:"started_at"`
	Elapsed     time.Duration     `json:"elapsed"`
	Duration    time.Duration     `json:"duration"`
	Finished    bool              `json:"finished"`
	Contestants []ContestantState `json:"contestants"`
}

// RaceSession is one run of the race animation. Progress is purely visual;
// the order shown afterwards always comes from the backend.
type RaceSession struct {
	ID             uuid.UUID
	StartedAt      time.Time
	Duration       time.Duration
	JitterInterval time.Duration

	contestants []ContestantState
	rng         *rand.Rand
	jitterSteps int
	elapsed     time.Duration
}

func NewRaceSession(startedAt time.Time, duration, jitterInterval time.Duration, contestants int, rng *rand.Rand) *RaceSession {
	s := &RaceSession{
		ID:             uuid.New(),
		StartedAt:      startedAt,
		Duration:       duration,
		JitterInterval: jitterInterval,
		contestants:    make([]ContestantState, contestants),
		rng:            rng,
	}
	for i := range s.contestants {
		s.contestants[i] = ContestantState{
			Lane:  i + 1,
			Speed: minSpeed + rng.Float64()*(maxSpeed-minSpeed),
		}
	}
	return s
}

// Advance moves the animation to now and returns the frame. Time never runs
// backwards and progress is clamped to [0, 1].
func (s *RaceSession) Advance(now time.Time) RaceFrame {
	elapsed := now.Sub(s.StartedAt)
	if elapsed < s.elapsed {
		elapsed = s.elapsed
	}
	if elapsed > s.Duration {
		elapsed = s.Duration
	}
	s.elapsed = elapsed

	if s.JitterInterval > 0 {
		for steps := int(elapsed / s.JitterInterval); s.jitterSteps < steps; s.jitterSteps++ {
			s.jitter()
		}
	}

	fraction := 1.0
	if s.Duration > 0 {
		fraction = float64(elapsed) / float64(s.Duration)
	}
	finished := fraction >= 1

	for i := range s.contestants {
		c := &s.contestants[i]
		if finished {
			c.Progress = 1
			continue
		}
		c.Progress = clamp(fraction*c.Speed, 0, 1)
	}

	return RaceFrame{
		SessionID:   s.ID.String(),
		StartedAt:   s.StartedAt,
		Elapsed:     elapsed,
		Duration:    s.Duration,
		Finished:    finished,
		Contestants: append([]ContestantState(nil), s.contestants...),
	}
}

func (s *RaceSession) jitter() {
	for i := range s.contestants {
		c := &s.contestants[i]
		c.LateralOffset = clamp(c.LateralOffset+(s.rng.Float64()*2-1)*maxJitterStep, -maxLateralOffset, maxLateralOffset)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
