package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftOrder_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		order   DraftOrder
		want    []string
		wantErr bool
	}{
		{
			name:  "sorted by position",
			order: DraftOrder{{Position: 3, Owner: "Cara"}, {Position: 1, Owner: "Alice"}, {Position: 2, Owner: "Bob"}},
			want:  []string{"Alice", "Bob", "Cara"},
		},
		{name: "empty", order: DraftOrder{}, wantErr: true},
		{name: "gap", order: DraftOrder{{Position: 1, Owner: "Alice"}, {Position: 3, Owner: "Cara"}}, wantErr: true},
		{name: "duplicate", order: DraftOrder{{Position: 1, Owner: "Alice"}, {Position: 1, Owner: "Bob"}}, wantErr: true},
		{name: "zero based", order: DraftOrder{{Position: 0, Owner: "Alice"}, {Position: 1, Owner: "Bob"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.order.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDraftOrder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Owners())
		})
	}
}

func TestDraftOrder_NormalizeDoesNotMutate(t *testing.T) {
	order := DraftOrder{{Position: 2, Owner: "Bob"}, {Position: 1, Owner: "Alice"}}
	_, err := order.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Bob", order[0].Owner)
}

func TestStripOrdinals(t *testing.T) {
	tests := map[string]string{
		"August 24th, 2025": "August 24, 2025",
		"Sept 1st 2025":     "Sept 1 2025",
		"the 2nd and 3rd":   "the 2 and 3",
		"North Street":      "North Street",
		"th":                "th",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, stripOrdinals(in))
		})
	}
}

func TestDraftInfo_ScheduledAt(t *testing.T) {
	loc := time.UTC

	at, err := DraftInfo{Date: "2025-08-24"}.ScheduledAt(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 24, 0, 0, 0, 0, loc), at)

	at, err = DraftInfo{Date: "August 24th, 2025"}.ScheduledAt(loc)
	require.NoError(t, err)
	assert.Equal(t, 24, at.Day())
	assert.Equal(t, time.August, at.Month())

	_, err = DraftInfo{}.ScheduledAt(loc)
	assert.Error(t, err)

	_, err = DraftInfo{Date: "whenever works"}.ScheduledAt(loc)
	assert.Error(t, err)
}

func TestRaceStatus_RevealDue(t *testing.T) {
	assert.False(t, RaceStatus{TimeLocked: true, TimeUntilReveal: 3725}.RevealDue())
	assert.True(t, RaceStatus{TimeLocked: true, TimeUntilReveal: 0}.RevealDue())
	assert.True(t, RaceStatus{TimeLocked: false, TimeUntilReveal: 90}.RevealDue())
}

func TestTeamUpdate(t *testing.T) {
	assert.True(t, TeamUpdate{}.IsEmpty())

	name := "Blitz Brigade"
	paid := true
	update := TeamUpdate{TeamName: &name, Paid: &paid}
	assert.False(t, update.IsEmpty())

	team := update.Apply(Team{TeamName: "Old", Owner: "Cara", Role: TeamRoleMember})
	assert.Equal(t, Team{TeamName: "Blitz Brigade", Owner: "Cara", Role: TeamRoleMember, Paid: true}, team)
}
