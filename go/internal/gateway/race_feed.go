package gateway

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace"
)

// RaceFeed pushes every race snapshot to the connected viewers
type RaceFeed struct {
	race              RaceController
	connectionManager *ConnectionManager
	clock             clockwork.Clock
}

func NewRaceFeed(race RaceController, cm *ConnectionManager, clock clockwork.Clock) *RaceFeed {
	return &RaceFeed{race: race, connectionManager: cm, clock: clock}
}

// Run forwards snapshots until ctx is cancelled or the race stops
func (f *RaceFeed) Run(ctx context.Context) error {
	updates, cancel, err := f.race.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	log.Info().Msg("race feed started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				log.Info().Msg("race feed closed")
				return nil
			}
			f.publish(snap)
		}
	}
}

func (f *RaceFeed) publish(snap draftrace.Snapshot) {
	message, err := NewMessage(MessageTypeSnapshot, snap, f.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build snapshot message")
		return
	}
	f.connectionManager.Broadcast(message)
}
