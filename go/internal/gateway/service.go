package gateway

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service is the race gateway: HTTP actions, WebSocket fan-out and the
// optional relay of race events from JetStream
type Service struct {
	connectionManager *ConnectionManager
	raceHandler       *RaceHandler
	feed              *RaceFeed
	eventConsumer     *EventConsumer
}

// Config holds configuration for the race gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	// JetStreamConfig enables the event relay when set
	JetStreamConfig *JetStreamConsumerConfig
	// Clock stamps outgoing messages and connection times
	Clock clockwork.Clock
}

// DefaultConfig returns default configuration for the race gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Clock:            clockwork.NewRealClock(),
	}
}

// NewService creates a new race gateway service
func NewService(ctx context.Context, config Config, race RaceController) (*Service, error) {
	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	raceHandler := NewRaceHandler(race, clock)
	connectionManager := NewConnectionManager(config.ConnectionConfig, raceHandler, clock)
	raceHandler.connectionManager = connectionManager

	s := &Service{
		connectionManager: connectionManager,
		raceHandler:       raceHandler,
		feed:              NewRaceFeed(race, connectionManager, clock),
	}

	if config.JetStreamConfig != nil {
		consumer, err := NewEventConsumer(ctx, connectionManager, *config.JetStreamConfig, clock)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}

	return s, nil
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Bool("event_relay", s.eventConsumer != nil).Msg("starting race gateway service")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.connectionManager.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return s.feed.Run(ctx)
	})
	if s.eventConsumer != nil {
		g.Go(func() error {
			return s.eventConsumer.Start(ctx)
		})
	}

	err := g.Wait()
	log.Info().Msg("race gateway service shutting down")
	if s.eventConsumer != nil {
		if stopErr := s.eventConsumer.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("failed to stop event consumer")
		}
	}
	return err
}

// RegisterRoutes registers the race HTTP and WebSocket routes
func (s *Service) RegisterRoutes(r chi.Router) {
	s.raceHandler.RegisterRoutes(r)
	log.Info().Msg("race gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
