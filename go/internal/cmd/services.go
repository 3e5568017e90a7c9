package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients/league_api_client"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/config"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace/publisher"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/gateway"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/league"
)

type Services struct {
	Client     *league_api_client.LeagueApiClient
	Profile    clients.BackendProfileConfig
	Publisher  *publisher.MetricPublisher
	Metrics    *publisher.CounterMetrics
	Controller *draftrace.Controller
	Poller     *draftrace.Poller
	Health     *draftrace.HealthChecker
	Gateway    *gateway.Service
	League     *league.Service

	// wakeFirst holds the poller back until the backend answered the wake request
	wakeFirst bool
}

func setupClient(cfg *config.Config) (*league_api_client.LeagueApiClient, clients.BackendProfileConfig, error) {
	profile, err := cfg.BackendProfile()
	if err != nil {
		return nil, profile, err
	}
	client := league_api_client.NewLeagueApiClient(profile.BaseURL, cfg.Backend.StaticCacheTTL, cfg.ClientOptions()...)
	return client, profile, nil
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Fetch client → Controller → Poller → Gateway, and Fetch client → League app → Service
	clock := clockwork.NewRealClock()

	client, profile, err := setupClient(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("profile", string(profile.Profile)).
		Str("base_url", profile.BaseURL).
		Bool("sleeps", profile.Sleeps).
		Msg("using league backend")

	// Race events
	var pub publisher.EventPublisher = publisher.LogPublisher{}
	var relay *gateway.JetStreamConsumerConfig
	if cfg.NATS.URL != "" {
		jsConfig := publisher.DefaultJetStreamConfig()
		jsConfig.URL = cfg.NATS.URL
		jsConfig.StreamName = cfg.NATS.StreamName
		jsConfig.SubjectPrefix = cfg.NATS.SubjectPrefix

		jsPub, err := publisher.NewJetStreamPublisher(ctx, jsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create race event publisher: %w", err)
		}
		pub = jsPub

		consumerConfig := gateway.DefaultJetStreamConsumerConfig()
		consumerConfig.URL = cfg.NATS.URL
		consumerConfig.StreamName = cfg.NATS.StreamName
		consumerConfig.SubjectFilter = cfg.NATS.SubjectPrefix + ".>"
		relay = &consumerConfig
	}

	metrics := publisher.NewCounterMetrics(clock)
	metricPub := publisher.NewMetricPublisher(pub, metrics, clock)

	// Draft race
	controller := draftrace.NewController(draftrace.ControllerConfig{
		AnimationDuration: cfg.Race.AnimationDuration,
		JitterInterval:    cfg.Race.JitterInterval,
		FrameInterval:     cfg.Race.FrameInterval,
		Contestants:       cfg.Race.Contestants,
	}, client, metricPub, clock, nil)
	poller := draftrace.NewPoller(client, controller, clock, cfg.Race.PollInterval)

	// A single poll may span two attempts and the wake delay
	staleAfter := 2*cfg.Backend.RequestTimeout + cfg.Backend.WakeDelay + cfg.Race.PollInterval
	health := draftrace.NewHealthChecker(poller, controller, metricPub, clock, staleAfter)

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.JetStreamConfig = relay
	gatewayConfig.Clock = clock
	gatewayService, err := gateway.NewService(ctx, gatewayConfig, controller)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("failed to create race gateway: %w", err)
	}

	// League pages
	leagueApp := league.NewApp(client, cfg.Commissioner.PIN, clock, time.Local)
	leagueService := league.NewService(leagueApp)

	return &Services{
		Client:     client,
		Profile:    profile,
		Publisher:  metricPub,
		Metrics:    metrics,
		Controller: controller,
		Poller:     poller,
		Health:     health,
		Gateway:    gatewayService,
		League:     leagueService,
		wakeFirst:  profile.Sleeps || cfg.Backend.WakeOnStart,
	}, nil
}

// Run drives the race controller, the status poller and the gateway until
// ctx is cancelled. The first status poll waits for the wake request so a
// cold start is absorbed once.
func (s *Services) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Controller.Run(gctx)
	})
	g.Go(func() error {
		if s.wakeFirst && !s.Client.Wake(gctx) {
			if gctx.Err() != nil {
				return nil
			}
			log.Warn().Msg("backend did not answer the wake request, polling anyway")
		}
		s.Poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return s.Gateway.Start(gctx)
	})
	return g.Wait()
}

func (s *Services) Close() {
	if err := s.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close race event publisher")
	}
}
