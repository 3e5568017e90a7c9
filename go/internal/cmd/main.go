package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients/league_api_client"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/config"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/monitor"
)

const usage = `Road 2 Royalty

Usage:
  r2r [-config path] serve              # league and draft race view server
  r2r [-config path] race               # follow the draft race in the terminal
  r2r [-config path] monitor [-watch|-draft]
  r2r [-config path] wake               # wake the backend and exit
`

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	flags := flag.NewFlagSet("r2r", flag.ExitOnError)
	configPath := flags.String("config", getEnv("R2R_CONFIG", "config.yaml"), "path to the YAML config file")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	args := flags.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		err = runServe(ctx, cfg)
	case "race":
		err = runRace(ctx, cfg)
	case "monitor":
		err = runMonitor(ctx, cfg, args)
	case "wake":
		err = runWake(ctx, cfg)
	default:
		flags.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("command failed")
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg, services)

	go func() {
		if err := services.Run(ctx); err != nil {
			log.Error().Err(err).Msg("race services failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("road 2 royalty shutdown complete")
	return nil
}

// runRace follows the race without the view server, logging each snapshot
func runRace(ctx context.Context, cfg *config.Config) error {
	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	go func() {
		if err := services.Run(ctx); err != nil {
			log.Error().Err(err).Msg("race services failed")
		}
	}()

	updates, cancel, err := services.Controller.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var last draftrace.Phase
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			renderSnapshot(snap, last)
			last = snap.Phase
		}
	}
}

func renderSnapshot(snap draftrace.Snapshot, last draftrace.Phase) {
	switch {
	case snap.Phase == draftrace.PhaseRacing && last == draftrace.PhaseRacing && snap.Race != nil:
		event := log.Debug().Dur("elapsed", snap.Race.Elapsed)
		for _, c := range snap.Race.Contestants {
			event = event.Float64(fmt.Sprintf("lane_%d", c.Lane), c.Progress)
		}
		event.Msg("race frame")
	case snap.Phase == last:
	case snap.Phase == draftrace.PhaseLocked:
		log.Info().Str("time_remaining", snap.TimeRemaining).Msg("draft order is locked")
	case snap.Phase == draftrace.PhaseRevealed, snap.Phase == draftrace.PhaseLockedFinal:
		log.Info().Strs("order", snap.Order.Owners()).Bool("locked", snap.Locked).Msg("draft order")
	default:
		log.Info().Str("phase", string(snap.Phase)).Bool("can_start", snap.CanStart).Str("reveal_error", snap.RevealError).Msg("race phase")
	}
}

func runMonitor(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("monitor", flag.ExitOnError)
	watch := flags.Bool("watch", false, "continuous monitoring")
	draft := flags.Bool("draft", false, "draft day monitoring (more frequent)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	mode := monitor.ModeOnce
	switch {
	case *draft:
		mode = monitor.ModeDraft
	case *watch:
		mode = monitor.ModeWatch
	}

	client, profile, err := setupClient(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("profile", string(profile.Profile)).Str("base_url", profile.BaseURL).Str("mode", string(mode)).Msg("starting backend monitor")

	m := monitor.NewMonitor(client, clockwork.NewRealClock(), monitor.Config{
		Endpoints:     league_api_client.HealthEndpoints,
		RequestGap:    cfg.Monitor.RequestGap,
		Timeout:       cfg.Monitor.Timeout,
		WatchInterval: cfg.Monitor.WatchInterval,
		DraftInterval: cfg.Monitor.DraftInterval,
	})
	return m.Run(ctx, mode, nil)
}

func runWake(ctx context.Context, cfg *config.Config) error {
	client, _, err := setupClient(cfg)
	if err != nil {
		return err
	}
	if !client.Wake(ctx) {
		return fmt.Errorf("backend did not wake up")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
