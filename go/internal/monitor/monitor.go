package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
)

// Mode selects how often the monitor sweeps
type Mode string

const (
	ModeOnce  Mode = "once"
	ModeWatch Mode = "watch"
	ModeDraft Mode = "draft"
)

// EndpointStatus is the outcome of checking a single endpoint
type EndpointStatus string

const (
	StatusOK      EndpointStatus = "ok"
	StatusWarning EndpointStatus = "warning"
	StatusError   EndpointStatus = "error"
)

// Backend is what the monitor needs from the fetch client
type Backend interface {
	Ping(ctx context.Context, endpoint string, timeout time.Duration) (time.Duration, error)
	Wake(ctx context.Context) bool
	IsAwake(ctx context.Context) bool
}

// Config holds the sweep settings
type Config struct {
	Endpoints     []string
	RequestGap    time.Duration
	Timeout       time.Duration
	WatchInterval time.Duration
	DraftInterval time.Duration
}

// EndpointResult is one endpoint's check
type EndpointResult struct {
	Endpoint string         `json:"endpoint"`
	Status   EndpointStatus `json:"status"`
	Latency  time.Duration  `json:"latency,omitempty"`
	Code     int            `json:"code,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Report summarises a sweep
type Report struct {
	At          time.Time        `json:"at"`
	Results     []EndpointResult `json:"results"`
	Healthy     int              `json:"healthy"`
	Total       int              `json:"total"`
	MeanLatency time.Duration    `json:"mean_latency"`
}

// AllFailed reports whether no endpoint answered at all
func (r Report) AllFailed() bool {
	for _, res := range r.Results {
		if res.Status != StatusError {
			return false
		}
	}
	return len(r.Results) > 0
}

// Monitor checks the backend endpoints one at a time and wakes the backend
// when nothing answers.
type Monitor struct {
	backend Backend
	clock   clockwork.Clock
	config  Config
}

func NewMonitor(backend Backend, clock clockwork.Clock, config Config) *Monitor {
	return &Monitor{
		backend: backend,
		clock:   clock,
		config:  config,
	}
}

// Interval returns the sweep interval of mode, or 0 for a single sweep
func (m *Monitor) Interval(mode Mode) (time.Duration, error) {
	switch mode {
	case ModeOnce, "":
		return 0, nil
	case ModeWatch:
		return m.config.WatchInterval, nil
	case ModeDraft:
		return m.config.DraftInterval, nil
	default:
		return 0, fmt.Errorf("unknown monitor mode %q", mode)
	}
}

// Sweep checks every endpoint in order, pausing RequestGap between requests
func (m *Monitor) Sweep(ctx context.Context) (Report, error) {
	report := Report{At: m.clock.Now(), Total: len(m.config.Endpoints)}
	log.Info().Int("endpoints", report.Total).Msg("backend health check")

	var total time.Duration
	for i, endpoint := range m.config.Endpoints {
		if i > 0 && m.config.RequestGap > 0 {
			select {
			case <-m.clock.After(m.config.RequestGap):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}

		result := m.check(ctx, endpoint)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Results = append(report.Results, result)
		if result.Status == StatusOK {
			report.Healthy++
			total += result.Latency
		}
	}

	if report.Healthy > 0 {
		report.MeanLatency = total / time.Duration(report.Healthy)
	}

	event := log.Info()
	if report.Healthy < report.Total {
		event = log.Warn()
	}
	event.
		Int("healthy", report.Healthy).
		Int("total", report.Total).
		Dur("mean_latency", report.MeanLatency).
		Msg("health check summary")
	return report, nil
}

func (m *Monitor) check(ctx context.Context, endpoint string) EndpointResult {
	latency, err := m.backend.Ping(ctx, endpoint, m.config.Timeout)
	if err == nil {
		log.Info().Str("endpoint", endpoint).Dur("latency", latency).Msg("endpoint ok")
		return EndpointResult{Endpoint: endpoint, Status: StatusOK, Latency: latency}
	}

	var httpErr *clients.HTTPError
	if errors.As(err, &httpErr) {
		log.Warn().Str("endpoint", endpoint).Int("status_code", httpErr.StatusCode).Msg("endpoint answered with an error status")
		return EndpointResult{Endpoint: endpoint, Status: StatusWarning, Code: httpErr.StatusCode}
	}

	log.Error().Err(err).Str("endpoint", endpoint).Msg("endpoint unreachable")
	return EndpointResult{Endpoint: endpoint, Status: StatusError, Error: err.Error()}
}

// Run sweeps once for ModeOnce, otherwise sweeps on the mode's interval until
// ctx is cancelled. Every sweep where all endpoints errored triggers a wake.
// Reports are delivered to onReport when it is non-nil.
func (m *Monitor) Run(ctx context.Context, mode Mode, onReport func(Report)) error {
	interval, err := m.Interval(mode)
	if err != nil {
		return err
	}

	if err := m.sweepAndWake(ctx, onReport); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	log.Info().Str("mode", string(mode)).Dur("interval", interval).Msg("starting continuous monitoring")
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("monitor stopped")
			return nil
		case <-ticker.Chan():
			if err := m.sweepAndWake(ctx, onReport); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func (m *Monitor) sweepAndWake(ctx context.Context, onReport func(Report)) error {
	report, err := m.Sweep(ctx)
	if err != nil {
		return err
	}
	if onReport != nil {
		onReport(report)
	}
	if !report.AllFailed() {
		return nil
	}

	log.Warn().Msg("backend appears to be sleeping, attempting wake-up")
	if !m.backend.Wake(ctx) {
		return nil
	}
	if m.backend.IsAwake(ctx) {
		log.Info().Msg("backend is fully awake and responding")
	}
	return nil
}
