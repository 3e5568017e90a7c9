package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace/events"
)

// MetricsCollector records publish outcomes
type MetricsCollector interface {
	RecordPublish(eventType events.EventType, success bool, duration time.Duration)
}

// EventCounts is the per-type tally kept by CounterMetrics
type EventCounts struct {
	Published int           `json:"published"`
	Failed    int           `json:"failed"`
	Total     time.Duration `json:"total_duration"`
}

// PublishStats is a point-in-time copy of CounterMetrics
type PublishStats struct {
	Published     int                              `json:"published"`
	Failed        int                              `json:"failed"`
	LastPublishAt time.Time                        `json:"last_publish_at,omitempty"`
	ByType        map[events.EventType]EventCounts `json:"by_type"`
}

// CounterMetrics keeps publish counts in memory for the info endpoint
type CounterMetrics struct {
	clock clockwork.Clock

	mu     sync.Mutex
	byType map[events.EventType]*EventCounts
	last   time.Time
}

func NewCounterMetrics(clock clockwork.Clock) *CounterMetrics {
	return &CounterMetrics{
		clock:  clock,
		byType: make(map[events.EventType]*EventCounts),
	}
}

func (m *CounterMetrics) RecordPublish(eventType events.EventType, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts, ok := m.byType[eventType]
	if !ok {
		counts = &EventCounts{}
		m.byType[eventType] = counts
	}
	counts.Total += duration
	if !success {
		counts.Failed++
		return
	}
	counts.Published++
	m.last = m.clock.Now()
}

// Stats returns a copy of the counters
func (m *CounterMetrics) Stats() PublishStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := PublishStats{
		LastPublishAt: m.last,
		ByType:        make(map[events.EventType]EventCounts, len(m.byType)),
	}
	for eventType, counts := range m.byType {
		stats.ByType[eventType] = *counts
		stats.Published += counts.Published
		stats.Failed += counts.Failed
	}
	return stats
}

// MetricPublisher wraps an EventPublisher with metrics collection
type MetricPublisher struct {
	publisher EventPublisher
	metrics   MetricsCollector
	clock     clockwork.Clock
}

func NewMetricPublisher(publisher EventPublisher, metrics MetricsCollector, clock clockwork.Clock) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, event events.RaceEvent) error {
	start := p.clock.Now()

	err := p.publisher.Publish(ctx, event)

	p.metrics.RecordPublish(event.Type, err == nil, p.clock.Since(start))
	return err
}

func (p *MetricPublisher) Close() error {
	return p.publisher.Close()
}

// Connected reports whether the wrapped publisher has a live connection.
// Publishers without a connection are always considered connected.
func (p *MetricPublisher) Connected() bool {
	if c, ok := p.publisher.(interface{ Connected() bool }); ok {
		return c.Connected()
	}
	return true
}
