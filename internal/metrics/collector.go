package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventFileProcessed     EventType = "file_processed"
	EventFileSkipped       EventType = "file_skipped"
	EventResponseCompleted EventType = "response_completed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	File       string
	Bytes      int64
	Words      int
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh  chan MetricEvent
	metrics  *Metrics
	prom     *promMetrics
	registry *prometheus.Registry
	logger   *slog.Logger
	done     chan struct{}
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		eventCh:  make(chan MetricEvent, bufferSize),
		metrics:  NewMetrics(),
		prom:     newPromMetrics(registry),
		registry: registry,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the collector has drained its queue after ctx ends.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")
	defer close(c.done)

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	// The snapshot is updated last so a visible snapshot implies Prometheus is current.
	switch event.Type {
	case EventRequestReceived:
		c.prom.requests.Inc()
		c.metrics.IncrementRequests()

	case EventFileProcessed:
		c.prom.files.WithLabelValues("processed").Inc()
		c.prom.bytesRead.Add(float64(event.Bytes))
		c.prom.words.Add(float64(event.Words))
		c.metrics.RecordFile(event.Bytes, event.Words)

	case EventFileSkipped:
		c.prom.files.WithLabelValues("skipped").Inc()
		c.metrics.RecordSkippedFile()

	case EventResponseCompleted:
		c.prom.latency.WithLabelValues(statusLabel(event.StatusCode)).Observe(event.Duration.Seconds())
		c.metrics.RecordResponse(event.Duration, event.StatusCode)

	default:
		c.logger.Debug("Ignoring unknown metric event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}

// PrometheusHandler serves the collector's own registry in the text exposition format.
func (c *Collector) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
