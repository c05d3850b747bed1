// Package metrics provides real-time metrics collection for the word count service.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Request counts
//   - Processed and skipped files, bytes read and words counted
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//
// The collector runs in a dedicated goroutine and processes events without blocking
// the request path. Every event updates both an in-memory snapshot (served as JSON)
// and a private Prometheus registry (served in the exposition format).
//
// Example usage:
//
//	collector := metrics.NewCollector(1024, logger)
//	collector.Start(ctx)
//
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:  metrics.EventFileProcessed,
//		File:  "notes.txt",
//		Bytes: 2048,
//		Words: 311,
//	}
//
//	snapshot := collector.Snapshot()
//
// On shutdown the collector drains queued events before Done is closed.
package metrics
