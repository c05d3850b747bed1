package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the latency window used for percentiles.
const maxSamples = 1000

type Metrics struct {
	mutex          sync.RWMutex
	requests       int64
	filesProcessed int64
	filesSkipped   int64
	bytesRead      int64
	wordsCounted   int64
	responseTimes  []time.Duration
	statusCodes    map[int]int64
	startTime      time.Time
}

type Snapshot struct {
	TotalRequests  int64         `json:"total_requests"`
	Uptime         time.Duration `json:"uptime"`
	FilesProcessed int64         `json:"files_processed"`
	FilesSkipped   int64         `json:"files_skipped"`
	BytesRead      int64         `json:"bytes_read"`
	WordsCounted   int64         `json:"words_counted"`
	AvgResponse    time.Duration `json:"avg_response"`
	P50Response    time.Duration `json:"p50_response"`
	P95Response    time.Duration `json:"p95_response"`
	P99Response    time.Duration `json:"p99_response"`
	StatusCodes    map[int]int64 `json:"status_codes"`
}

func (m *Metrics) IncrementRequests() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests++
}

func (m *Metrics) RecordFile(bytes int64, words int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.filesProcessed++
	m.bytesRead += bytes
	m.wordsCounted += int64(words)
}

func (m *Metrics) RecordSkippedFile() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.filesSkipped++
}

func (m *Metrics) RecordResponse(duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > maxSamples {
		m.responseTimes = m.responseTimes[1:]
	}

	m.statusCodes[statusCode]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests:  m.requests,
		Uptime:         time.Since(m.startTime),
		FilesProcessed: m.filesProcessed,
		FilesSkipped:   m.filesSkipped,
		BytesRead:      m.bytesRead,
		WordsCounted:   m.wordsCounted,
		StatusCodes:    make(map[int]int64, len(m.statusCodes)),
	}

	for code, n := range m.statusCodes {
		snap.StatusCodes[code] = n
	}

	if len(m.responseTimes) > 0 {
		sorted := make([]time.Duration, len(m.responseTimes))
		copy(sorted, m.responseTimes)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		snap.AvgResponse = average(sorted)
		snap.P50Response = percentile(sorted, 0.50)
		snap.P95Response = percentile(sorted, 0.95)
		snap.P99Response = percentile(sorted, 0.99)
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		statusCodes: make(map[int]int64),
		startTime:   time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
