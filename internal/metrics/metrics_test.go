package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/wordcount/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("NewMetrics", func() {
		It("should start empty", func() {
			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(BeZero())
			Expect(snap.StatusCodes).To(BeEmpty())
			Expect(snap.AvgResponse).To(BeZero())
		})
	})

	Describe("IncrementRequests", func() {
		It("should count requests", func() {
			m.IncrementRequests()
			m.IncrementRequests()

			Expect(m.Snapshot().TotalRequests).To(Equal(int64(2)))
		})
	})

	Describe("RecordFile", func() {
		It("should accumulate bytes and words", func() {
			m.RecordFile(100, 20)
			m.RecordFile(50, 5)

			snap := m.Snapshot()
			Expect(snap.FilesProcessed).To(Equal(int64(2)))
			Expect(snap.BytesRead).To(Equal(int64(150)))
			Expect(snap.WordsCounted).To(Equal(int64(25)))
		})
	})

	Describe("RecordSkippedFile", func() {
		It("should count skipped files separately", func() {
			m.RecordFile(10, 1)
			m.RecordSkippedFile()

			snap := m.Snapshot()
			Expect(snap.FilesProcessed).To(Equal(int64(1)))
			Expect(snap.FilesSkipped).To(Equal(int64(1)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse(100*time.Millisecond, 200)
			m.RecordResponse(300*time.Millisecond, 400)

			snap := m.Snapshot()
			Expect(snap.AvgResponse).To(Equal(200 * time.Millisecond))
			Expect(snap.StatusCodes[200]).To(Equal(int64(1)))
			Expect(snap.StatusCodes[400]).To(Equal(int64(1)))
		})

		It("should compute percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse(time.Duration(i)*time.Millisecond, 200)
			}

			snap := m.Snapshot()
			Expect(snap.P50Response).To(Equal(51 * time.Millisecond))
			Expect(snap.P95Response).To(Equal(96 * time.Millisecond))
			Expect(snap.P99Response).To(Equal(100 * time.Millisecond))
		})

		It("should keep only the most recent samples", func() {
			for i := 0; i < 1000; i++ {
				m.RecordResponse(time.Second, 200)
			}
			for i := 0; i < 1000; i++ {
				m.RecordResponse(time.Millisecond, 200)
			}

			snap := m.Snapshot()
			Expect(snap.AvgResponse).To(Equal(time.Millisecond))
			Expect(snap.StatusCodes[200]).To(Equal(int64(2000)))
		})
	})

	Describe("Snapshot", func() {
		It("should return a copy of the status codes", func() {
			m.RecordResponse(time.Millisecond, 200)

			snap := m.Snapshot()
			snap.StatusCodes[200] = 99

			Expect(m.Snapshot().StatusCodes[200]).To(Equal(int64(1)))
		})

		It("should report uptime", func() {
			time.Sleep(5 * time.Millisecond)
			Expect(m.Snapshot().Uptime).To(BeNumerically(">=", 5*time.Millisecond))
		})
	})
})
