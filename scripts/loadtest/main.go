// Loadtest is a concurrent load generator for the word count service. It
// uploads multipart batches of text files and reports throughput, latency
// percentiles and status codes. Every 200 response is checked for
// descending count order.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:8080/api/wordcount -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -dir ./corpus -files 5 -out summary.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angeloszaimis/wordcount/internal/wordcount"
)

var vocabulary = strings.Fields(`the quick brown fox jumps over lazy dog gopher channel
goroutine select interface struct slice map pointer buffer reader writer context`)

type payload struct {
	name string
	data []byte
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/api/wordcount", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		filesPerReq = flag.Int("files", 3, "Files attached to each request")
		words       = flag.Int("words", 500, "Words per generated file")
		dir         = flag.String("dir", "", "Upload *.txt files from this directory instead of generated text")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
	)

	outJSON := flag.String("out", "", "Write JSON summary to this file (optional)")
	verbose := flag.Bool("v", false, "Verbose per-request logging to stdout")
	flag.Parse()

	corpus, err := loadCorpus(*dir, *filesPerReq, *words)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare corpus: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var total, success, failure, unsorted, skippedFiles int32

	var allLatencies []time.Duration
	var latMu sync.Mutex

	statusCodes := make(map[int]int32)
	var statusMu sync.Mutex

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				atomic.AddInt32(&total, 1)

				body, contentType, err := buildBody(corpus, idx, *filesPerReq)
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}

				start := time.Now()
				req, err := http.NewRequest(http.MethodPost, *url, body)
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}
				req.Header.Set("Content-Type", contentType)

				resp, err := client.Do(req)
				dur := time.Since(start)

				latMu.Lock()
				allLatencies = append(allLatencies, dur)
				latMu.Unlock()

				if err != nil {
					atomic.AddInt32(&failure, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}

				statusMu.Lock()
				statusCodes[resp.StatusCode]++
				statusMu.Unlock()

				var distinct int
				if resp.StatusCode == http.StatusOK {
					atomic.AddInt32(&success, 1)

					var sorted wordcount.SortedWordCounts
					if err := json.NewDecoder(resp.Body).Decode(&sorted); err != nil || !isDescending(sorted) {
						atomic.AddInt32(&unsorted, 1)
					}
					distinct = len(sorted)

					if v := resp.Header.Get("X-Files-Skipped"); v != "" {
						var n int32
						fmt.Sscanf(v, "%d", &n)
						atomic.AddInt32(&skippedFiles, n)
					}
				} else {
					atomic.AddInt32(&failure, 1)
				}

				if *verbose {
					fmt.Printf("[%d] idx=%d status=%d distinct=%d dur=%v\n", workerID, idx, resp.StatusCode, distinct, dur)
				}

				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	totalDuration := time.Since(testStart)
	throughput := float64(total) / totalDuration.Seconds()

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Requests: %d  Concurrency: %d  Files/request: %d\n", *requests, *concurrency, *filesPerReq)
	fmt.Printf("Total sent: %d  Success: %d  Failure: %d\n", total, success, failure)
	fmt.Printf("Unsorted or undecodable responses: %d  Skipped files: %d\n", unsorted, skippedFiles)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, throughput)

	fmt.Println("\nStatus codes:")
	var scKeys []int
	for k := range statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, statusCodes[k])
	}

	lat := summarize(allLatencies)
	if len(allLatencies) > 0 {
		fmt.Println("\nOverall latencies:")
		fmt.Printf("  samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
			len(allLatencies), lat.Min, lat.Avg, lat.Max, lat.P50, lat.P90, lat.P95, lat.P99)
	}

	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	if *outJSON != "" {
		report := map[string]interface{}{
			"target":         *url,
			"requests":       *requests,
			"concurrency":    *concurrency,
			"files":          *filesPerReq,
			"total_sent":     total,
			"success":        success,
			"failure":        failure,
			"unsorted":       unsorted,
			"skipped_files":  skippedFiles,
			"duration_ms":    totalDuration.Milliseconds(),
			"throughput_rps": throughput,
			"status_codes":   statusCodes,
			"p50_ms":         float64(lat.P50.Microseconds()) / 1000,
			"p90_ms":         float64(lat.P90.Microseconds()) / 1000,
			"p95_ms":         float64(lat.P95.Microseconds()) / 1000,
			"p99_ms":         float64(lat.P99.Microseconds()) / 1000,
		}

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failure > 0 || unsorted > 0 {
		os.Exit(2)
	}
}

func loadCorpus(dir string, files, words int) ([]payload, error) {
	if dir == "" {
		corpus := make([]payload, files)
		for i := range corpus {
			var sb strings.Builder
			for w := 0; w < words; w++ {
				if w > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(vocabulary[rand.IntN(len(vocabulary))])
			}
			corpus[i] = payload{name: fmt.Sprintf("generated-%d.txt", i), data: []byte(sb.String())}
		}
		return corpus, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .txt files in %s", dir)
	}

	corpus := make([]payload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, payload{name: filepath.Base(p), data: data})
	}
	return corpus, nil
}

// buildBody picks files round-robin from the corpus starting at idx.
func buildBody(corpus []payload, idx, files int) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for i := 0; i < files; i++ {
		p := corpus[(idx+i)%len(corpus)]
		part, err := mw.CreateFormFile(fmt.Sprintf("file%d", i), p.name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(p.data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body, mw.FormDataContentType(), nil
}

func isDescending(sorted wordcount.SortedWordCounts) bool {
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].Count < sorted[i+1].Count {
			return false
		}
	}
	return true
}

type latencySummary struct {
	Min, Avg, Max, P50, P90, P95, P99 time.Duration
}

func summarize(latencies []time.Duration) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}

	tmp := make([]time.Duration, len(latencies))
	copy(tmp, latencies)
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })

	var sum time.Duration
	for _, d := range tmp {
		sum += d
	}

	pick := func(p float64) time.Duration { return tmp[int(float64(len(tmp)-1)*p)] }

	return latencySummary{
		Min: tmp[0],
		Avg: sum / time.Duration(len(tmp)),
		Max: tmp[len(tmp)-1],
		P50: pick(0.50),
		P90: pick(0.90),
		P95: pick(0.95),
		P99: pick(0.99),
	}
}
