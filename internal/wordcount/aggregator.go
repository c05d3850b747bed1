package wordcount

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/wordcount/pkg/logger"
)

type Options struct {
	// MaxConcurrency bounds the number of files read at once. Zero or
	// negative means one goroutine per file.
	MaxConcurrency int

	// MaxFileBytes rejects larger files as read failures. Zero disables the check.
	MaxFileBytes int64

	// FileReadTimeout bounds the read of a single file. Zero disables it.
	FileReadTimeout time.Duration
}

// FileReport is the outcome of one file. Err is nil or a *StreamReadError.
type FileReport struct {
	Name     string
	Bytes    int64
	Words    int
	Distinct int
	Duration time.Duration
	Err      error
}

type Result struct {
	Counts WordCounts
	Files  []FileReport
}

func (r *Result) Sorted() SortedWordCounts {
	return Sort(r.Counts)
}

func (r *Result) Failed() []FileReport {
	var failed []FileReport
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

func (r *Result) Succeeded() int {
	return len(r.Files) - len(r.Failed())
}

type Aggregator struct {
	logger *slog.Logger
	opts   Options
}

func NewAggregator(logger *slog.Logger, opts Options) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		logger: logger,
		opts:   opts,
	}
}

// Aggregate counts words across files concurrently and waits for every file
// to finish. Unreadable files are skipped and reported in Result.Files.
// If ctx is cancelled the partial counts are dropped and ctx.Err() is returned.
func (a *Aggregator) Aggregate(ctx context.Context, files []File) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesProvided
	}

	log := logger.FromContext(ctx, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	if a.opts.MaxConcurrency > 0 {
		g.SetLimit(a.opts.MaxConcurrency)
	}

	local := make([]WordCounts, len(files))
	reports := make([]FileReport, len(files))

	for i, f := range files {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			counts, report := a.processFile(gctx, f)
			if report.Err != nil {
				// Per-file failures stay isolated; only a dead request aborts the group.
				if err := ctx.Err(); err != nil {
					return err
				}
				log.Warn("Skipping unreadable file",
					slog.String("file", report.Name),
					slog.Int64("bytes_read", report.Bytes),
					slog.Any("err", report.Err))
			}

			local[i] = counts
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Counts: Merge(local...),
		Files:  reports,
	}

	log.Debug("Aggregated word counts",
		slog.Int("files", len(files)),
		slog.Int("failed", len(res.Failed())),
		slog.Int("distinct_words", len(res.Counts)))

	return res, nil
}

func (a *Aggregator) processFile(ctx context.Context, f File) (WordCounts, FileReport) {
	start := time.Now()
	report := FileReport{Name: f.Name()}

	if a.opts.FileReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.FileReadTimeout)
		defer cancel()
	}

	var counts WordCounts
	var pc panics.Catcher
	pc.Try(func() {
		text, n, err := readFile(ctx, f, a.opts.MaxFileBytes)
		report.Bytes = n
		if err != nil {
			report.Err = &StreamReadError{File: report.Name, Err: err}
			return
		}
		counts = CountWords(text)
	})

	if r := pc.Recovered(); r != nil {
		report.Err = &StreamReadError{File: report.Name, Err: r.AsError()}
	}

	report.Duration = time.Since(start)
	if report.Err != nil {
		return nil, report
	}

	report.Words = counts.Total()
	report.Distinct = len(counts)
	return counts, report
}
