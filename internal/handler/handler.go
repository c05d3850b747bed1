package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/angeloszaimis/wordcount/internal/metrics"
	"github.com/angeloszaimis/wordcount/internal/wordcount"
	"github.com/angeloszaimis/wordcount/pkg/logger"
)

// SkippedFilesHeader is set when at least one upload could not be read.
const SkippedFilesHeader = "X-Files-Skipped"

// statusClientClosedRequest is only recorded in metrics; nothing is written
// to a client that has gone away.
const statusClientClosedRequest = 499

var (
	errNotMultipart = errors.New("request must be multipart/form-data")
	errTooManyFiles = errors.New("too many files")
	errMalformed    = errors.New("malformed multipart form")
)

type Limits struct {
	MaxRequestBytes int64
	MaxMemoryBytes  int64
	MaxFiles        int
}

type WordCountHandler struct {
	logger           *slog.Logger
	aggregator       *wordcount.Aggregator
	limits           Limits
	metricsCollector *metrics.Collector
}

func NewWordCountHandler(logger *slog.Logger, agg *wordcount.Aggregator, limits Limits, collector *metrics.Collector) *WordCountHandler {
	return &WordCountHandler{
		logger:           logger,
		aggregator:       agg,
		limits:           limits,
		metricsCollector: collector,
	}
}

func (h *WordCountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context(), h.logger)

	h.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: start,
	})

	status := h.serve(w, r, log)

	h.emitEvent(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
		StatusCode: status,
	})
}

func (h *WordCountHandler) serve(w http.ResponseWriter, r *http.Request, log *slog.Logger) int {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
	}

	if h.limits.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxRequestBytes)
	}

	files, err := h.parseFiles(r)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		log.Warn("Rejected upload", slog.Any("err", err))
		return writeError(w, uploadErrorStatus(err), err.Error())
	}

	res, err := h.aggregator.Aggregate(r.Context(), files)
	switch {
	case errors.Is(err, wordcount.ErrNoFilesProvided):
		return writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		// No status is written. If the connection is still open net/http
		// finishes it as an empty 200, which carries no partial counts.
		log.Info("Request cancelled before counting finished, discarding partial counts", slog.Any("err", err))
		return statusClientClosedRequest
	}

	h.reportFiles(res)

	skipped := len(res.Failed())
	if skipped > 0 {
		w.Header().Set(SkippedFilesHeader, strconv.Itoa(skipped))
	}

	sorted := res.Sorted()
	log.Info("Counted words",
		slog.Int("files", len(files)),
		slog.Int("skipped", skipped),
		slog.Int("distinct_words", len(sorted)),
		slog.Int("limit", limit))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(sorted.Top(limit)); err != nil {
		log.Error("Failed to write response", slog.Any("err", err))
	}

	return http.StatusOK
}

// parseFiles returns every file part of the form, ordered by field name.
func (h *WordCountHandler) parseFiles(r *http.Request) ([]wordcount.File, error) {
	if err := r.ParseMultipartForm(h.limits.MaxMemoryBytes); err != nil {
		switch {
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, errNotMultipart
		case errors.Is(err, io.EOF):
			// An empty body carries no parts at all.
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var files []wordcount.File
	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			files = append(files, formFile{header: fh})
		}
	}

	if h.limits.MaxFiles > 0 && len(files) > h.limits.MaxFiles {
		return nil, errTooManyFiles
	}

	return files, nil
}

func (h *WordCountHandler) reportFiles(res *wordcount.Result) {
	for _, f := range res.Files {
		event := metrics.MetricEvent{
			Type:      metrics.EventFileProcessed,
			Timestamp: time.Now(),
			File:      f.Name,
			Bytes:     f.Bytes,
			Words:     f.Words,
			Duration:  f.Duration,
		}
		if f.Err != nil {
			event.Type = metrics.EventFileSkipped
		}
		h.emitEvent(event)
	}
}

func (h *WordCountHandler) emitEvent(event metrics.MetricEvent) {
	if h.metricsCollector == nil {
		return
	}

	select {
	case h.metricsCollector.EventChannel() <- event:
	default:
	}
}

func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeError(w http.ResponseWriter, status int, msg string) int {
	http.Error(w, msg, status)
	return status
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.NewError("validation_invalid_limit", "must be an integer")
	}

	if err := validation.Validate(n,
		validation.Required.Error("must be at least 1"),
		validation.Min(1).Error("must be at least 1"),
	); err != nil {
		return 0, err
	}

	return n, nil
}

type formFile struct {
	header *multipart.FileHeader
}

func (f formFile) Name() string {
	return f.header.Filename
}

func (f formFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}
