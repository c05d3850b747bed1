package main

import (
	"net/http"

	"github.com/angeloszaimis/wordcount/internal/metrics"
)

func setupRouter(wordCountHandler http.Handler, metricsCollector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /api/wordcount", wordCountHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	if metricsCollector != nil {
		mux.HandleFunc("GET /stats", metricsCollector.Handler())
		mux.Handle("GET /metrics", metricsCollector.PrometheusHandler())
	}

	return mux
}
