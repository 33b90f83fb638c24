package bench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imgbench_load_duration_seconds",
		Help:    "Wall-clock duration of timed loads",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"source", "strategy"})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgbench_loads_total",
		Help: "Timed loads by outcome",
	}, []string{"source", "strategy", "outcome"})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgbench_batches_total",
		Help: "Benchmark batches by mode",
	}, []string{"mode"})
)
