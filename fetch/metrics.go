package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "imgbench_fetches_in_flight",
		Help: "Fetch goroutines currently running, by transport strategy.",
	}, []string{"strategy"})

	fetchesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgbench_fetches_discarded_total",
		Help: "Payloads produced after their handle was cancelled.",
	}, []string{"strategy"})
)
