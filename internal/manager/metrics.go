package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "histoscan",
			Name:      "model_loads_total",
			Help:      "Model load attempts by result.",
		},
		[]string{"result"},
	)
	predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "histoscan",
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		},
		[]string{"outcome"},
	)
	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "histoscan",
			Name:      "inference_duration_seconds",
			Help:      "Forward pass latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
	memoryRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "histoscan",
			Name:      "memory_rejections_total",
			Help:      "Work refused by a memory guard, by stage.",
		},
		[]string{"stage"},
	)
	modelReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "histoscan",
			Name:      "model_ready",
			Help:      "1 once the model is loaded and warmed up.",
		},
	)
)

func init() {
	prometheus.MustRegister(modelLoads, predictions, inferenceDuration, memoryRejections, modelReady)
}
