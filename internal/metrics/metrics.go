package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScheduleOutcomes counts every scheduling attempt by source and result code ("accepted" on success)
	ScheduleOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_schedule_outcomes_total",
			Help: "Campaign scheduling attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// BatchSize tracks how many candidates each uploaded document produced
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_batch_candidates",
			Help:    "Number of candidate records per ingested batch",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	// ExtractionFailures counts documents that yielded no candidates because extraction failed
	ExtractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_extraction_failures_total",
			Help: "Document extractions that failed, by format and stage",
		},
		[]string{"format", "stage"},
	)

	// GenerationDuration tracks the latency of LLM calls
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "llm_generation_duration_seconds",
			Help: "Duration of language model generation requests in seconds",
			Buckets: []float64{
				0.5,
				1,
				2.5,
				5,
				10,
				30,
				60,
				120,
				300,
			},
		},
		[]string{"model", "status"},
	)
)

// RecordScheduleOutcome records the result of one scheduling attempt
func RecordScheduleOutcome(source, outcome string) {
	ScheduleOutcomes.WithLabelValues(source, outcome).Inc()
}

// RecordBatchSize records the size of one ingested batch
func RecordBatchSize(n int) {
	BatchSize.Observe(float64(n))
}

// RecordExtractionFailure records a failed extraction
func RecordExtractionFailure(format, stage string) {
	ExtractionFailures.WithLabelValues(format, stage).Inc()
}

// RecordGenerationDuration records the duration of an LLM call
func RecordGenerationDuration(model, status string, duration float64) {
	GenerationDuration.WithLabelValues(model, status).Observe(duration)
}
