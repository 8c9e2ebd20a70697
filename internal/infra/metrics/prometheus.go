package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenedetect_jobs_processed_total",
		Help: "Total number of jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenedetect_job_processing_duration_seconds",
		Help:    "Duration of the detection and extraction pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	ScenesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenedetect_scenes_detected_total",
		Help: "Total number of scenes detected across all jobs",
	})

	FallbackActivationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenedetect_fallback_activations_total",
		Help: "Times the deterministic fallback detector served a request",
	})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenedetect_frames_extracted_total",
		Help: "Total number of frames extracted across all jobs",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenedetect_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenedetect_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
