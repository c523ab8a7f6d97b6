package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_classifications_total",
			Help: "Total classification records produced, by category",
		},
		[]string{"category"},
	)

	ClassificationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_horizon_classification_confidence",
			Help:    "Confidence of classification records",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_fallbacks_total",
			Help: "Fallback records emitted, by component and reason",
		},
		[]string{"component", "reason"},
	)

	CategoryCoercionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_horizon_category_coercions_total",
			Help: "Model-asserted categories outside the taxonomy coerced to human_only",
		},
	)

	SourceScoreOverall = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_horizon_source_score_overall",
			Help:    "Composite source credibility scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"service"},
	)

	LLMCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_llm_cost_usd",
			Help: "Estimated LLM API cost in USD",
		},
		[]string{"service"},
	)

	LLMCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_horizon_llm_call_duration_seconds",
			Help:    "LLM call duration including rate-limit wait",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service"},
	)

	TasksAnalyzedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_tasks_analyzed_total",
			Help: "Work-role tasks categorized by the rule-based analyzer",
		},
		[]string{"category"},
	)

	ArtifactsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_horizon_artifacts_processed_total",
			Help: "Artifacts normalized and classified through the API",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_horizon_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(ClassificationConfidence)
	prometheus.MustRegister(FallbacksTotal)
	prometheus.MustRegister(CategoryCoercionsTotal)
	prometheus.MustRegister(SourceScoreOverall)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(LLMCost)
	prometheus.MustRegister(LLMCallDuration)
	prometheus.MustRegister(TasksAnalyzedTotal)
	prometheus.MustRegister(ArtifactsProcessedTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
