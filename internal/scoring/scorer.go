// Package scoring converts a structured LLM assessment of an artifact's
// source into a single composite credibility score. The composite is
// always recomputed locally from the component fields; the model's own
// arithmetic is never trusted.
package scoring

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/ingestion"
	"github.com/ai-horizon/backend/internal/llm"
	"github.com/ai-horizon/backend/internal/metrics"
	"github.com/ai-horizon/backend/internal/parse"
	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/internal/taxonomy"
	"github.com/ai-horizon/backend/pkg/logger"
	"github.com/ai-horizon/backend/pkg/utils"
)

const (
	// ServiceKey identifies scorer traffic to the rate limiter and the
	// usage tracker.
	ServiceKey = "llm_score"

	defaultExcerptChars = 1500

	fallbackOverallScore = 0.1
	fallbackRationale    = "Unable to parse scoring rationale"
)

// Weights is the fixed composite weighting. Reliability and credibility
// dominate; the contextual factors act as tie-breakers. The defaults are
// preserved for behavioral compatibility but tunable per instance.
type Weights struct {
	Reliability float64
	Credibility float64
	Evidence    float64
	Expert      float64
	Specificity float64
	Recency     float64
}

func DefaultWeights() Weights {
	return Weights{
		Reliability: 0.30,
		Credibility: 0.30,
		Evidence:    0.20,
		Expert:      0.10,
		Specificity: 0.05,
		Recency:     0.05,
	}
}

// RateLimiter is consulted immediately before each LLM invocation.
type RateLimiter interface {
	WaitIfNeeded(ctx context.Context, serviceKey string) error
}

// UsageRecorder receives exactly one accounting event per attempted LLM
// call, including failed calls.
type UsageRecorder interface {
	RecordCall(serviceKey, promptPreview, responsePreview string, tokens int, estimatedCost float64)
	EstimateCost(tokens int) float64
}

type Scorer struct {
	invoker      llm.Invoker
	limiter      RateLimiter
	usage        UsageRecorder
	excerptChars int
	weights      Weights
}

func NewScorer(invoker llm.Invoker, limiter RateLimiter, usage UsageRecorder, excerptChars int) *Scorer {
	if excerptChars <= 0 {
		excerptChars = defaultExcerptChars
	}

	return &Scorer{
		invoker:      invoker,
		limiter:      limiter,
		usage:        usage,
		excerptChars: excerptChars,
		weights:      DefaultWeights(),
	}
}

// WithWeights overrides the composite weighting. Callers are expected to
// pass a set that sums to 1.0.
func (s *Scorer) WithWeights(w Weights) *Scorer {
	s.weights = w
	return s
}

// Standalone grade characters only, so prose like "grade b" yields B
// rather than the first a-f letter inside a word.
var (
	gradeLetterRe = regexp.MustCompile(`\b[A-Fa-f]\b`)
	gradeDigitRe  = regexp.MustCompile(`\b[1-6]\b`)
)

// Score assesses one artifact's source credibility. It never fails:
// call failures and unparseable responses yield the worst-case score so
// every artifact stays rankable.
func (s *Scorer) Score(ctx context.Context, artifact *models.Artifact) (score *models.SourceScore) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Source scoring panicked",
				zap.String("url", artifact.URL),
				zap.Any("panic", r),
			)
			score = s.fallback(artifact, "panic")
		}
	}()

	prompt := s.buildPrompt(artifact)
	callStart := time.Now()

	if err := s.limiter.WaitIfNeeded(ctx, ServiceKey); err != nil {
		logger.Warn("Rate limit wait aborted", zap.String("url", artifact.URL), zap.Error(err))
		s.usage.RecordCall(ServiceKey, prompt, "", 0, 0)
		return s.fallback(artifact, "rate_limit")
	}

	resp, err := s.invoker.Invoke(ctx, llm.Request{
		SystemPrompt: scoreSystemPrompt,
		Prompt:       prompt,
		MaxTokens:    600,
		Temperature:  0.1,
	})
	metrics.LLMCallDuration.WithLabelValues(ServiceKey).Observe(time.Since(callStart).Seconds())
	if err != nil {
		logger.Warn("Scoring call failed", zap.String("url", artifact.URL), zap.Error(err))
		s.usage.RecordCall(ServiceKey, prompt, "", 0, 0)
		return s.fallback(artifact, "call_failed")
	}

	s.usage.RecordCall(ServiceKey, prompt, resp.Text, resp.TokensUsed, s.usage.EstimateCost(resp.TokensUsed))

	score = s.parseResponse(artifact, resp.Text)
	metrics.SourceScoreOverall.Observe(score.OverallScore)

	logger.Info("Artifact scored",
		zap.String("url", artifact.URL),
		zap.String("reliability", score.SourceReliability),
		zap.String("credibility", score.InfoCredibility),
		zap.Float64("overall", score.OverallScore),
	)

	return score
}

func (s *Scorer) buildPrompt(artifact *models.Artifact) string {
	var b strings.Builder

	b.WriteString("Assess the credibility of the following article's source using the rubric below.\n\n")

	b.WriteString("Source reliability scale:\n")
	for _, scale := range taxonomy.ReliabilityScales {
		fmt.Fprintf(&b, "%s - %s: %s\n", scale.Grade, scale.Name, scale.Description)
	}

	b.WriteString("\nInformation credibility scale:\n")
	for _, scale := range taxonomy.CredibilityScales {
		fmt.Fprintf(&b, "%s - %s: %s\n", scale.Grade, scale.Name, scale.Description)
	}

	b.WriteString(`
Respond with exactly these fields:
SOURCE_RELIABILITY: <A-F>
INFO_CREDIBILITY: <1-6>
SPECIFICITY: <0.0 to 1.0, concrete detail vs vague claims>
RECENCY: <0.0 to 1.0, how current the information is>
EVIDENCE: <0.0 to 1.0, strength of cited evidence>
EXPERT: <0.0 to 1.0, author or cited expert authority>
RATIONALE: <short justification for the grades>
`)

	fmt.Fprintf(&b, "\nTitle: %s\nSource type: %s\nURL: %s\n\nArticle:\n%s\n",
		artifact.Title,
		artifact.SourceType,
		artifact.URL,
		ingestion.Excerpt(artifact.Content, s.excerptChars),
	)

	return b.String()
}

func (s *Scorer) parseResponse(artifact *models.Artifact, text string) *models.SourceScore {
	fields := []string{"SOURCE_RELIABILITY", "INFO_CREDIBILITY", "SPECIFICITY", "RECENCY", "EVIDENCE", "EXPERT"}
	found := false
	for _, label := range fields {
		if (parse.StringSpec{Label: label}).Found(text) {
			found = true
			break
		}
	}
	if !found {
		logger.Warn("No scoring fields in response", zap.String("url", artifact.URL))
		return s.fallback(artifact, "parse_failed")
	}

	reliability := extractGrade(text, "SOURCE_RELIABILITY", gradeLetterRe, "F")
	credibility := extractGrade(text, "INFO_CREDIBILITY", gradeDigitRe, "6")

	score := &models.SourceScore{
		ID:                uuid.NewString(),
		ArtifactID:        artifactID(artifact),
		SourceReliability: strings.ToUpper(reliability),
		InfoCredibility:   credibility,
		Specificity:       parse.FloatSpec{Label: "SPECIFICITY", Min: 0, Max: 1}.Extract(text),
		Recency:           parse.FloatSpec{Label: "RECENCY", Min: 0, Max: 1}.Extract(text),
		Evidence:          parse.FloatSpec{Label: "EVIDENCE", Min: 0, Max: 1}.Extract(text),
		Expert:            parse.FloatSpec{Label: "EXPERT", Min: 0, Max: 1}.Extract(text),
		Rationale:         parse.FreeText(text, "RATIONALE", fallbackRationale),
		ModelUsed:         s.invoker.Model(),
		ScoredAt:          time.Now(),
	}

	score.OverallScore = s.Composite(score)
	return score
}

// Composite recomputes the weighted overall score from the six component
// fields, rounded to 3 decimals. Pure and deterministic.
func (s *Scorer) Composite(score *models.SourceScore) float64 {
	w := s.weights
	overall := w.Reliability*taxonomy.ReliabilityValue(score.SourceReliability) +
		w.Credibility*taxonomy.CredibilityValue(score.InfoCredibility) +
		w.Evidence*score.Evidence +
		w.Expert*score.Expert +
		w.Specificity*score.Specificity +
		w.Recency*score.Recency

	return math.Round(overall*1000) / 1000
}

func extractGrade(text, label string, gradeRe *regexp.Regexp, def string) string {
	raw := parse.StringSpec{Label: label, Default: def}.Extract(text)
	if grade := gradeRe.FindString(raw); grade != "" {
		return grade
	}
	return def
}

func (s *Scorer) fallback(artifact *models.Artifact, reason string) *models.SourceScore {
	metrics.FallbacksTotal.WithLabelValues("scorer", reason).Inc()

	return &models.SourceScore{
		ID:                uuid.NewString(),
		ArtifactID:        artifactID(artifact),
		SourceReliability: "F",
		InfoCredibility:   "6",
		Specificity:       0.0,
		Recency:           0.0,
		Evidence:          0.0,
		Expert:            0.0,
		OverallScore:      fallbackOverallScore,
		Rationale:         fmt.Sprintf("Scoring failed (%s); assigned worst-case score", reason),
		ModelUsed:         s.invoker.Model(),
		ScoredAt:          time.Now(),
	}
}

func artifactID(artifact *models.Artifact) string {
	if artifact.ID != "" {
		return artifact.ID
	}
	return utils.HashString(artifact.URL)
}

const scoreSystemPrompt = `You are an intelligence analyst grading open sources. You apply the NATO admiralty system: a letter grade for source reliability and a numeric grade for information credibility, plus four contextual sub-scores. Follow the requested output format exactly.`
