// Package classify turns free-form LLM output about an artifact into
// bounded, validated Classification records. Parsing is defensive end to
// end: whatever the model returns, the caller always gets at least one
// structurally valid record.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

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
	// ServiceKey identifies classifier traffic to the rate limiter and
	// the usage tracker.
	ServiceKey = "llm_classify"

	noClassificationMarker = "NO_CLASSIFICATION"
	blockMarker            = "CLASSIFICATION"

	defaultExcerptChars = 2000
	defaultConfidence   = 0.5
	fallbackConfidence  = 0.1

	noRationalePlaceholder        = "No rationale provided"
	insufficientEvidenceRationale = "Model reported insufficient evidence to assign an impact category."
	parseFailureRationale         = "Failed to parse classification from response."
)

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

type Classifier struct {
	invoker      llm.Invoker
	limiter      RateLimiter
	usage        UsageRecorder
	excerptChars int
	maxParallel  int
}

func NewClassifier(invoker llm.Invoker, limiter RateLimiter, usage UsageRecorder, excerptChars int) *Classifier {
	if excerptChars <= 0 {
		excerptChars = defaultExcerptChars
	}

	return &Classifier{
		invoker:      invoker,
		limiter:      limiter,
		usage:        usage,
		excerptChars: excerptChars,
		maxParallel:  4,
	}
}

// Classify assigns impact categories to one artifact. It never fails:
// upstream errors, garbled responses, and panics all collapse into a
// low-confidence human_only fallback record, because downstream
// aggregation assumes every artifact yields at least one record.
func (c *Classifier) Classify(ctx context.Context, artifact *models.Artifact, multiClass bool) (records []models.Classification) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Classification panicked",
				zap.String("url", artifact.URL),
				zap.Any("panic", r),
			)
			records = c.fallback(artifact, "panic")
		}
	}()

	prompt := c.buildPrompt(artifact, multiClass)
	callStart := time.Now()

	if err := c.limiter.WaitIfNeeded(ctx, ServiceKey); err != nil {
		logger.Warn("Rate limit wait aborted", zap.String("url", artifact.URL), zap.Error(err))
		c.usage.RecordCall(ServiceKey, prompt, "", 0, 0)
		return c.fallback(artifact, "rate_limit")
	}

	resp, err := c.invoker.Invoke(ctx, llm.Request{
		SystemPrompt: classifySystemPrompt,
		Prompt:       prompt,
		MaxTokens:    800,
		Temperature:  0.1,
	})
	metrics.LLMCallDuration.WithLabelValues(ServiceKey).Observe(time.Since(callStart).Seconds())
	if err != nil {
		logger.Warn("Classification call failed", zap.String("url", artifact.URL), zap.Error(err))
		c.usage.RecordCall(ServiceKey, prompt, "", 0, 0)
		return c.fallback(artifact, "call_failed")
	}

	c.usage.RecordCall(ServiceKey, prompt, resp.Text, resp.TokensUsed, c.usage.EstimateCost(resp.TokensUsed))

	records = c.parseResponse(artifact, resp.Text)

	if !multiClass && len(records) > 1 {
		records = []models.Classification{bestOf(records)}
	}

	for _, r := range records {
		metrics.ClassificationsTotal.WithLabelValues(r.Category).Inc()
		metrics.ClassificationConfidence.Observe(r.Confidence)
	}

	logger.Info("Artifact classified",
		zap.String("url", artifact.URL),
		zap.Int("records", len(records)),
		zap.Bool("multi_class", multiClass),
	)

	return records
}

// ClassifyBatch classifies artifacts with bounded parallelism. One
// item's failure never aborts the others; each slot always holds at
// least one record.
func (c *Classifier) ClassifyBatch(ctx context.Context, artifacts []*models.Artifact, multiClass bool) [][]models.Classification {
	results := make([][]models.Classification, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxParallel)

	for i, artifact := range artifacts {
		i, artifact := i, artifact
		g.Go(func() error {
			results[i] = c.Classify(gctx, artifact, multiClass)
			return nil
		})
	}

	g.Wait()
	return results
}

func (c *Classifier) buildPrompt(artifact *models.Artifact, multiClass bool) string {
	var b strings.Builder

	b.WriteString("Classify the following article's claims about AI's impact on cybersecurity work.\n\n")
	b.WriteString("Categories:\n")
	for _, info := range taxonomy.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", info.ID, info.Description)
	}

	if multiClass {
		b.WriteString("\nAssign every applicable category. Report each as a separate block headed CLASSIFICATION_1, CLASSIFICATION_2, and so on.\n")
	} else {
		b.WriteString("\nAssign exactly one category in a single CLASSIFICATION_1 block.\n")
	}

	b.WriteString(`
Each block must contain:
CATEGORY: <category id>
CONFIDENCE: <0.0 to 1.0>
SUPPORTING_EVIDENCE:
- <direct quote or paraphrase from the article>
RATIONALE: <why this category applies>

If the article contains no classifiable claim, respond with NO_CLASSIFICATION and a short explanation.
`)

	fmt.Fprintf(&b, "\nTitle: %s\nSource type: %s\nURL: %s\n\nArticle:\n%s\n",
		artifact.Title,
		artifact.SourceType,
		artifact.URL,
		ingestion.Excerpt(artifact.Content, c.excerptChars),
	)

	return b.String()
}

func (c *Classifier) parseResponse(artifact *models.Artifact, text string) []models.Classification {
	if strings.Contains(strings.ToUpper(text), noClassificationMarker) {
		// Valid outcome, not an error: the model read the article and
		// found nothing classifiable.
		return []models.Classification{c.newRecord(artifact, taxonomy.CategoryHumanOnly, 0.0, insufficientEvidenceRationale, nil)}
	}

	var records []models.Classification
	for _, block := range parse.Blocks(text, blockMarker) {
		record, ok := c.parseBlock(artifact, block)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return c.fallback(artifact, "parse_failed")
	}

	return records
}

func (c *Classifier) parseBlock(artifact *models.Artifact, block string) (models.Classification, bool) {
	rawCategory := parse.StringSpec{Label: "CATEGORY"}.Extract(block)
	if rawCategory == "" {
		return models.Classification{}, false
	}

	category, ok := taxonomy.ParseCategory(rawCategory)
	if !ok {
		logger.Warn("Model asserted unknown category, coercing to human_only",
			zap.String("url", artifact.URL),
			zap.String("category", rawCategory),
		)
		metrics.CategoryCoercionsTotal.Inc()
		category = taxonomy.CategoryHumanOnly
	}

	confidence := parse.FloatSpec{Label: "CONFIDENCE", Default: defaultConfidence, Min: 0, Max: 1}.Extract(block)
	evidence := parse.ListSpec{Label: "SUPPORTING_EVIDENCE"}.Extract(block)
	rationale := parse.FreeText(block, "RATIONALE", noRationalePlaceholder)

	return c.newRecord(artifact, category, confidence, rationale, evidence), true
}

func (c *Classifier) fallback(artifact *models.Artifact, reason string) []models.Classification {
	metrics.FallbacksTotal.WithLabelValues("classifier", reason).Inc()
	return []models.Classification{
		c.newRecord(artifact, taxonomy.CategoryHumanOnly, fallbackConfidence, parseFailureRationale, nil),
	}
}

func (c *Classifier) newRecord(artifact *models.Artifact, category taxonomy.Category, confidence float64, rationale string, evidence []string) models.Classification {
	return models.Classification{
		ID:                 uuid.NewString(),
		ArtifactID:         artifactID(artifact),
		Category:           string(category),
		Confidence:         parse.Clamp(confidence, 0, 1),
		Rationale:          rationale,
		SupportingEvidence: evidence,
		ModelUsed:          c.invoker.Model(),
		ClassifiedAt:       time.Now(),
	}
}

func artifactID(artifact *models.Artifact) string {
	if artifact.ID != "" {
		return artifact.ID
	}
	return utils.HashString(artifact.URL)
}

func bestOf(records []models.Classification) models.Classification {
	best := records[0]
	for _, r := range records[1:] {
		// Strict greater keeps first-seen order on ties.
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return best
}

const classifySystemPrompt = `You are an analyst tracking how artificial intelligence changes cybersecurity work. You classify articles into a fixed impact taxonomy and you only use the category ids you are given. Be precise and follow the requested output format exactly.`
