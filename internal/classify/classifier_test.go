package classify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-horizon/backend/internal/llm"
	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/internal/taxonomy"
)

type fakeInvoker struct {
	mu       sync.Mutex
	response string
	tokens   int
	err      error
	calls    int
}

func (f *fakeInvoker) Invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.response, TokensUsed: f.tokens}, nil
}

func (f *fakeInvoker) Model() string { return "test-model" }

type fakeLimiter struct {
	err   error
	calls int
}

func (f *fakeLimiter) WaitIfNeeded(ctx context.Context, serviceKey string) error {
	f.calls++
	return f.err
}

type fakeUsage struct {
	mu      sync.Mutex
	calls   int
	tokens  []int
	costs   []float64
	service []string
}

func (f *fakeUsage) RecordCall(serviceKey, promptPreview, responsePreview string, tokens int, estimatedCost float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.tokens = append(f.tokens, tokens)
	f.costs = append(f.costs, estimatedCost)
	f.service = append(f.service, serviceKey)
}

func (f *fakeUsage) EstimateCost(tokens int) float64 {
	return float64(tokens) * 0.001
}

func testArtifact() *models.Artifact {
	return &models.Artifact{
		URL:        "https://example.com/ai-soc",
		Title:      "AI in the SOC",
		Content:    "Vendors claim tier-1 alert triage is now fully automatable.",
		SourceType: "news",
	}
}

func newTestClassifier(invoker *fakeInvoker) (*Classifier, *fakeLimiter, *fakeUsage) {
	limiter := &fakeLimiter{}
	usage := &fakeUsage{}
	return NewClassifier(invoker, limiter, usage, 0), limiter, usage
}

func TestClassifySingleBlock(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: replace
CONFIDENCE: 0.9
SUPPORTING_EVIDENCE:
- tier-1 alert triage is now fully automatable
RATIONALE: The article claims complete automation of the task.`,
		tokens: 150,
	}
	classifier, limiter, usage := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryReplace), records[0].Category)
	assert.Equal(t, 0.9, records[0].Confidence)
	assert.Equal(t, []string{"tier-1 alert triage is now fully automatable"}, records[0].SupportingEvidence)
	assert.Equal(t, "The article claims complete automation of the task.", records[0].Rationale)
	assert.Equal(t, "test-model", records[0].ModelUsed)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEmpty(t, records[0].ArtifactID)

	assert.Equal(t, 1, limiter.calls)
	assert.Equal(t, 1, usage.calls)
	assert.Equal(t, []int{150}, usage.tokens)
	assert.Equal(t, []string{ServiceKey}, usage.service)
}

func TestClassifyMultiClassKeepsAllBlocks(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: replace
CONFIDENCE: 0.9
RATIONALE: Full automation claim.

CLASSIFICATION_2:
CATEGORY: augment
CONFIDENCE: 0.4
RATIONALE: Also describes analyst assistance.`,
	}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), true)

	require.Len(t, records, 2)
	assert.Equal(t, string(taxonomy.CategoryReplace), records[0].Category)
	assert.Equal(t, string(taxonomy.CategoryAugment), records[1].Category)
}

func TestClassifySingleClassKeepsHighestConfidence(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: augment
CONFIDENCE: 0.4
RATIONALE: Assistive claim.

CLASSIFICATION_2:
CATEGORY: replace
CONFIDENCE: 0.9
RATIONALE: Replacement claim.`,
	}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryReplace), records[0].Category)
	assert.Equal(t, 0.9, records[0].Confidence)
}

func TestClassifyTieKeepsFirstSeen(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: augment
CONFIDENCE: 0.7

CLASSIFICATION_2:
CATEGORY: new_tasks
CONFIDENCE: 0.7`,
	}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryAugment), records[0].Category)
}

func TestClassifyNoClassificationMarker(t *testing.T) {
	invoker := &fakeInvoker{
		response: "NO_CLASSIFICATION\nThe article is a product announcement with no workforce claims.",
	}
	classifier, _, usage := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), true)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryHumanOnly), records[0].Category)
	assert.Equal(t, 0.0, records[0].Confidence)
	assert.Equal(t, insufficientEvidenceRationale, records[0].Rationale)
	assert.Equal(t, 1, usage.calls)
}

func TestClassifyUnknownCategoryCoerced(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: obsolete
CONFIDENCE: 0.8
RATIONALE: Invented category.`,
	}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryHumanOnly), records[0].Category)
	assert.Equal(t, 0.8, records[0].Confidence)
}

func TestClassifyMissingConfidenceDefaults(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: new_tasks`,
	}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, 0.5, records[0].Confidence)
	assert.Equal(t, noRationalePlaceholder, records[0].Rationale)
}

func TestClassifyConfidenceClamped(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: replace
CONFIDENCE: 7.5`,
	}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, 1.0, records[0].Confidence)
}

func TestClassifyGarbledResponseFallsBack(t *testing.T) {
	invoker := &fakeInvoker{response: "I am not sure what you want me to do here."}
	classifier, _, usage := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), true)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryHumanOnly), records[0].Category)
	assert.Equal(t, fallbackConfidence, records[0].Confidence)
	assert.Equal(t, parseFailureRationale, records[0].Rationale)
	assert.Equal(t, 1, usage.calls)
}

func TestClassifyEmptyResponseFallsBack(t *testing.T) {
	invoker := &fakeInvoker{response: ""}
	classifier, _, _ := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, fallbackConfidence, records[0].Confidence)
}

func TestClassifyInvokerErrorFallsBack(t *testing.T) {
	invoker := &fakeInvoker{err: errors.New("upstream timeout")}
	classifier, _, usage := newTestClassifier(invoker)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, string(taxonomy.CategoryHumanOnly), records[0].Category)
	assert.Equal(t, fallbackConfidence, records[0].Confidence)

	// The failed attempt is still recorded, with zero tokens.
	assert.Equal(t, 1, usage.calls)
	assert.Equal(t, []int{0}, usage.tokens)
}

func TestClassifyRateLimitAbortFallsBack(t *testing.T) {
	invoker := &fakeInvoker{response: "unused"}
	limiter := &fakeLimiter{err: context.Canceled}
	usage := &fakeUsage{}
	classifier := NewClassifier(invoker, limiter, usage, 0)

	records := classifier.Classify(context.Background(), testArtifact(), false)

	require.Len(t, records, 1)
	assert.Equal(t, fallbackConfidence, records[0].Confidence)
	assert.Equal(t, 0, invoker.calls)
	assert.Equal(t, 1, usage.calls)
}

func TestClassifyBatchPreservesOrder(t *testing.T) {
	invoker := &fakeInvoker{
		response: `CLASSIFICATION_1:
CATEGORY: augment
CONFIDENCE: 0.6`,
	}
	classifier, _, usage := newTestClassifier(invoker)

	artifacts := []*models.Artifact{
		{URL: "https://example.com/a", Content: "a"},
		{URL: "https://example.com/b", Content: "b"},
		{URL: "https://example.com/c", Content: "c"},
	}

	results := classifier.ClassifyBatch(context.Background(), artifacts, false)

	require.Len(t, results, 3)
	for _, records := range results {
		require.Len(t, records, 1)
		assert.Equal(t, string(taxonomy.CategoryAugment), records[0].Category)
	}
	assert.Equal(t, 3, usage.calls)
}

func TestBuildPromptIncludesTaxonomyAndExcerpt(t *testing.T) {
	classifier, _, _ := newTestClassifier(&fakeInvoker{})

	prompt := classifier.buildPrompt(testArtifact(), true)

	for _, info := range taxonomy.Categories {
		assert.Contains(t, prompt, string(info.ID))
	}
	assert.Contains(t, prompt, "NO_CLASSIFICATION")
	assert.Contains(t, prompt, "AI in the SOC")
	assert.Contains(t, prompt, "CLASSIFICATION_2")
}
