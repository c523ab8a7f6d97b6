package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-horizon/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func insertTestArtifact(t *testing.T, client *Client, id string) *models.Artifact {
	t.Helper()

	now := time.Now()
	artifact := &models.Artifact{
		ID:          id,
		URL:         "https://example.com/" + id,
		Title:       "Test article",
		Content:     "content",
		SourceType:  "news",
		CollectedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, client.InsertArtifact(artifact))
	return artifact
}

func TestArtifactRoundTrip(t *testing.T) {
	client := newTestClient(t)
	artifact := insertTestArtifact(t, client, "art-1")

	got, err := client.GetArtifact("art-1")
	require.NoError(t, err)
	assert.Equal(t, artifact.URL, got.URL)
	assert.Equal(t, artifact.Title, got.Title)
	assert.Equal(t, artifact.SourceType, got.SourceType)
}

func TestInsertArtifactUpsertsOnConflict(t *testing.T) {
	client := newTestClient(t)
	artifact := insertTestArtifact(t, client, "art-1")

	artifact.Title = "Updated title"
	require.NoError(t, client.InsertArtifact(artifact))

	got, err := client.GetArtifact("art-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
}

func TestClassificationRoundTrip(t *testing.T) {
	client := newTestClient(t)
	insertTestArtifact(t, client, "art-1")

	record := &models.Classification{
		ID:                 "cls-1",
		ArtifactID:         "art-1",
		Category:           "replace",
		Confidence:         0.9,
		Rationale:          "automation claim",
		SupportingEvidence: []string{"quote one", "quote two"},
		ModelUsed:          "test-model",
		ClassifiedAt:       time.Now(),
	}
	require.NoError(t, client.InsertClassification(record))

	got, err := client.GetClassifications("art-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "replace", got[0].Category)
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, []string{"quote one", "quote two"}, got[0].SupportingEvidence)
}

func TestGetClassificationsOrdersByConfidence(t *testing.T) {
	client := newTestClient(t)
	insertTestArtifact(t, client, "art-1")

	for i, conf := range []float64{0.4, 0.9, 0.6} {
		record := &models.Classification{
			ID:           "cls-" + string(rune('a'+i)),
			ArtifactID:   "art-1",
			Category:     "augment",
			Confidence:   conf,
			ClassifiedAt: time.Now(),
		}
		require.NoError(t, client.InsertClassification(record))
	}

	got, err := client.GetClassifications("art-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, 0.6, got[1].Confidence)
	assert.Equal(t, 0.4, got[2].Confidence)
}

func TestCountClassificationsByCategory(t *testing.T) {
	client := newTestClient(t)
	insertTestArtifact(t, client, "art-1")

	for i, category := range []string{"replace", "replace", "augment"} {
		record := &models.Classification{
			ID:           "cls-" + string(rune('a'+i)),
			ArtifactID:   "art-1",
			Category:     category,
			Confidence:   0.5,
			ClassifiedAt: time.Now(),
		}
		require.NoError(t, client.InsertClassification(record))
	}

	counts, err := client.CountClassificationsByCategory()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["replace"])
	assert.Equal(t, 1, counts["augment"])
}

func TestSourceScoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	insertTestArtifact(t, client, "art-1")

	score := &models.SourceScore{
		ID:                "score-1",
		ArtifactID:        "art-1",
		SourceReliability: "A",
		InfoCredibility:   "2",
		Specificity:       0.5,
		Recency:           0.5,
		Evidence:          0.8,
		Expert:            0.6,
		OverallScore:      0.81,
		Rationale:         "established vendor",
		ModelUsed:         "test-model",
		ScoredAt:          time.Now(),
	}
	require.NoError(t, client.InsertSourceScore(score))

	got, err := client.GetSourceScore("art-1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.SourceReliability)
	assert.Equal(t, "2", got.InfoCredibility)
	assert.Equal(t, 0.81, got.OverallScore)
}

func TestTaskImpactRoundTrip(t *testing.T) {
	client := newTestClient(t)

	impact := &models.TaskImpact{
		WorkRole:   "Cyber Defense Analyst",
		Task:       "Conduct routine log review",
		Category:   "replace",
		Confidence: 0.7,
		Rationale:  "automation keywords",
		AnalyzedAt: time.Now(),
	}
	require.NoError(t, client.InsertTaskImpact(impact))

	got, err := client.GetTaskImpacts("Cyber Defense Analyst")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "replace", got[0].Category)
	assert.Equal(t, 0.7, got[0].Confidence)
}

func TestUsageSummaryAggregates(t *testing.T) {
	client := newTestClient(t)

	now := time.Now()
	for _, usage := range []*models.APIUsage{
		{ServiceKey: "llm_classify", Tokens: 100, EstimatedCost: 0.01, CalledAt: now},
		{ServiceKey: "llm_classify", Tokens: 200, EstimatedCost: 0.02, CalledAt: now},
		{ServiceKey: "llm_score", Tokens: 50, EstimatedCost: 0.005, CalledAt: now},
		{ServiceKey: "llm_score", Tokens: 999, EstimatedCost: 0.1, CalledAt: now.Add(-48 * time.Hour)},
	} {
		require.NoError(t, client.InsertAPIUsage(usage))
	}

	summary, err := client.GetUsageSummary(now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, summary, 2)

	assert.Equal(t, "llm_classify", summary[0].ServiceKey)
	assert.Equal(t, 2, summary[0].Calls)
	assert.Equal(t, 300, summary[0].Tokens)
	assert.InDelta(t, 0.03, summary[0].Cost, 1e-9)

	assert.Equal(t, "llm_score", summary[1].ServiceKey)
	assert.Equal(t, 1, summary[1].Calls)
}
