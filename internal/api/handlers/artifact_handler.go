package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/cache/redis"
	"github.com/ai-horizon/backend/internal/classify"
	"github.com/ai-horizon/backend/internal/ingestion"
	"github.com/ai-horizon/backend/internal/metrics"
	"github.com/ai-horizon/backend/internal/scoring"
	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/internal/storage/sqlite"
	"github.com/ai-horizon/backend/pkg/logger"
	"github.com/ai-horizon/backend/pkg/utils"
)

type artifactRequest struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
	MultiClass *bool  `json:"multi_class"`
}

type ArtifactHandler struct {
	normalizer *ingestion.Normalizer
	classifier *classify.Classifier
	scorer     *scoring.Scorer
	store      *sqlite.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	multiClass bool
}

func NewArtifactHandler(
	normalizer *ingestion.Normalizer,
	classifier *classify.Classifier,
	scorer *scoring.Scorer,
	store *sqlite.Client,
	cache *redis.Client,
	cacheTTL time.Duration,
	multiClass bool,
) *ArtifactHandler {
	return &ArtifactHandler{
		normalizer: normalizer,
		classifier: classifier,
		scorer:     scorer,
		store:      store,
		cache:      cache,
		cacheTTL:   cacheTTL,
		multiClass: multiClass,
	}
}

func (h *ArtifactHandler) parseArtifact(c *fiber.Ctx) (*models.Artifact, *artifactRequest, error) {
	var req artifactRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.URL == "" || req.Content == "" {
		return nil, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url and content are required",
		})
	}

	artifact := h.normalizer.Normalize(req.URL, req.Title, req.Content, req.SourceType)
	return artifact, &req, nil
}

func (h *ArtifactHandler) multiClassFor(req *artifactRequest) bool {
	if req.MultiClass != nil {
		return *req.MultiClass
	}
	return h.multiClass
}

// ClassifyArtifact runs only the category classifier and returns the
// records without persisting them.
func (h *ArtifactHandler) ClassifyArtifact(c *fiber.Ctx) error {
	artifact, req, err := h.parseArtifact(c)
	if err != nil {
		return err
	}

	records := h.classifier.Classify(c.Context(), artifact, h.multiClassFor(req))

	return c.JSON(fiber.Map{
		"artifact_id":     artifact.ID,
		"classifications": records,
	})
}

// ScoreArtifact runs only the source credibility scorer.
func (h *ArtifactHandler) ScoreArtifact(c *fiber.Ctx) error {
	artifact, _, err := h.parseArtifact(c)
	if err != nil {
		return err
	}

	score := h.scorer.Score(c.Context(), artifact)

	return c.JSON(fiber.Map{
		"artifact_id": artifact.ID,
		"score":       score,
	})
}

// ProcessArtifact is the full pipeline: normalize, classify, score,
// persist, cache. Cached results short-circuit the LLM calls.
func (h *ArtifactHandler) ProcessArtifact(c *fiber.Ctx) error {
	artifact, req, err := h.parseArtifact(c)
	if err != nil {
		return err
	}

	contentHash := utils.HashString(artifact.Content)

	if h.cache != nil {
		records, recordsHit, _ := h.cache.GetClassifications(c.Context(), contentHash)
		score, scoreHit, _ := h.cache.GetSourceScore(c.Context(), contentHash)
		if recordsHit && scoreHit {
			metrics.CacheHits.WithLabelValues("artifact").Inc()
			return c.JSON(fiber.Map{
				"artifact_id":     artifact.ID,
				"classifications": records,
				"score":           score,
				"cached":          true,
			})
		}
		metrics.CacheMisses.WithLabelValues("artifact").Inc()
	}

	records := h.classifier.Classify(c.Context(), artifact, h.multiClassFor(req))
	score := h.scorer.Score(c.Context(), artifact)

	if err := h.store.InsertArtifact(artifact); err != nil {
		logger.Error("Failed to persist artifact", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to persist artifact",
		})
	}
	for i := range records {
		if err := h.store.InsertClassification(&records[i]); err != nil {
			logger.Error("Failed to persist classification", zap.Error(err))
		}
	}
	if err := h.store.InsertSourceScore(score); err != nil {
		logger.Error("Failed to persist source score", zap.Error(err))
	}

	if h.cache != nil {
		if err := h.cache.SetClassifications(c.Context(), contentHash, records, h.cacheTTL); err != nil {
			logger.Warn("Failed to cache classifications", zap.Error(err))
		}
		if err := h.cache.SetSourceScore(c.Context(), contentHash, score, h.cacheTTL); err != nil {
			logger.Warn("Failed to cache source score", zap.Error(err))
		}
	}

	metrics.ArtifactsProcessedTotal.Inc()

	return c.JSON(fiber.Map{
		"artifact_id":     artifact.ID,
		"classifications": records,
		"score":           score,
		"cached":          false,
	})
}

// GetArtifactResults returns persisted classifications and the latest
// source score for an artifact.
func (h *ArtifactHandler) GetArtifactResults(c *fiber.Ctx) error {
	artifactID := c.Params("id")
	if artifactID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "artifact id is required",
		})
	}

	records, err := h.store.GetClassifications(artifactID)
	if err != nil {
		logger.Error("Failed to load classifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load classifications",
		})
	}

	score, err := h.store.GetSourceScore(artifactID)
	if err != nil {
		score = nil
	}

	return c.JSON(fiber.Map{
		"artifact_id":     artifactID,
		"classifications": records,
		"score":           score,
	})
}
