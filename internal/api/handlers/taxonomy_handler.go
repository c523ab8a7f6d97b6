package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/storage/sqlite"
	"github.com/ai-horizon/backend/internal/taxonomy"
	"github.com/ai-horizon/backend/pkg/logger"
)

type TaxonomyHandler struct {
	store *sqlite.Client
}

func NewTaxonomyHandler(store *sqlite.Client) *TaxonomyHandler {
	return &TaxonomyHandler{store: store}
}

// GetTaxonomy returns the static classification rubric: the four impact
// categories and both six-level credibility scales.
func (h *TaxonomyHandler) GetTaxonomy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories":         taxonomy.Categories,
		"reliability_scales": taxonomy.ReliabilityScales,
		"credibility_scales": taxonomy.CredibilityScales,
	})
}

// GetCategoryCounts aggregates persisted classifications per category.
func (h *TaxonomyHandler) GetCategoryCounts(c *fiber.Ctx) error {
	counts, err := h.store.CountClassificationsByCategory()
	if err != nil {
		logger.Error("Failed to count classifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count classifications",
		})
	}

	return c.JSON(fiber.Map{
		"counts": counts,
	})
}

// GetUsageSummary aggregates LLM usage per service key.
func (h *TaxonomyHandler) GetUsageSummary(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	summary, err := h.store.GetUsageSummary(since)
	if err != nil {
		logger.Error("Failed to load usage summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load usage summary",
		})
	}

	return c.JSON(fiber.Map{
		"since":   since.Unix(),
		"summary": summary,
	})
}
