package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/impact"
	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/internal/storage/sqlite"
	"github.com/ai-horizon/backend/pkg/logger"
)

type ImpactHandler struct {
	analyzer *impact.Analyzer
	store    *sqlite.Client
}

func NewImpactHandler(analyzer *impact.Analyzer, store *sqlite.Client) *ImpactHandler {
	return &ImpactHandler{
		analyzer: analyzer,
		store:    store,
	}
}

// AnalyzeWorkRole runs the rule-based analyzer over one work role and
// persists the per-task assignments.
func (h *ImpactHandler) AnalyzeWorkRole(c *fiber.Ctx) error {
	var req struct {
		Name  string   `json:"name"`
		Tasks []string `json:"tasks"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	analysis, err := h.analyzer.Analyze(impact.WorkRole{Name: req.Name, Tasks: req.Tasks})
	if err != nil {
		// Contract violation: empty task lists are the caller's bug.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.persist(analysis)

	return c.JSON(analysis)
}

// GetWorkRoleImpacts returns previously persisted task assignments.
func (h *ImpactHandler) GetWorkRoleImpacts(c *fiber.Ctx) error {
	workRole := c.Query("work_role")
	if workRole == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "work_role is required",
		})
	}

	impacts, err := h.store.GetTaskImpacts(workRole)
	if err != nil {
		logger.Error("Failed to load task impacts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load task impacts",
		})
	}

	return c.JSON(fiber.Map{
		"work_role": workRole,
		"impacts":   impacts,
	})
}

func (h *ImpactHandler) persist(analysis *impact.Analysis) {
	for category, assessments := range analysis.Categories {
		for _, assessment := range assessments {
			record := &models.TaskImpact{
				WorkRole:   analysis.WorkRole,
				Task:       assessment.Task,
				Category:   string(category),
				Confidence: assessment.Confidence,
				Rationale:  assessment.Rationale,
				AnalyzedAt: time.Now(),
			}
			if err := h.store.InsertTaskImpact(record); err != nil {
				logger.Warn("Failed to persist task impact",
					zap.String("work_role", analysis.WorkRole),
					zap.Error(err),
				)
			}
		}
	}
}
