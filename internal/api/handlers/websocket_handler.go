package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ai-horizon/backend/internal/impact"
	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/internal/storage/sqlite"
	"github.com/ai-horizon/backend/pkg/logger"
)

// WebSocketHandler streams per-role progress for bulk framework
// analysis, where a client submits hundreds of work roles at once and
// wants results as they land rather than one giant response.
type WebSocketHandler struct {
	analyzer      *impact.Analyzer
	store         *sqlite.Client
	maxConcurrent int

	writeMu sync.Mutex
}

func NewWebSocketHandler(analyzer *impact.Analyzer, store *sqlite.Client, maxConcurrent int) *WebSocketHandler {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &WebSocketHandler{
		analyzer:      analyzer,
		store:         store,
		maxConcurrent: maxConcurrent,
	}
}

type bulkAnalyzeMessage struct {
	Type      string            `json:"type"`
	WorkRoles []impact.WorkRole `json:"work_roles"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg bulkAnalyzeMessage

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "analyze" {
			continue
		}

		logger.Info("Processing bulk analysis", zap.Int("work_roles", len(msg.WorkRoles)))

		h.streamAnalysis(c, msg)
	}
}

func (h *WebSocketHandler) streamAnalysis(c *websocket.Conn, msg bulkAnalyzeMessage) {
	total := len(msg.WorkRoles)
	h.send(c, map[string]interface{}{
		"type":  "status",
		"total": total,
	})

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(h.maxConcurrent)

	var done int
	var doneMu sync.Mutex

	for _, role := range msg.WorkRoles {
		role := role
		g.Go(func() error {
			analysis, err := h.analyzer.Analyze(role)
			if err != nil {
				h.send(c, map[string]interface{}{
					"type":      "error",
					"work_role": role.Name,
					"error":     err.Error(),
				})
				return nil
			}

			h.persist(analysis)

			doneMu.Lock()
			done++
			index := done
			doneMu.Unlock()

			h.send(c, map[string]interface{}{
				"type":      "result",
				"index":     index,
				"total":     total,
				"work_role": role.Name,
				"analysis":  analysis,
			})
			return nil
		})
	}

	g.Wait()

	h.send(c, map[string]interface{}{
		"type":  "complete",
		"total": total,
	})
}

func (h *WebSocketHandler) persist(analysis *impact.Analysis) {
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

// send serializes writes: gorilla-style websocket connections allow only
// one concurrent writer.
func (h *WebSocketHandler) send(c *websocket.Conn, msg map[string]interface{}) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := c.WriteJSON(msg); err != nil {
		logger.Error("Failed to write WebSocket message", zap.Error(err))
	}
}
