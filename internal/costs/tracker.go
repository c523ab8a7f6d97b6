// Package costs accounts for every attempted LLM call: one persisted
// usage row and one set of counter increments per attempt, successful
// or not.
package costs

import (
	"time"

	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/metrics"
	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/pkg/logger"
)

const previewLen = 200

// Store is the subset of the persistence layer the tracker needs.
type Store interface {
	InsertAPIUsage(usage *models.APIUsage) error
}

type Tracker struct {
	store           Store
	costPer1KTokens float64
}

func NewTracker(store Store, costPer1KTokens float64) *Tracker {
	return &Tracker{
		store:           store,
		costPer1KTokens: costPer1KTokens,
	}
}

// EstimateCost converts a token count into USD at the configured rate.
func (t *Tracker) EstimateCost(tokens int) float64 {
	return float64(tokens) / 1000.0 * t.costPer1KTokens
}

// RecordCall persists one usage row and bumps the prometheus counters.
// A storage failure is logged and swallowed: losing one accounting row
// must never fail the classification that triggered it.
func (t *Tracker) RecordCall(serviceKey, promptPreview, responsePreview string, tokens int, estimatedCost float64) {
	metrics.LLMTokensUsed.WithLabelValues(serviceKey).Add(float64(tokens))
	metrics.LLMCost.WithLabelValues(serviceKey).Add(estimatedCost)

	if t.store == nil {
		return
	}

	usage := &models.APIUsage{
		ServiceKey:      serviceKey,
		PromptPreview:   truncate(promptPreview, previewLen),
		ResponsePreview: truncate(responsePreview, previewLen),
		Tokens:          tokens,
		EstimatedCost:   estimatedCost,
		CalledAt:        time.Now(),
	}

	if err := t.store.InsertAPIUsage(usage); err != nil {
		logger.Warn("Failed to persist API usage",
			zap.String("service", serviceKey),
			zap.Error(err),
		)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
