// Package impact categorizes work-role tasks against the four impact
// categories using fixed keyword lexicons. No model call is made, which
// is what makes bulk analysis over thousands of framework tasks viable.
package impact

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/metrics"
	"github.com/ai-horizon/backend/internal/taxonomy"
	"github.com/ai-horizon/backend/pkg/logger"
)

const maxConfidence = 0.9

// WorkRole is one cybersecurity work role with its controlled-vocabulary
// task list, typically sourced from the DCWF.
type WorkRole struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

type TaskAssessment struct {
	Task       string  `json:"task"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Analysis buckets every supplied task into exactly one category.
type Analysis struct {
	WorkRole   string                                 `json:"work_role"`
	Categories map[taxonomy.Category][]TaskAssessment `json:"categories"`
	AnalyzedAt time.Time                              `json:"analyzed_at"`
}

// Policy governs tasks that match no lexicon at all. The defaults encode
// the assumption that an unclassifiable cybersecurity task is more often
// collaborative than fully automatable or fully human; treat it as a
// tunable parameter, not a law.
type Policy struct {
	ZeroMatchCategory    taxonomy.Category
	ZeroMatchConfidence  float64
	ManagementCategory   taxonomy.Category
	ManagementConfidence float64
	ManagementKeywords   []string
}

func DefaultPolicy() Policy {
	return Policy{
		ZeroMatchCategory:    taxonomy.CategoryAugment,
		ZeroMatchConfidence:  0.5,
		ManagementCategory:   taxonomy.CategoryHumanOnly,
		ManagementConfidence: 0.6,
		ManagementKeywords:   []string{"manage", "oversee", "coordinate", "supervise", "direct", "lead"},
	}
}

// Lexicon evaluation order doubles as the tie-break order for equal
// nonzero scores.
var categoryOrder = []taxonomy.Category{
	taxonomy.CategoryReplace,
	taxonomy.CategoryAugment,
	taxonomy.CategoryNewTasks,
	taxonomy.CategoryHumanOnly,
}

var lexicons = map[taxonomy.Category][]string{
	taxonomy.CategoryReplace: {
		"automat", "eliminat", "routine", "repetitive", "scripted",
		"bulk", "scheduled", "log review", "signature-based", "data entry",
		"scan", "patch", "triage alerts",
	},
	taxonomy.CategoryAugment: {
		"assist", "enhance", "collaborate", "augment", "accelerate",
		"recommend", "advis", "prioritize", "support", "inform",
		"analyze", "investigate", "correlate",
	},
	taxonomy.CategoryNewTasks: {
		"ai governance", "mlops", "machine learning", "model validation",
		"adversarial", "prompt", "ai security", "ai risk", "algorithm",
		"training data", "llm",
	},
	taxonomy.CategoryHumanOnly: {
		"leadership", "judgment", "ethical", "policy", "strategy",
		"stakeholder", "negotiat", "mentor", "legal", "accountab",
		"trust", "culture", "hiring",
	},
}

type Analyzer struct {
	policy Policy
}

func NewAnalyzer(policy Policy) *Analyzer {
	if policy.ZeroMatchCategory == "" {
		policy = DefaultPolicy()
	}
	return &Analyzer{policy: policy}
}

// Analyze assigns every task of the work role to exactly one category.
// A nil or empty task list is a caller error, the single input that is
// not tolerated: it signals a programming mistake upstream, not an
// environmental failure.
func (a *Analyzer) Analyze(role WorkRole) (*Analysis, error) {
	if len(role.Tasks) == 0 {
		return nil, fmt.Errorf("work role %q has no tasks to analyze", role.Name)
	}

	analysis := &Analysis{
		WorkRole:   role.Name,
		Categories: make(map[taxonomy.Category][]TaskAssessment, len(categoryOrder)),
		AnalyzedAt: time.Now(),
	}
	for _, category := range categoryOrder {
		analysis.Categories[category] = []TaskAssessment{}
	}

	for _, task := range role.Tasks {
		category, assessment := a.assess(role.Name, task)
		analysis.Categories[category] = append(analysis.Categories[category], assessment)
		metrics.TasksAnalyzedTotal.WithLabelValues(string(category)).Inc()
	}

	logger.Debug("Work role analyzed",
		zap.String("work_role", role.Name),
		zap.Int("tasks", len(role.Tasks)),
	)

	return analysis, nil
}

func (a *Analyzer) assess(roleName, task string) (taxonomy.Category, TaskAssessment) {
	lowered := strings.ToLower(task)

	bestCategory := taxonomy.Category("")
	bestScore := 0
	for _, category := range categoryOrder {
		score := 0
		for _, keyword := range lexicons[category] {
			if strings.Contains(lowered, keyword) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestCategory = category
		}
	}

	if bestScore == 0 {
		return a.zeroMatchDefault(roleName, task, lowered)
	}

	confidence := 0.5 + 0.1*float64(bestScore)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return bestCategory, TaskAssessment{
		Task:       task,
		Confidence: confidence,
		Rationale:  rationaleFor(bestCategory, roleName, bestScore),
	}
}

func (a *Analyzer) zeroMatchDefault(roleName, task, lowered string) (taxonomy.Category, TaskAssessment) {
	for _, keyword := range a.policy.ManagementKeywords {
		if strings.Contains(lowered, keyword) {
			return a.policy.ManagementCategory, TaskAssessment{
				Task:       task,
				Confidence: a.policy.ManagementConfidence,
				Rationale: fmt.Sprintf("No impact keywords matched, but management language suggests this %s task stays with people.",
					roleName),
			}
		}
	}

	return a.policy.ZeroMatchCategory, TaskAssessment{
		Task:       task,
		Confidence: a.policy.ZeroMatchConfidence,
		Rationale: fmt.Sprintf("No impact keywords matched; defaulting this %s task to AI-assisted work.",
			roleName),
	}
}

func rationaleFor(category taxonomy.Category, roleName string, matches int) string {
	switch category {
	case taxonomy.CategoryReplace:
		return fmt.Sprintf("Matched %d automation keyword(s); this %s task is a strong candidate for full automation.", matches, roleName)
	case taxonomy.CategoryAugment:
		return fmt.Sprintf("Matched %d collaboration keyword(s); AI will assist rather than replace this %s task.", matches, roleName)
	case taxonomy.CategoryNewTasks:
		return fmt.Sprintf("Matched %d emerging-technology keyword(s); this %s task exists because of AI adoption.", matches, roleName)
	default:
		return fmt.Sprintf("Matched %d human-factor keyword(s); this %s task depends on human judgment or accountability.", matches, roleName)
	}
}
