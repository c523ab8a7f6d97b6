package models

import "time"

// Artifact is one collected document: an article, transcript, or report
// about AI's impact on the cybersecurity workforce.
type Artifact struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	SourceType  string    `json:"source_type"`
	CollectedAt time.Time `json:"collected_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Classification is one detected impact category for one artifact.
// Records are immutable once returned by the classifier.
type Classification struct {
	ID                 string    `json:"id"`
	ArtifactID         string    `json:"artifact_id"`
	Category           string    `json:"category"`
	Confidence         float64   `json:"confidence"`
	Rationale          string    `json:"rationale"`
	SupportingEvidence []string  `json:"supporting_evidence,omitempty"`
	ModelUsed          string    `json:"model_used"`
	ClassifiedAt       time.Time `json:"classified_at"`
}

// SourceScore is the NID-style credibility assessment for one artifact.
// OverallScore is always derived from the six component fields.
type SourceScore struct {
	ID                string    `json:"id"`
	ArtifactID        string    `json:"artifact_id"`
	SourceReliability string    `json:"source_reliability"`
	InfoCredibility   string    `json:"info_credibility"`
	Specificity       float64   `json:"specificity"`
	Recency           float64   `json:"recency"`
	Evidence          float64   `json:"evidence"`
	Expert            float64   `json:"expert"`
	OverallScore      float64   `json:"overall_score"`
	Rationale         string    `json:"rationale"`
	ModelUsed         string    `json:"model_used"`
	ScoredAt          time.Time `json:"scored_at"`
}

// TaskImpact is one rule-based category assignment for a single
// work-role task.
type TaskImpact struct {
	ID         int       `json:"id"`
	WorkRole   string    `json:"work_role"`
	Task       string    `json:"task"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// APIUsage is one usage-accounting row per attempted LLM call,
// recorded for successes and failures alike.
type APIUsage struct {
	ID              int       `json:"id"`
	ServiceKey      string    `json:"service_key"`
	PromptPreview   string    `json:"prompt_preview"`
	ResponsePreview string    `json:"response_preview"`
	Tokens          int       `json:"tokens"`
	EstimatedCost   float64   `json:"estimated_cost"`
	CalledAt        time.Time `json:"called_at"`
}
