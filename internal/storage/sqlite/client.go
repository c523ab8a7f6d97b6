package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		content TEXT,
		source_type TEXT,
		collected_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_source ON artifacts(source_type);
	CREATE INDEX IF NOT EXISTS idx_artifacts_updated ON artifacts(updated_at);

	CREATE TABLE IF NOT EXISTS classifications (
		id TEXT PRIMARY KEY,
		artifact_id TEXT NOT NULL,
		category TEXT NOT NULL,
		confidence REAL NOT NULL,
		rationale TEXT,
		supporting_evidence TEXT,
		model_used TEXT,
		classified_at INTEGER NOT NULL,
		FOREIGN KEY (artifact_id) REFERENCES artifacts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_classifications_artifact ON classifications(artifact_id);
	CREATE INDEX IF NOT EXISTS idx_classifications_category ON classifications(category);
	CREATE INDEX IF NOT EXISTS idx_classifications_confidence ON classifications(confidence);

	CREATE TABLE IF NOT EXISTS source_scores (
		id TEXT PRIMARY KEY,
		artifact_id TEXT NOT NULL,
		source_reliability TEXT NOT NULL,
		info_credibility TEXT NOT NULL,
		specificity REAL NOT NULL,
		recency REAL NOT NULL,
		evidence REAL NOT NULL,
		expert REAL NOT NULL,
		overall_score REAL NOT NULL,
		rationale TEXT,
		model_used TEXT,
		scored_at INTEGER NOT NULL,
		FOREIGN KEY (artifact_id) REFERENCES artifacts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_scores_artifact ON source_scores(artifact_id);
	CREATE INDEX IF NOT EXISTS idx_scores_overall ON source_scores(overall_score);

	CREATE TABLE IF NOT EXISTS task_impacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		work_role TEXT NOT NULL,
		task TEXT NOT NULL,
		category TEXT NOT NULL,
		confidence REAL NOT NULL,
		rationale TEXT,
		analyzed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_impacts_role ON task_impacts(work_role);
	CREATE INDEX IF NOT EXISTS idx_impacts_category ON task_impacts(category);

	CREATE TABLE IF NOT EXISTS api_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		service_key TEXT NOT NULL,
		prompt_preview TEXT,
		response_preview TEXT,
		tokens INTEGER NOT NULL,
		estimated_cost REAL NOT NULL,
		called_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_service ON api_usage(service_key);
	CREATE INDEX IF NOT EXISTS idx_usage_called ON api_usage(called_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertArtifact(artifact *models.Artifact) error {
	query := `
		INSERT INTO artifacts (id, url, title, content, source_type, collected_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			source_type = excluded.source_type,
			updated_at = excluded.updated_at
	`

	_, err := c.db.Exec(
		query,
		artifact.ID,
		artifact.URL,
		artifact.Title,
		artifact.Content,
		artifact.SourceType,
		artifact.CollectedAt.Unix(),
		artifact.CreatedAt.Unix(),
		artifact.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}

	logger.Debug("Artifact inserted", zap.String("artifact_id", artifact.ID), zap.String("url", artifact.URL))
	return nil
}

func (c *Client) GetArtifact(id string) (*models.Artifact, error) {
	query := `SELECT id, url, title, content, source_type, collected_at, created_at, updated_at FROM artifacts WHERE id = ?`

	var artifact models.Artifact
	var collectedAt, createdAt, updatedAt int64

	err := c.db.QueryRow(query, id).Scan(
		&artifact.ID,
		&artifact.URL,
		&artifact.Title,
		&artifact.Content,
		&artifact.SourceType,
		&collectedAt,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	artifact.CollectedAt = time.Unix(collectedAt, 0)
	artifact.CreatedAt = time.Unix(createdAt, 0)
	artifact.UpdatedAt = time.Unix(updatedAt, 0)

	return &artifact, nil
}

func (c *Client) InsertClassification(record *models.Classification) error {
	evidenceJSON, _ := json.Marshal(record.SupportingEvidence)

	query := `
		INSERT INTO classifications (id, artifact_id, category, confidence, rationale, supporting_evidence, model_used, classified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		record.ID,
		record.ArtifactID,
		record.Category,
		record.Confidence,
		record.Rationale,
		string(evidenceJSON),
		record.ModelUsed,
		record.ClassifiedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert classification: %w", err)
	}

	logger.Debug("Classification inserted",
		zap.String("artifact_id", record.ArtifactID),
		zap.String("category", record.Category),
		zap.Float64("confidence", record.Confidence),
	)

	return nil
}

func (c *Client) GetClassifications(artifactID string) ([]models.Classification, error) {
	query := `
		SELECT id, artifact_id, category, confidence, rationale, supporting_evidence, model_used, classified_at
		FROM classifications
		WHERE artifact_id = ?
		ORDER BY confidence DESC
	`

	rows, err := c.db.Query(query, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get classifications: %w", err)
	}
	defer rows.Close()

	var records []models.Classification
	for rows.Next() {
		var r models.Classification
		var evidenceJSON string
		var classifiedAt int64

		err := rows.Scan(&r.ID, &r.ArtifactID, &r.Category, &r.Confidence, &r.Rationale, &evidenceJSON, &r.ModelUsed, &classifiedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		json.Unmarshal([]byte(evidenceJSON), &r.SupportingEvidence)
		r.ClassifiedAt = time.Unix(classifiedAt, 0)
		records = append(records, r)
	}

	return records, nil
}

func (c *Client) CountClassificationsByCategory() (map[string]int, error) {
	query := `SELECT category, COUNT(*) FROM classifications GROUP BY category`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to count classifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts[category] = count
	}

	return counts, nil
}

func (c *Client) InsertSourceScore(score *models.SourceScore) error {
	query := `
		INSERT INTO source_scores (id, artifact_id, source_reliability, info_credibility,
			specificity, recency, evidence, expert, overall_score, rationale, model_used, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		score.ID,
		score.ArtifactID,
		score.SourceReliability,
		score.InfoCredibility,
		score.Specificity,
		score.Recency,
		score.Evidence,
		score.Expert,
		score.OverallScore,
		score.Rationale,
		score.ModelUsed,
		score.ScoredAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert source score: %w", err)
	}

	logger.Debug("Source score inserted",
		zap.String("artifact_id", score.ArtifactID),
		zap.Float64("overall_score", score.OverallScore),
	)

	return nil
}

func (c *Client) GetSourceScore(artifactID string) (*models.SourceScore, error) {
	query := `
		SELECT id, artifact_id, source_reliability, info_credibility,
			specificity, recency, evidence, expert, overall_score, rationale, model_used, scored_at
		FROM source_scores
		WHERE artifact_id = ?
		ORDER BY scored_at DESC
		LIMIT 1
	`

	var score models.SourceScore
	var scoredAt int64

	err := c.db.QueryRow(query, artifactID).Scan(
		&score.ID,
		&score.ArtifactID,
		&score.SourceReliability,
		&score.InfoCredibility,
		&score.Specificity,
		&score.Recency,
		&score.Evidence,
		&score.Expert,
		&score.OverallScore,
		&score.Rationale,
		&score.ModelUsed,
		&scoredAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get source score: %w", err)
	}

	score.ScoredAt = time.Unix(scoredAt, 0)
	return &score, nil
}

func (c *Client) InsertTaskImpact(impact *models.TaskImpact) error {
	query := `
		INSERT INTO task_impacts (work_role, task, category, confidence, rationale, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		impact.WorkRole,
		impact.Task,
		impact.Category,
		impact.Confidence,
		impact.Rationale,
		impact.AnalyzedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert task impact: %w", err)
	}

	return nil
}

func (c *Client) GetTaskImpacts(workRole string) ([]models.TaskImpact, error) {
	query := `
		SELECT id, work_role, task, category, confidence, rationale, analyzed_at
		FROM task_impacts
		WHERE work_role = ?
		ORDER BY id
	`

	rows, err := c.db.Query(query, workRole)
	if err != nil {
		return nil, fmt.Errorf("failed to get task impacts: %w", err)
	}
	defer rows.Close()

	var impacts []models.TaskImpact
	for rows.Next() {
		var t models.TaskImpact
		var analyzedAt int64

		err := rows.Scan(&t.ID, &t.WorkRole, &t.Task, &t.Category, &t.Confidence, &t.Rationale, &analyzedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		t.AnalyzedAt = time.Unix(analyzedAt, 0)
		impacts = append(impacts, t)
	}

	return impacts, nil
}

func (c *Client) InsertAPIUsage(usage *models.APIUsage) error {
	query := `
		INSERT INTO api_usage (service_key, prompt_preview, response_preview, tokens, estimated_cost, called_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		usage.ServiceKey,
		usage.PromptPreview,
		usage.ResponsePreview,
		usage.Tokens,
		usage.EstimatedCost,
		usage.CalledAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert API usage: %w", err)
	}

	return nil
}

type UsageSummary struct {
	ServiceKey string  `json:"service_key"`
	Calls      int     `json:"calls"`
	Tokens     int     `json:"tokens"`
	Cost       float64 `json:"cost"`
}

func (c *Client) GetUsageSummary(since time.Time) ([]UsageSummary, error) {
	query := `
		SELECT service_key, COUNT(*), COALESCE(SUM(tokens), 0), COALESCE(SUM(estimated_cost), 0)
		FROM api_usage
		WHERE called_at >= ?
		GROUP BY service_key
		ORDER BY service_key
	`

	rows, err := c.db.Query(query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get usage summary: %w", err)
	}
	defer rows.Close()

	var summary []UsageSummary
	for rows.Next() {
		var entry UsageSummary
		if err := rows.Scan(&entry.ServiceKey, &entry.Calls, &entry.Tokens, &entry.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		summary = append(summary, entry)
	}

	return summary, nil
}
