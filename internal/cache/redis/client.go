package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/pkg/logger"
)

// Client caches engine output keyed by artifact content hash so repeat
// submissions of the same article skip the LLM round trip entirely.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetClassifications(ctx context.Context, contentHash string, records []models.Classification, ttl time.Duration) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal classifications: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("classify:%s", contentHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set classification cache: %w", err)
	}

	logger.Debug("Classifications cached", zap.String("content_hash", contentHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetClassifications(ctx context.Context, contentHash string) ([]models.Classification, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("classify:%s", contentHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get classification cache: %w", err)
	}

	var records []models.Classification
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal classifications: %w", err)
	}

	logger.Debug("Classification cache hit", zap.String("content_hash", contentHash))
	return records, true, nil
}

func (c *Client) SetSourceScore(ctx context.Context, contentHash string, score *models.SourceScore, ttl time.Duration) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal source score: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("score:%s", contentHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set score cache: %w", err)
	}

	logger.Debug("Source score cached", zap.String("content_hash", contentHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetSourceScore(ctx context.Context, contentHash string) (*models.SourceScore, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("score:%s", contentHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get score cache: %w", err)
	}

	var score models.SourceScore
	err = json.Unmarshal(data, &score)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal source score: %w", err)
	}

	logger.Debug("Score cache hit", zap.String("content_hash", contentHash))
	return &score, true, nil
}

// InvalidateAll clears cached engine output, used when prompts or
// taxonomy descriptions change between deployments.
func (c *Client) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{"classify:*", "score:*"} {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				logger.Warn("Failed to delete cache key", zap.Error(err))
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to iterate cache keys: %w", err)
		}
	}

	logger.Info("Engine cache invalidated")
	return nil
}
