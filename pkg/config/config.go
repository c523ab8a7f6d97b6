package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Classifier ClassifierConfig
	Scorer     ScorerConfig
	Impact     ImpactConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type LLMConfig struct {
	Provider          string
	Model             string
	APIKey            string
	Temperature       float32
	MaxTokens         int
	TimeoutSec        int
	RequestsPerMinute int
	CostPer1KTokens   float64
}

type ClassifierConfig struct {
	ExcerptChars int
	MultiClass   bool
}

type ScorerConfig struct {
	ExcerptChars int
}

type ImpactConfig struct {
	ZeroMatchCategory      string
	ZeroMatchConfidence    float64
	ManagementCategory     string
	ManagementConfidence   float64
	MaxConcurrentWorkRoles int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ai-horizon")

	viper.SetEnvPrefix("AI_HORIZON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/aihorizon.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlHours", 24)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 1500)
	viper.SetDefault("llm.timeoutSec", 60)
	viper.SetDefault("llm.requestsPerMinute", 20)
	viper.SetDefault("llm.costPer1KTokens", 0.03)

	viper.SetDefault("classifier.excerptChars", 2000)
	viper.SetDefault("classifier.multiClass", true)

	viper.SetDefault("scorer.excerptChars", 1500)

	viper.SetDefault("impact.zeroMatchCategory", "augment")
	viper.SetDefault("impact.zeroMatchConfidence", 0.5)
	viper.SetDefault("impact.managementCategory", "human_only")
	viper.SetDefault("impact.managementConfidence", 0.6)
	viper.SetDefault("impact.maxConcurrentWorkRoles", 4)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
