// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Redis       RedisConfig
	Analysis    AnalysisConfig
	Collector   CollectorConfig
	Embedding   EmbeddingConfig
	Monitor     MonitorConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsTopic    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AnalysisConfig holds analysis engine configuration
type AnalysisConfig struct {
	DuplicateThreshold      float64
	HighSimilarityThreshold float64
	TopicCount              int
	PoolSize                int
	PostsLimit              int
	PostsWindow             time.Duration
}

// CollectorConfig holds post collector configuration
type CollectorConfig struct {
	BearerToken     string
	RequestInterval time.Duration
	BatchSize       int
}

// EmbeddingConfig holds the embedding service configuration
type EmbeddingConfig struct {
	URL     string
	Timeout time.Duration
}

// MonitorConfig holds monitoring configuration
type MonitorConfig struct {
	CheckInterval      time.Duration
	MetricsInterval    time.Duration
	HistorySize        int
	MetricsTTL         time.Duration
	InactiveAfter      time.Duration
	DuplicateAlertRate float64
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "chanscope"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			EventsTopic:    getEnv("NATS_EVENTS_TOPIC", "analysis"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Analysis: AnalysisConfig{
			DuplicateThreshold:      getEnvAsFloat("ANALYSIS_DUPLICATE_THRESHOLD", 0.85),
			HighSimilarityThreshold: getEnvAsFloat("ANALYSIS_HIGH_SIMILARITY_THRESHOLD", 0.7),
			TopicCount:              getEnvAsInt("ANALYSIS_TOPIC_COUNT", 10),
			PoolSize:                getEnvAsInt("ANALYSIS_POOL_SIZE", 4),
			PostsLimit:              getEnvAsInt("ANALYSIS_POSTS_LIMIT", 200),
			PostsWindow:             getEnvAsDuration("ANALYSIS_POSTS_WINDOW", 30*24*time.Hour),
		},
		Collector: CollectorConfig{
			BearerToken:     getEnv("COLLECTOR_BEARER_TOKEN", ""),
			RequestInterval: getEnvAsDuration("COLLECTOR_REQUEST_INTERVAL", 2*time.Second),
			BatchSize:       getEnvAsInt("COLLECTOR_BATCH_SIZE", 100),
		},
		Embedding: EmbeddingConfig{
			URL:     getEnv("EMBEDDING_URL", ""),
			Timeout: getEnvAsDuration("EMBEDDING_TIMEOUT", 5*time.Second),
		},
		Monitor: MonitorConfig{
			CheckInterval:      getEnvAsDuration("MONITOR_CHECK_INTERVAL", 5*time.Minute),
			MetricsInterval:    getEnvAsDuration("MONITOR_METRICS_INTERVAL", 1*time.Minute),
			HistorySize:        getEnvAsInt("MONITOR_HISTORY_SIZE", 1000),
			MetricsTTL:         getEnvAsDuration("MONITOR_METRICS_TTL", 24*time.Hour),
			InactiveAfter:      getEnvAsDuration("MONITOR_INACTIVE_AFTER", 72*time.Hour),
			DuplicateAlertRate: getEnvAsFloat("MONITOR_DUPLICATE_ALERT_RATE", 0.3),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Analysis.DuplicateThreshold <= 0 || config.Analysis.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate threshold must be in (0, 1], got %f", config.Analysis.DuplicateThreshold)
	}

	if config.Analysis.PoolSize < 1 {
		return fmt.Errorf("analysis pool size must be at least 1, got %d", config.Analysis.PoolSize)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
