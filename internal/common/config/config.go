// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Scoring       ScoringConfig           `mapstructure:"scoring"`
	Bias          BiasConfig              `mapstructure:"bias"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	SSLEnabled   bool     `mapstructure:"ssl_enabled"`
	HistoryIndex string   `mapstructure:"history_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Scoring Engine Configuration ---

// ScoringConfig drives the provider registry, the score cache, and the
// ensemble aggregator.
type ScoringConfig struct {
	// Configured provider weights. A provider's effective weight is
	// weight * coverage; the composite is the effective-weight average.
	Weights ProviderWeights `mapstructure:"weights"`

	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Parallelism int           `mapstructure:"parallelism"` // candidates scored concurrently per ranking run

	Contextual ContextualConfig `mapstructure:"contextual"`
	Ontology   OntologyConfig   `mapstructure:"ontology"`
}

type ProviderWeights struct {
	Keyword      float64 `mapstructure:"keyword"`
	TrainedModel float64 `mapstructure:"trained_model"`
	Ontology     float64 `mapstructure:"ontology"`
	Contextual   float64 `mapstructure:"contextual"`
}

// ContextualConfig configures the optional external reasoning service.
type ContextualConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Endpoint       string        `mapstructure:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type OntologyConfig struct {
	GraphFile string `mapstructure:"graph_file"` // optional extra graph data
	MaxDepth  int    `mapstructure:"max_depth"`
}

// --- Bias Audit Configuration ---

type BiasConfig struct {
	// Minimum ranked candidates before any detector emits indicators.
	MinSampleSize int `mapstructure:"min_sample_size"`
	// Indicator confidence below this is not counted toward the detection rate.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	// Detection rate above this flips requires_attention.
	AttentionThreshold float64 `mapstructure:"attention_threshold"`
	// Dashboard trailing windows, in days.
	ReportWindows []int `mapstructure:"report_windows"`
}

// --- Notification Configuration ---

type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AWSRegion   string `mapstructure:"aws_region"`
	FromAddress string `mapstructure:"from_address"`
	HRAddress   string `mapstructure:"hr_address"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
