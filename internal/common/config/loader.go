// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or any ancestor, so the
// same config works from cmd/, test/, and the repo root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "talentrank-workers"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Elasticsearch.HistoryIndex == "" {
		cfg.Database.Elasticsearch.HistoryIndex = "ranking-snapshots"
	}

	// Provider weights default to the documented ensemble split.
	if cfg.Scoring.Weights == (ProviderWeights{}) {
		cfg.Scoring.Weights = ProviderWeights{
			Keyword:      0.25,
			TrainedModel: 0.35,
			Ontology:     0.25,
			Contextual:   0.15,
		}
	}
	if cfg.Scoring.CacheTTL == 0 {
		cfg.Scoring.CacheTTL = 6 * time.Hour
	}
	if cfg.Scoring.Parallelism == 0 {
		cfg.Scoring.Parallelism = 8
	}
	if cfg.Scoring.Contextual.Timeout == 0 {
		cfg.Scoring.Contextual.Timeout = 20 * time.Second
	}
	if cfg.Scoring.Contextual.MaxConcurrency == 0 {
		cfg.Scoring.Contextual.MaxConcurrency = 2
	}
	if cfg.Scoring.Contextual.MaxRetries == 0 {
		cfg.Scoring.Contextual.MaxRetries = 2
	}
	if cfg.Scoring.Ontology.MaxDepth == 0 {
		cfg.Scoring.Ontology.MaxDepth = 2
	}

	if cfg.Bias.MinSampleSize == 0 {
		cfg.Bias.MinSampleSize = 5
	}
	if cfg.Bias.ConfidenceThreshold == 0 {
		cfg.Bias.ConfidenceThreshold = 0.05
	}
	if cfg.Bias.AttentionThreshold == 0 {
		cfg.Bias.AttentionThreshold = 0.15
	}
	if len(cfg.Bias.ReportWindows) == 0 {
		cfg.Bias.ReportWindows = []int{7, 30, 90}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required")
	}

	w := cfg.Scoring.Weights
	for name, v := range map[string]float64{
		"keyword":       w.Keyword,
		"trained_model": w.TrainedModel,
		"ontology":      w.Ontology,
		"contextual":    w.Contextual,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.weights.%s must not be negative", name)
		}
	}
	if w.Keyword+w.TrainedModel+w.Ontology+w.Contextual <= 0 {
		return fmt.Errorf("scoring.weights must contain at least one positive weight")
	}

	if cfg.Scoring.Contextual.Enabled && cfg.Scoring.Contextual.Endpoint == "" {
		return fmt.Errorf("scoring.contextual.endpoint is required when the contextual scorer is enabled")
	}

	if cfg.Bias.AttentionThreshold <= 0 || cfg.Bias.AttentionThreshold >= 1 {
		return fmt.Errorf("bias.attention_threshold must be in (0, 1)")
	}

	return nil
}
