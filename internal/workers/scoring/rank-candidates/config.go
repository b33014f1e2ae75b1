// internal/workers/scoring/rank-candidates/config.go
package rankcandidates

import "time"

// Timeout covers a full candidate pool; individual provider calls have their
// own tighter deadlines.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 120 * time.Second,
	}
}
