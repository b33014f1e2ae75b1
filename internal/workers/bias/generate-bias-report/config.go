// internal/workers/bias/generate-bias-report/config.go
package generatebiasreport

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultPeriodDays applies when the process does not pass a window.
	DefaultPeriodDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:           60 * time.Second,
		DefaultPeriodDays: 30,
	}
}
