// internal/workers/bias/generate-bias-report/models.go
package generatebiasreport

import "talentrank-workers/internal/models"

type Input struct {
	// JobID restricts the report to one job; empty means organization-wide.
	JobID      string `json:"jobId,omitempty"`
	PeriodDays int    `json:"periodDays,omitempty"`
}

type Output struct {
	Report *models.BiasReport `json:"report"`
}
