// internal/models/bias.go
package models

import "time"

// BiasType enumerates the audited bias dimensions.
type BiasType string

const (
	BiasGender    BiasType = "gender"
	BiasName      BiasType = "name"
	BiasEducation BiasType = "education"
	BiasGeography BiasType = "geography"
)

// BiasIndicator flags a possible bias signal on one candidate-job pair.
// Ephemeral: recomputed on demand, never persisted as ground truth.
type BiasIndicator struct {
	CandidateID string                 `json:"candidateId"`
	JobID       string                 `json:"jobId"`
	BiasType    BiasType               `json:"biasType"`
	Confidence  float64                `json:"confidence"` // [0,1]
	Evidence    map[string]interface{} `json:"evidence,omitempty"`
}

// BiasReport is the aggregate audit over a trailing window. Regenerated per
// requested window, never mutated in place.
type BiasReport struct {
	PeriodDays        int              `json:"periodDays"`
	JobID             string           `json:"jobId,omitempty"` // empty = organization-wide
	TotalCandidates   int              `json:"totalCandidates"`
	BiasDetectionRate float64          `json:"biasDetectionRate"` // [0,1]
	AverageBiasScore  float64          `json:"averageBiasScore"`  // [0,1]
	BiasTypes         map[BiasType]int `json:"biasTypes"`
	Recommendations   []string         `json:"recommendations"`
	RequiresAttention bool             `json:"requiresAttention"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}
