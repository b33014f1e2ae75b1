// internal/workers/scoring/get-composite-score/models.go
package getcompositescore

import "talentrank-workers/internal/models"

type Input struct {
	CandidateID string `json:"candidateId"`
	JobID       string `json:"jobId"`
}

type Output struct {
	Score *models.CompositeScore `json:"score"`
}
