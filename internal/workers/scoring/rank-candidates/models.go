// internal/workers/scoring/rank-candidates/models.go
package rankcandidates

import "talentrank-workers/internal/models"

type Input struct {
	JobID string `json:"jobId"`
}

type Output struct {
	Ranking       *models.RankingResult `json:"ranking"`
	RankedCount   int                   `json:"rankedCount"`
	UnrankedCount int                   `json:"unrankedCount"`
}
