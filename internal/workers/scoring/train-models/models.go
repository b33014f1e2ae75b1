// internal/workers/scoring/train-models/models.go
package trainmodels

import "talentrank-workers/internal/models"

type Input struct {
	Examples []models.TrainingExample `json:"examples"`
}

type Output struct {
	ModelVersion string `json:"modelVersion"`
	SamplesUsed  int    `json:"samplesUsed"`
}
