// internal/workers/scoring/get-composite-score/handler_test.go
package getcompositescore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

type stubScorer struct {
	score *models.CompositeScore
	err   error
}

func (s *stubScorer) CompositeFor(ctx context.Context, candidateID, jobID string) (*models.CompositeScore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.score, nil
}

func TestExecute_ReturnsComposite(t *testing.T) {
	score := &models.CompositeScore{
		CandidateID: "cand-1",
		JobID:       "job-1",
		Value:       74.5,
		Confidence:  0.6,
		Components: []models.ComponentScore{
			{ProviderID: models.ProviderKeyword, Value: 70, Coverage: 1},
			{ProviderID: models.ProviderOntology, Value: 80, Coverage: 0.9},
		},
		ComputedAt: time.Now().UTC(),
	}
	handler := NewHandler(LoadConfig(), &stubScorer{score: score}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "cand-1", JobID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, 74.5, output.Score.Value)
	assert.Len(t, output.Score.Components, 2)
}

func TestExecute_ScoringFailedPropagates(t *testing.T) {
	handler := NewHandler(LoadConfig(), &stubScorer{err: errors.NewScoringFailedError("cand-1", "job-1")}, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{CandidateID: "cand-1", JobID: "job-1"})
	require.Error(t, err)
	assert.True(t, errors.IsScoringFailed(err))
}

func TestExecute_MissingResumePropagates(t *testing.T) {
	handler := NewHandler(LoadConfig(), &stubScorer{err: errors.NewResumeNotFoundError("cand-1")}, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{CandidateID: "cand-1", JobID: "job-1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResumeNotFound, errors.CodeOf(err))
}
