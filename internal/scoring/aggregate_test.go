// internal/scoring/aggregate_test.go

package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

// stubProvider returns a fixed score or error, standing in for a real signal
// provider.
type stubProvider struct {
	id       models.ProviderID
	version  string
	value    float64
	coverage float64
	err      error
}

func (p *stubProvider) ID() models.ProviderID { return p.id }
func (p *stubProvider) Version() string       { return p.version }

func (p *stubProvider) Score(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.ComponentScore, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.ComponentScore{
		ProviderID:      p.id,
		ProviderVersion: p.version,
		Value:           p.value,
		Coverage:        p.coverage,
	}, nil
}

var defaultTestWeights = config.ProviderWeights{
	Keyword:      0.25,
	TrainedModel: 0.35,
	Ontology:     0.25,
	Contextual:   0.15,
}

func newTestAggregator(t *testing.T, providers ...Provider) *Aggregator {
	t.Helper()
	registry := NewRegistry(defaultTestWeights)
	for _, p := range providers {
		registry.Register(p)
	}
	cache := NewScoreCache(nil, time.Hour, logger.NewTestLogger(t))
	return NewAggregator(registry, cache, logger.NewTestLogger(t))
}

func aggregateFixtures() (*models.ParsedResume, *models.JobRequirements) {
	return &models.ParsedResume{CandidateID: "cand-1", ParsedAt: time.Unix(1700000000, 0)},
		&models.JobRequirements{JobID: "job-1", UpdatedAt: time.Unix(1700000000, 0)}
}

func TestAggregator_WeightsByCoverage(t *testing.T) {
	agg := newTestAggregator(t,
		&stubProvider{id: models.ProviderKeyword, version: "1", value: 80, coverage: 1.0},
		&stubProvider{id: models.ProviderOntology, version: "1", value: 20, coverage: 0.5},
	)

	resume, job := aggregateFixtures()
	score, err := agg.Composite(context.Background(), resume, job)
	require.NoError(t, err)

	// keyword: 0.25*1.0 = 0.25 effective, ontology: 0.25*0.5 = 0.125.
	expected := (0.25*80 + 0.125*20) / 0.375
	assert.InDelta(t, expected, score.Value, 0.001)
	assert.InDelta(t, 0.375/0.5, score.Confidence, 0.001)
	assert.Len(t, score.Components, 2)
}

func TestAggregator_UnavailableProviderDiscountsConfidence(t *testing.T) {
	agg := newTestAggregator(t,
		&stubProvider{id: models.ProviderKeyword, version: "1", value: 70, coverage: 1.0},
		&stubProvider{id: models.ProviderTrainedModel, version: "untrained", err: errors.NewProviderUnavailableError("trained_model", errors.NewModelNotTrainedError())},
		&stubProvider{id: models.ProviderOntology, version: "1", err: errors.NewProviderUnavailableError("ontology", nil)},
		&stubProvider{id: models.ProviderContextual, version: "1", err: errors.NewProviderUnavailableError("contextual", nil)},
	)

	resume, job := aggregateFixtures()
	score, err := agg.Composite(context.Background(), resume, job)
	require.NoError(t, err)

	assert.Equal(t, 70.0, score.Value, "sole surviving provider sets the value")
	assert.InDelta(t, 0.25, score.Confidence, 0.001)
	assert.Less(t, score.Confidence, 0.5)
	assert.Len(t, score.Components, 1)
}

func TestAggregator_AllProvidersFailed(t *testing.T) {
	agg := newTestAggregator(t,
		&stubProvider{id: models.ProviderKeyword, version: "1", err: errors.NewProviderUnavailableError("keyword", nil)},
		&stubProvider{id: models.ProviderOntology, version: "1", err: errors.NewProviderUnavailableError("ontology", nil)},
	)

	resume, job := aggregateFixtures()
	_, err := agg.Composite(context.Background(), resume, job)
	require.Error(t, err)
	assert.True(t, errors.IsScoringFailed(err), "total failure must never surface as a zero score")
}

func TestAggregator_ZeroCoverageEverywhereFails(t *testing.T) {
	agg := newTestAggregator(t,
		&stubProvider{id: models.ProviderOntology, version: "1", value: 90, coverage: 0},
	)

	resume, job := aggregateFixtures()
	_, err := agg.Composite(context.Background(), resume, job)
	require.Error(t, err)
	assert.True(t, errors.IsScoringFailed(err))
}

func TestAggregator_Deterministic(t *testing.T) {
	build := func() *Aggregator {
		return newTestAggregator(t,
			&stubProvider{id: models.ProviderKeyword, version: "1", value: 66, coverage: 1.0},
			&stubProvider{id: models.ProviderOntology, version: "3", value: 44, coverage: 0.8},
		)
	}

	resume, job := aggregateFixtures()
	first, err := build().Composite(context.Background(), resume, job)
	require.NoError(t, err)
	second, err := build().Composite(context.Background(), resume, job)
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Confidence, second.Confidence)
	require.Len(t, second.Components, 2)
	assert.Equal(t, models.ProviderKeyword, second.Components[0].ProviderID, "component order follows registration order")
	assert.Equal(t, map[models.ProviderID]string{
		models.ProviderKeyword:  "1",
		models.ProviderOntology: "3",
	}, second.ModelVersionSet)
}

func TestAggregator_VersionSetStampsComposite(t *testing.T) {
	agg := newTestAggregator(t,
		&stubProvider{id: models.ProviderKeyword, version: "1", value: 50, coverage: 1.0},
		&stubProvider{id: models.ProviderTrainedModel, version: "7", value: 60, coverage: 1.0},
	)

	resume, job := aggregateFixtures()
	score, err := agg.Composite(context.Background(), resume, job)
	require.NoError(t, err)
	assert.Equal(t, "7", score.ModelVersionSet[models.ProviderTrainedModel])
}
