// internal/scoring/contextual_test.go

package scoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

func contextualTestConfig(endpoint string) config.ContextualConfig {
	return config.ContextualConfig{
		Enabled:        true,
		Endpoint:       endpoint,
		Timeout:        2 * time.Second,
		MaxConcurrency: 2,
		MaxRetries:     1,
	}
}

func contextualFixtures() (*models.ParsedResume, *models.JobRequirements) {
	resume := &models.ParsedResume{
		CandidateID: "cand-1",
		Skills:      []models.Skill{{Name: "Python"}},
		Sections:    map[string]string{"experience": "Built data pipelines."},
	}
	job := &models.JobRequirements{
		JobID:          "job-1",
		Title:          "Data Engineer",
		RequiredSkills: []models.WeightedSkill{{Name: "Python", Weight: 1}},
	}
	return resume, job
}

func TestContextualScorer_Disabled(t *testing.T) {
	scorer, err := NewContextualScorer(config.ContextualConfig{Enabled: false}, logger.NewTestLogger(t))
	require.NoError(t, err)

	resume, job := contextualFixtures()
	_, err = scorer.Score(context.Background(), resume, job)
	require.Error(t, err)
	assert.True(t, errors.IsProviderUnavailable(err))
}

func TestContextualScorer_ValidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"score": 82.5,
			"assessment": "Strong data engineering background.",
			"strengths": ["pipeline experience"],
			"weaknesses": ["no cloud certification"],
			"interviewQuestions": ["Describe a pipeline you built."],
			"confidence": 0.8
		}`))
	}))
	defer server.Close()

	scorer, err := NewContextualScorer(contextualTestConfig(server.URL), logger.NewTestLogger(t))
	require.NoError(t, err)

	resume, job := contextualFixtures()
	score, err := scorer.Score(context.Background(), resume, job)
	require.NoError(t, err)
	assert.Equal(t, 82.5, score.Value)
	assert.Equal(t, 1.0, score.Coverage)
	assert.Equal(t, "Strong data engineering background.", score.Detail["assessment"])
	assert.Equal(t, []string{"pipeline experience"}, score.Detail["strengths"])
}

func TestContextualScorer_SchemaViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Score above the allowed range.
		w.Write([]byte(`{"score": 250, "assessment": "nope"}`))
	}))
	defer server.Close()

	scorer, err := NewContextualScorer(contextualTestConfig(server.URL), logger.NewTestLogger(t))
	require.NoError(t, err)

	resume, job := contextualFixtures()
	_, err = scorer.Score(context.Background(), resume, job)
	require.Error(t, err)
	assert.True(t, errors.IsProviderUnavailable(err))
}

func TestContextualScorer_RetriesThenRecovers(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"score": 60, "assessment": "ok"}`))
	}))
	defer server.Close()

	scorer, err := NewContextualScorer(contextualTestConfig(server.URL), logger.NewTestLogger(t))
	require.NoError(t, err)

	resume, job := contextualFixtures()
	score, err := scorer.Score(context.Background(), resume, job)
	require.NoError(t, err)
	assert.Equal(t, 60.0, score.Value)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestContextualScorer_ExhaustedRetriesUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scorer, err := NewContextualScorer(contextualTestConfig(server.URL), logger.NewTestLogger(t))
	require.NoError(t, err)

	resume, job := contextualFixtures()
	_, err = scorer.Score(context.Background(), resume, job)
	require.Error(t, err)
	assert.True(t, errors.IsProviderUnavailable(err))
}
