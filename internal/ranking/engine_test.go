// internal/ranking/engine_test.go

package ranking

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

type stubStores struct {
	job        *models.JobRequirements
	resumes    map[string]*models.ParsedResume
	resumeErrs map[string]error
	applicants []models.Applicant
}

func (s *stubStores) GetJobRequirements(ctx context.Context, jobID string) (*models.JobRequirements, error) {
	if s.job == nil || s.job.JobID != jobID {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return s.job, nil
}

func (s *stubStores) GetParsedResume(ctx context.Context, candidateID string) (*models.ParsedResume, error) {
	if err, ok := s.resumeErrs[candidateID]; ok {
		return nil, err
	}
	resume, ok := s.resumes[candidateID]
	if !ok {
		return nil, errors.NewResumeNotFoundError(candidateID)
	}
	return resume, nil
}

func (s *stubStores) ListApplicants(ctx context.Context, jobID string) ([]models.Applicant, error) {
	return s.applicants, nil
}

// stubScorer maps candidate ids to fixed composites or errors.
type stubScorer struct {
	scores map[string]*models.CompositeScore
	errs   map[string]error
}

func (s *stubScorer) Composite(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.CompositeScore, error) {
	if err, ok := s.errs[resume.CandidateID]; ok {
		return nil, err
	}
	score, ok := s.scores[resume.CandidateID]
	if !ok {
		return nil, errors.NewScoringFailedError(resume.CandidateID, job.JobID)
	}
	return score, nil
}

func composite(candidateID string, value, confidence float64) *models.CompositeScore {
	return &models.CompositeScore{
		CandidateID: candidateID,
		JobID:       "job-1",
		Value:       value,
		Confidence:  confidence,
	}
}

func testStores(candidateIDs ...string) *stubStores {
	stores := &stubStores{
		job:        &models.JobRequirements{JobID: "job-1", Title: "Engineer"},
		resumes:    map[string]*models.ParsedResume{},
		resumeErrs: map[string]error{},
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range candidateIDs {
		stores.resumes[id] = &models.ParsedResume{CandidateID: id}
		stores.applicants = append(stores.applicants, models.Applicant{
			CandidateID: id,
			AppliedAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	return stores
}

func TestEngine_RankOrdersByValue(t *testing.T) {
	stores := testStores("cand-a", "cand-b", "cand-c")
	scorer := &stubScorer{scores: map[string]*models.CompositeScore{
		"cand-a": composite("cand-a", 55, 0.9),
		"cand-b": composite("cand-b", 91, 0.8),
		"cand-c": composite("cand-c", 73, 0.7),
	}}
	engine := NewEngine(scorer, stores, stores, stores, 4, logger.NewTestLogger(t))

	result, err := engine.Rank(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, result.Entries, 3)

	assert.Equal(t, "cand-b", result.Entries[0].CandidateID)
	assert.Equal(t, "cand-c", result.Entries[1].CandidateID)
	assert.Equal(t, "cand-a", result.Entries[2].CandidateID)
	for i, entry := range result.Entries {
		assert.Equal(t, i+1, entry.Position, "positions must be dense and 1-based")
	}
	assert.Empty(t, result.Unranked)
}

func TestEngine_TieBreaking(t *testing.T) {
	// Same value everywhere; confidence, then application time, then id
	// decide.
	stores := testStores("cand-late", "cand-early", "cand-confident")
	// cand-late applied first per testStores order; rename times explicitly.
	stores.applicants = []models.Applicant{
		{CandidateID: "cand-late", AppliedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		{CandidateID: "cand-early", AppliedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		{CandidateID: "cand-confident", AppliedAt: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
	}
	scorer := &stubScorer{scores: map[string]*models.CompositeScore{
		"cand-late":      composite("cand-late", 80, 0.5),
		"cand-early":     composite("cand-early", 80, 0.5),
		"cand-confident": composite("cand-confident", 80, 0.9),
	}}
	engine := NewEngine(scorer, stores, stores, stores, 4, logger.NewTestLogger(t))

	result, err := engine.Rank(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, result.Entries, 3)

	assert.Equal(t, "cand-confident", result.Entries[0].CandidateID, "higher confidence wins the tie")
	assert.Equal(t, "cand-early", result.Entries[1].CandidateID, "earlier application wins at equal confidence")
	assert.Equal(t, "cand-late", result.Entries[2].CandidateID)
}

func TestEngine_FailedCandidatesGoUnranked(t *testing.T) {
	stores := testStores("cand-ok", "cand-broken", "cand-missing")
	delete(stores.resumes, "cand-missing")
	scorer := &stubScorer{
		scores: map[string]*models.CompositeScore{"cand-ok": composite("cand-ok", 64, 0.8)},
		errs:   map[string]error{"cand-broken": errors.NewScoringFailedError("cand-broken", "job-1")},
	}
	engine := NewEngine(scorer, stores, stores, stores, 4, logger.NewTestLogger(t))

	result, err := engine.Rank(context.Background(), "job-1")
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "cand-ok", result.Entries[0].CandidateID)
	assert.Equal(t, 1, result.Entries[0].Position)

	require.Len(t, result.Unranked, 2)
	assert.Equal(t, "cand-broken", result.Unranked[0].CandidateID)
	assert.Equal(t, "all signal providers failed", result.Unranked[0].Reason)
	assert.Equal(t, "cand-missing", result.Unranked[1].CandidateID)
	assert.Equal(t, "resume not found", result.Unranked[1].Reason)
}

func TestEngine_UnprocessedResumeReason(t *testing.T) {
	stores := testStores("cand-raw")
	stores.resumeErrs["cand-raw"] = errors.NewResumeNotProcessedError("cand-raw")
	engine := NewEngine(&stubScorer{}, stores, stores, stores, 4, logger.NewTestLogger(t))

	result, err := engine.Rank(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, result.Unranked, 1)
	assert.Equal(t, "resume not yet processed", result.Unranked[0].Reason)
}

func TestEngine_UnknownJob(t *testing.T) {
	stores := testStores("cand-a")
	engine := NewEngine(&stubScorer{}, stores, stores, stores, 4, logger.NewTestLogger(t))

	_, err := engine.Rank(context.Background(), "job-does-not-exist")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.CodeOf(err))
}

func TestEngine_RankIsDeterministic(t *testing.T) {
	stores := testStores("cand-a", "cand-b", "cand-c", "cand-d", "cand-e")
	scorer := &stubScorer{scores: map[string]*models.CompositeScore{
		"cand-a": composite("cand-a", 70, 0.5),
		"cand-b": composite("cand-b", 70, 0.5),
		"cand-c": composite("cand-c", 70, 0.5),
		"cand-d": composite("cand-d", 85, 0.9),
		"cand-e": composite("cand-e", 12, 0.3),
	}}
	engine := NewEngine(scorer, stores, stores, stores, 3, logger.NewTestLogger(t))

	first, err := engine.Rank(context.Background(), "job-1")
	require.NoError(t, err)
	second, err := engine.Rank(context.Background(), "job-1")
	require.NoError(t, err)

	require.Equal(t, len(first.Entries), len(second.Entries))
	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].CandidateID, second.Entries[i].CandidateID)
		assert.Equal(t, first.Entries[i].Position, second.Entries[i].Position)
	}
}

func TestEngine_CompositeFor(t *testing.T) {
	stores := testStores("cand-a")
	scorer := &stubScorer{scores: map[string]*models.CompositeScore{
		"cand-a": composite("cand-a", 77, 0.6),
	}}
	engine := NewEngine(scorer, stores, stores, stores, 4, logger.NewTestLogger(t))

	score, err := engine.CompositeFor(context.Background(), "cand-a", "job-1")
	require.NoError(t, err)
	assert.Equal(t, 77.0, score.Value)

	_, err = engine.CompositeFor(context.Background(), "cand-unknown", "job-1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResumeNotFound, errors.CodeOf(err))
}
