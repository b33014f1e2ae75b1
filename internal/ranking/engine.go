// internal/ranking/engine.go

// Package ranking turns composite scores into a total order over a job's
// candidate pool.
package ranking

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/metrics"
	"talentrank-workers/internal/models"
)

// ResumeStore serves parsed resumes by candidate.
type ResumeStore interface {
	GetParsedResume(ctx context.Context, candidateID string) (*models.ParsedResume, error)
}

// JobStore serves job requirement records.
type JobStore interface {
	GetJobRequirements(ctx context.Context, jobID string) (*models.JobRequirements, error)
}

// ApplicationStore lists the applicants of a job.
type ApplicationStore interface {
	ListApplicants(ctx context.Context, jobID string) ([]models.Applicant, error)
}

// Scorer produces composite scores. Satisfied by *scoring.Aggregator.
type Scorer interface {
	Composite(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.CompositeScore, error)
}

const defaultParallelism = 8

// Engine ranks a job's applicants by composite score. Candidates whose
// scoring fails end up in the unranked bucket for manual review, never at the
// bottom of the ranked list with a zero.
type Engine struct {
	scorer      Scorer
	resumes     ResumeStore
	jobs        JobStore
	apps        ApplicationStore
	parallelism int
	logger      logger.Logger
}

func NewEngine(scorer Scorer, resumes ResumeStore, jobs JobStore, apps ApplicationStore, parallelism int, log logger.Logger) *Engine {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Engine{
		scorer:      scorer,
		resumes:     resumes,
		jobs:        jobs,
		apps:        apps,
		parallelism: parallelism,
		logger:      log,
	}
}

type candidateOutcome struct {
	applicant models.Applicant
	score     *models.CompositeScore
	reason    string
}

// Rank scores every applicant of jobID concurrently and returns the ordered
// result. The order is fully deterministic: value desc, then confidence desc,
// then earlier application, then candidate id.
func (e *Engine) Rank(ctx context.Context, jobID string) (*models.RankingResult, error) {
	job, err := e.jobs.GetJobRequirements(ctx, jobID)
	if err != nil {
		return nil, err
	}
	applicants, err := e.apps.ListApplicants(ctx, jobID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]candidateOutcome, len(applicants))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, applicant := range applicants {
		i, applicant := i, applicant
		g.Go(func() error {
			outcome := e.scoreCandidate(gctx, applicant, job)
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &models.RankingResult{
		JobID:    jobID,
		RankedAt: time.Now().UTC(),
	}
	appliedAt := make(map[string]time.Time, len(applicants))
	for _, outcome := range outcomes {
		appliedAt[outcome.applicant.CandidateID] = outcome.applicant.AppliedAt
		if outcome.score != nil {
			result.Entries = append(result.Entries, models.RankedEntry{
				CandidateID: outcome.applicant.CandidateID,
				Score:       *outcome.score,
			})
		} else {
			metrics.ScoringFailedCandidates.Inc()
			result.Unranked = append(result.Unranked, models.UnrankedEntry{
				CandidateID: outcome.applicant.CandidateID,
				Reason:      outcome.reason,
			})
		}
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if a.Score.Value != b.Score.Value {
			return a.Score.Value > b.Score.Value
		}
		if a.Score.Confidence != b.Score.Confidence {
			return a.Score.Confidence > b.Score.Confidence
		}
		if !appliedAt[a.CandidateID].Equal(appliedAt[b.CandidateID]) {
			return appliedAt[a.CandidateID].Before(appliedAt[b.CandidateID])
		}
		return a.CandidateID < b.CandidateID
	})
	for i := range result.Entries {
		result.Entries[i].Position = i + 1
	}
	sort.Slice(result.Unranked, func(i, j int) bool {
		return result.Unranked[i].CandidateID < result.Unranked[j].CandidateID
	})

	metrics.RankingsComputed.Inc()
	e.logger.Info("ranking computed", map[string]interface{}{
		"jobId":    jobID,
		"ranked":   len(result.Entries),
		"unranked": len(result.Unranked),
	})
	return result, nil
}

// CompositeFor scores a single candidate-job pair. Lookup failures propagate;
// a total scoring failure comes back as a SCORING_FAILED error for the caller
// to present as "needs manual review".
func (e *Engine) CompositeFor(ctx context.Context, candidateID, jobID string) (*models.CompositeScore, error) {
	job, err := e.jobs.GetJobRequirements(ctx, jobID)
	if err != nil {
		return nil, err
	}
	resume, err := e.resumes.GetParsedResume(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return e.scorer.Composite(ctx, resume, job)
}

func (e *Engine) scoreCandidate(ctx context.Context, applicant models.Applicant, job *models.JobRequirements) candidateOutcome {
	outcome := candidateOutcome{applicant: applicant}

	resume, err := e.resumes.GetParsedResume(ctx, applicant.CandidateID)
	if err != nil {
		outcome.reason = unrankedReason(err)
		e.logger.Warn("candidate excluded from ranking", map[string]interface{}{
			"candidateId": applicant.CandidateID,
			"jobId":       job.JobID,
			"reason":      outcome.reason,
		})
		return outcome
	}

	score, err := e.scorer.Composite(ctx, resume, job)
	if err != nil {
		outcome.reason = unrankedReason(err)
		e.logger.Warn("candidate excluded from ranking", map[string]interface{}{
			"candidateId": applicant.CandidateID,
			"jobId":       job.JobID,
			"reason":      outcome.reason,
		})
		return outcome
	}

	outcome.score = score
	return outcome
}

func unrankedReason(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrCodeResumeNotFound:
		return "resume not found"
	case errors.ErrCodeResumeNotProcessed:
		return "resume not yet processed"
	case errors.ErrCodeScoringFailed:
		return "all signal providers failed"
	default:
		return "scoring error: " + err.Error()
	}
}
