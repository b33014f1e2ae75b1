// internal/scoring/aggregate.go

package scoring

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/metrics"
	"talentrank-workers/internal/models"
)

// Aggregator fans a resume-job pair out to every registered provider and
// folds the surviving component scores into one composite. Provider failures
// reduce confidence; only a total failure surfaces as SCORING_FAILED.
type Aggregator struct {
	registry *Registry
	cache    *ScoreCache
	logger   logger.Logger
}

func NewAggregator(registry *Registry, cache *ScoreCache, log logger.Logger) *Aggregator {
	return &Aggregator{registry: registry, cache: cache, logger: log}
}

// Composite scores the pair with all providers in parallel. The result slot
// per provider keeps component order deterministic regardless of completion
// order.
func (a *Aggregator) Composite(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.CompositeScore, error) {
	providers := a.registry.Providers()
	results := make([]*models.ComponentScore, len(providers))

	resumeFP := resume.Fingerprint()
	jobFP := job.Fingerprint()

	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range providers {
		i, provider := i, provider
		g.Go(func() error {
			key := CacheKey{
				ResumeFingerprint: resumeFP,
				JobFingerprint:    jobFP,
				Provider:          provider.ID(),
				ProviderVersion:   provider.Version(),
			}
			start := time.Now()
			score, err := a.cache.GetOrCompute(gctx, key, func(cctx context.Context) (*models.ComponentScore, error) {
				return provider.Score(cctx, resume, job)
			})
			metrics.ProviderScoreDuration.WithLabelValues(string(provider.ID())).Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.ProviderFailures.WithLabelValues(string(provider.ID())).Inc()
				a.logger.Warn("signal provider unavailable", map[string]interface{}{
					"provider":    provider.ID(),
					"candidateId": resume.CandidateID,
					"jobId":       job.JobID,
					"error":       err.Error(),
				})
				return nil
			}
			results[i] = score
			return nil
		})
	}
	// Goroutines only return nil; Wait is for completion.
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	components := make([]models.ComponentScore, 0, len(results))
	weightedSum := 0.0
	effectiveTotal := 0.0
	for _, score := range results {
		if score == nil {
			continue
		}
		components = append(components, *score)
		effective := a.registry.Weight(score.ProviderID) * score.Coverage
		weightedSum += effective * score.Value
		effectiveTotal += effective
	}

	if len(components) == 0 || effectiveTotal == 0 {
		return nil, errors.NewScoringFailedError(resume.CandidateID, job.JobID)
	}

	confidence := 0.0
	if total := a.registry.TotalWeight(); total > 0 {
		confidence = effectiveTotal / total
	}

	return &models.CompositeScore{
		CandidateID:     resume.CandidateID,
		JobID:           job.JobID,
		Value:           weightedSum / effectiveTotal,
		Confidence:      confidence,
		Components:      components,
		ComputedAt:      time.Now().UTC(),
		ModelVersionSet: a.registry.VersionSet(),
	}, nil
}
