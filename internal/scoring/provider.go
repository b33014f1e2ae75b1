// internal/scoring/provider.go

// Package scoring contains the signal providers, score cache, and ensemble
// aggregator that turn (ParsedResume, JobRequirements) pairs into composite
// match scores.
package scoring

import (
	"context"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/models"
)

// Provider is a single independent signal source. Score either returns a
// ComponentScore or fails with a PROVIDER_UNAVAILABLE StandardError; it never
// silently returns 0, so the aggregator can discount rather than penalize.
type Provider interface {
	ID() models.ProviderID
	Version() string
	Score(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.ComponentScore, error)
}

// Registry is the explicitly owned set of enabled providers and their
// configured weights, injected into the aggregator and ranking engine.
// Lifecycle is tied to process start and model reload; there is no ambient
// global provider state.
type Registry struct {
	providers []Provider
	weights   map[models.ProviderID]float64
}

func NewRegistry(weights config.ProviderWeights) *Registry {
	return &Registry{
		weights: map[models.ProviderID]float64{
			models.ProviderKeyword:      weights.Keyword,
			models.ProviderTrainedModel: weights.TrainedModel,
			models.ProviderOntology:     weights.Ontology,
			models.ProviderContextual:   weights.Contextual,
		},
	}
}

// Register adds a provider. Registration order is fixed at wiring time and
// preserved so component lists are deterministic.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

func (r *Registry) Providers() []Provider {
	return r.providers
}

// Weight returns the configured weight for a provider, 0 if unknown.
func (r *Registry) Weight(id models.ProviderID) float64 {
	return r.weights[id]
}

// TotalWeight is the sum of configured weights across registered providers.
// It is the confidence denominator: confidence = sum(effective)/TotalWeight.
func (r *Registry) TotalWeight() float64 {
	total := 0.0
	for _, p := range r.providers {
		total += r.weights[p.ID()]
	}
	return total
}

// VersionSet snapshots every registered provider's current version. Composite
// scores embed it so a version change forces re-aggregation instead of an
// incremental update of a stale composite.
func (r *Registry) VersionSet() map[models.ProviderID]string {
	set := make(map[models.ProviderID]string, len(r.providers))
	for _, p := range r.providers {
		set[p.ID()] = p.Version()
	}
	return set
}
