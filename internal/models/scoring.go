// internal/models/scoring.go
package models

import "time"

// ProviderID identifies a signal provider. The set is closed: providers are
// selected via configuration, not runtime type inspection.
type ProviderID string

const (
	ProviderKeyword      ProviderID = "keyword"
	ProviderTrainedModel ProviderID = "trained_model"
	ProviderOntology     ProviderID = "ontology"
	ProviderContextual   ProviderID = "contextual"
)

// ComponentScore is a single provider's verdict on a (resume, job) pair.
//
// Coverage expresses how much of the input the provider could actually
// evaluate, so the aggregator can discount thin signals instead of reading a
// low value as "bad candidate".
type ComponentScore struct {
	ProviderID      ProviderID             `json:"providerId"`
	ProviderVersion string                 `json:"providerVersion"`
	Value           float64                `json:"value"`    // [0,100]
	Coverage        float64                `json:"coverage"` // [0,1]
	Detail          map[string]interface{} `json:"detail,omitempty"`
}

// CompositeScore is the aggregated match score for a candidate-job pair.
// Value is a deterministic function of Components and the configured provider
// weights: recomputing with identical inputs and an identical ModelVersionSet
// yields the same Value.
type CompositeScore struct {
	CandidateID     string                `json:"candidateId"`
	JobID           string                `json:"jobId"`
	Value           float64               `json:"value"`      // [0,100]
	Confidence      float64               `json:"confidence"` // [0,1]
	Components      []ComponentScore      `json:"components"`
	ComputedAt      time.Time             `json:"computedAt"`
	ModelVersionSet map[ProviderID]string `json:"modelVersionSet"`
}

// RankedEntry is one candidate's place in a ranking.
type RankedEntry struct {
	CandidateID string         `json:"candidateId"`
	Score       CompositeScore `json:"score"`
	Position    int            `json:"position"` // dense, 1-based
}

// UnrankedEntry is a candidate excluded from the ranked order. These surface
// as "needs manual review", never as a zero score.
type UnrankedEntry struct {
	CandidateID string `json:"candidateId"`
	Reason      string `json:"reason"`
}

// RankingResult is the total order over a job's candidate pool.
// Positions are a dense permutation of 1..N; ties are broken by a fixed
// secondary key so re-running over unchanged inputs reproduces the order.
type RankingResult struct {
	JobID    string          `json:"jobId"`
	RankedAt time.Time       `json:"rankedAt"`
	Entries  []RankedEntry   `json:"entries"`
	Unranked []UnrankedEntry `json:"unranked,omitempty"`
}

// TrainingExample is one (features, observed outcome) pair for the
// trained-model scorer.
type TrainingExample struct {
	SkillsCount     float64 `json:"skillsCount"`
	YearsExperience float64 `json:"yearsExperience"`
	EducationLevel  float64 `json:"educationLevel"` // ordinal, phd=4 .. none=0
	KeywordScore    float64 `json:"keywordScore"`   // [0,100]
	RelevanceScore  float64 `json:"relevanceScore"` // [0,100]
	Outcome         float64 `json:"outcome"`        // observed overall score [0,100]
}

// Features returns the example's feature vector in canonical order.
func (e TrainingExample) Features() []float64 {
	return []float64{e.SkillsCount, e.YearsExperience, e.EducationLevel, e.KeywordScore, e.RelevanceScore}
}
