// internal/scoring/keyword.go

package scoring

import (
	"context"
	"strings"

	"talentrank-workers/internal/models"
)

const keywordScorerVersion = "1"

// KeywordScorer computes a weighted skill-overlap score. It is deterministic,
// needs no external state, and always reports full coverage: it can evaluate
// any parsed resume, even one with zero matches.
type KeywordScorer struct{}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

func (s *KeywordScorer) ID() models.ProviderID { return models.ProviderKeyword }

func (s *KeywordScorer) Version() string { return keywordScorerVersion }

func (s *KeywordScorer) Score(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.ComponentScore, error) {
	value, matched, missing := s.match(resume, job)
	return &models.ComponentScore{
		ProviderID:      models.ProviderKeyword,
		ProviderVersion: keywordScorerVersion,
		Value:           value,
		Coverage:        1.0,
		Detail: map[string]interface{}{
			"matchedSkills": matched,
			"missingSkills": missing,
		},
	}, nil
}

// match computes the weighted overlap fraction scaled to [0,100]. Required
// skills count at their configured weight; a matched preferred skill counts
// at half a unit weight and can only raise the score, an unmatched one has no
// effect.
func (s *KeywordScorer) match(resume *models.ParsedResume, job *models.JobRequirements) (float64, []string, []string) {
	have := make(map[string]bool, len(resume.Skills))
	for _, skill := range resume.Skills {
		have[normalizeSkill(skill.Name)] = true
	}

	matched := []string{}
	missing := []string{}
	matchedWeight := 0.0
	totalWeight := 0.0
	for _, req := range job.RequiredSkills {
		totalWeight += req.Weight
		if have[normalizeSkill(req.Name)] {
			matchedWeight += req.Weight
			matched = append(matched, req.Name)
		} else {
			missing = append(missing, req.Name)
		}
	}

	for _, pref := range job.PreferredSkills {
		if have[normalizeSkill(pref)] {
			matchedWeight += 0.5
			totalWeight += 0.5
			matched = append(matched, pref)
		}
	}

	if totalWeight == 0 {
		return 0, matched, missing
	}
	return 100 * matchedWeight / totalWeight, matched, missing
}

func normalizeSkill(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
