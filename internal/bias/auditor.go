// internal/bias/auditor.go

package bias

import (
	"math"
	"sort"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/metrics"
	"talentrank-workers/internal/models"
)

// minGroupSize is the smallest proxy group worth comparing. A single outlier
// is anecdote, not statistics.
const minGroupSize = 2

// positionDisparityThreshold is the normalized mean-position gap between
// groups that triggers an indicator.
const positionDisparityThreshold = 0.2

// scoreGapThreshold is the mean composite-score gap (in score points) that
// triggers score-based detectors.
const scoreGapThreshold = 10.0

// Auditor computes bias indicators over one ranking result. Indicators are
// consistency signals for human review; no candidate outcome is ever changed
// from here.
type Auditor struct {
	cfg    config.BiasConfig
	logger logger.Logger
}

func NewAuditor(cfg config.BiasConfig, log logger.Logger) *Auditor {
	return &Auditor{cfg: cfg, logger: log}
}

type auditEntry struct {
	entry  models.RankedEntry
	resume *models.ParsedResume
}

// Audit runs every detector over the ranked entries. Below the minimum
// sample size the auditor abstains with INSUFFICIENT_SAMPLE rather than
// reporting noise as signal.
func (a *Auditor) Audit(result *models.RankingResult, resumes map[string]*models.ParsedResume) ([]models.BiasIndicator, error) {
	if len(result.Entries) < a.cfg.MinSampleSize {
		return nil, errors.NewInsufficientSampleError(len(result.Entries), a.cfg.MinSampleSize)
	}

	entries := make([]auditEntry, 0, len(result.Entries))
	for _, entry := range result.Entries {
		resume, ok := resumes[entry.CandidateID]
		if !ok {
			a.logger.Warn("audit skipping candidate without resume", map[string]interface{}{
				"candidateId": entry.CandidateID,
				"jobId":       result.JobID,
			})
			continue
		}
		entries = append(entries, auditEntry{entry: entry, resume: resume})
	}

	var indicators []models.BiasIndicator
	indicators = append(indicators, a.auditPositions(result, entries, models.BiasGender, func(e auditEntry) string {
		return genderGroup(e.resume.FullName)
	})...)
	indicators = append(indicators, a.auditPositions(result, entries, models.BiasName, func(e auditEntry) string {
		return nameOriginGroup(e.resume.FullName)
	})...)
	indicators = append(indicators, a.auditEducation(result, entries)...)
	indicators = append(indicators, a.auditScores(result, entries, models.BiasGeography, func(e auditEntry) string {
		return geographyGroup(e.resume.Location)
	})...)

	for _, indicator := range indicators {
		metrics.BiasIndicators.WithLabelValues(string(indicator.BiasType)).Inc()
	}
	return indicators, nil
}

// auditPositions compares mean normalized rank position across proxy groups
// and flags every member of the worst-placed group when the gap crosses the
// disparity threshold.
func (a *Auditor) auditPositions(result *models.RankingResult, entries []auditEntry, biasType models.BiasType, groupOf func(auditEntry) string) []models.BiasIndicator {
	groups := groupEntries(entries, groupOf)
	if len(groups) < 2 {
		return nil
	}

	n := float64(len(entries))
	means := map[string]float64{}
	for name, members := range groups {
		sum := 0.0
		for _, member := range members {
			sum += float64(member.entry.Position) / n
		}
		means[name] = sum / float64(len(members))
	}

	bestGroup, worstGroup := extremeGroups(means)
	disparity := means[worstGroup] - means[bestGroup]
	if disparity < positionDisparityThreshold {
		return nil
	}

	confidence := disparity * sampleFactor(len(entries))
	var indicators []models.BiasIndicator
	for _, member := range groups[worstGroup] {
		indicators = append(indicators, models.BiasIndicator{
			CandidateID: member.entry.CandidateID,
			JobID:       result.JobID,
			BiasType:    biasType,
			Confidence:  clampUnit(confidence),
			Evidence: map[string]interface{}{
				"group":             worstGroup,
				"groupMeanPosition": round3(means[worstGroup]),
				"bestGroup":         bestGroup,
				"bestMeanPosition":  round3(means[bestGroup]),
				"disparity":         round3(disparity),
			},
		})
	}
	return indicators
}

// auditScores compares mean composite value across proxy groups.
func (a *Auditor) auditScores(result *models.RankingResult, entries []auditEntry, biasType models.BiasType, groupOf func(auditEntry) string) []models.BiasIndicator {
	groups := groupEntries(entries, groupOf)
	if len(groups) < 2 {
		return nil
	}

	means := map[string]float64{}
	for name, members := range groups {
		sum := 0.0
		for _, member := range members {
			sum += member.entry.Score.Value
		}
		means[name] = sum / float64(len(members))
	}

	// For scores higher is better, so the extreme roles flip.
	worstGroup, bestGroup := extremeGroups(means)
	gap := means[bestGroup] - means[worstGroup]
	if gap < scoreGapThreshold {
		return nil
	}

	confidence := (gap / 100) * sampleFactor(len(entries))
	var indicators []models.BiasIndicator
	for _, member := range groups[worstGroup] {
		indicators = append(indicators, models.BiasIndicator{
			CandidateID: member.entry.CandidateID,
			JobID:       result.JobID,
			BiasType:    biasType,
			Confidence:  clampUnit(confidence),
			Evidence: map[string]interface{}{
				"group":          worstGroup,
				"groupMeanScore": round3(means[worstGroup]),
				"bestGroup":      bestGroup,
				"bestMeanScore":  round3(means[bestGroup]),
				"scoreGap":       round3(gap),
			},
		})
	}
	return indicators
}

// auditEducation flags a prestige gap only when it is disproportionate to the
// keyword skill-match gap: pedigree moving scores that skills do not explain.
func (a *Auditor) auditEducation(result *models.RankingResult, entries []auditEntry) []models.BiasIndicator {
	groups := groupEntries(entries, func(e auditEntry) string { return educationGroup(e.resume) })
	prestigious, okP := groups[groupPrestigious]
	others, okO := groups[groupNonPrestigious]
	if !okP || !okO {
		return nil
	}

	scoreGap := meanScore(prestigious) - meanScore(others)
	keywordGap := meanKeyword(prestigious) - meanKeyword(others)
	if scoreGap < scoreGapThreshold || scoreGap <= keywordGap+5 {
		return nil
	}

	confidence := (scoreGap / 100) * sampleFactor(len(entries))
	var indicators []models.BiasIndicator
	for _, member := range others {
		indicators = append(indicators, models.BiasIndicator{
			CandidateID: member.entry.CandidateID,
			JobID:       result.JobID,
			BiasType:    models.BiasEducation,
			Confidence:  clampUnit(confidence),
			Evidence: map[string]interface{}{
				"scoreGap":   round3(scoreGap),
				"keywordGap": round3(keywordGap),
			},
		})
	}
	return indicators
}

// groupEntries buckets entries, dropping abstaining candidates and groups too
// small to compare.
func groupEntries(entries []auditEntry, groupOf func(auditEntry) string) map[string][]auditEntry {
	groups := map[string][]auditEntry{}
	for _, entry := range entries {
		group := groupOf(entry)
		if group == groupUnknown {
			continue
		}
		groups[group] = append(groups[group], entry)
	}
	for name, members := range groups {
		if len(members) < minGroupSize {
			delete(groups, name)
		}
	}
	return groups
}

// extremeGroups returns the group names with the lowest and highest mean,
// breaking ties by name so results are reproducible.
func extremeGroups(means map[string]float64) (lowest, highest string) {
	names := make([]string, 0, len(means))
	for name := range means {
		names = append(names, name)
	}
	sort.Strings(names)

	lowest, highest = names[0], names[0]
	for _, name := range names[1:] {
		if means[name] < means[lowest] {
			lowest = name
		}
		if means[name] > means[highest] {
			highest = name
		}
	}
	return lowest, highest
}

// sampleFactor scales confidence down for small pools: full weight from 20
// candidates up.
func sampleFactor(n int) float64 {
	f := float64(n) / 20
	if f > 1 {
		return 1
	}
	return f
}

func meanScore(entries []auditEntry) float64 {
	sum := 0.0
	for _, e := range entries {
		sum += e.entry.Score.Value
	}
	return sum / float64(len(entries))
}

func meanKeyword(entries []auditEntry) float64 {
	sum := 0.0
	count := 0
	for _, e := range entries {
		for _, component := range e.entry.Score.Components {
			if component.ProviderID == models.ProviderKeyword {
				sum += component.Value
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
