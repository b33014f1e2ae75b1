// internal/bias/report.go

package bias

import (
	"context"
	"sort"
	"time"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

// HistoryStore serves persisted ranking snapshots in a trailing window.
type HistoryStore interface {
	Window(ctx context.Context, jobID string, from time.Time) ([]models.RankingResult, error)
}

// ResumeSource serves the resumes referenced by historical snapshots.
type ResumeSource interface {
	GetParsedResume(ctx context.Context, candidateID string) (*models.ParsedResume, error)
}

// recommendationTemplates maps detected bias types to review guidance.
var recommendationTemplates = map[models.BiasType]string{
	models.BiasGender:    "Review gender distribution across ranking positions and consider blind screening for the affected roles.",
	models.BiasName:      "Audit name-based disparities; consider anonymizing candidate names during initial screening.",
	models.BiasEducation: "Institution prestige is moving scores beyond what skill match explains; weight demonstrated skills over pedigree.",
	models.BiasGeography: "Scores skew by candidate location; verify that location plays no role where the position permits remote work.",
}

const attentionRecommendation = "Bias levels exceed the configured attention thresholds; schedule a manual audit of recent rankings."

// highBiasScore is the average indicator confidence above which a report
// requires attention even when the detection rate stays under the threshold:
// few candidates affected, but severely.
const highBiasScore = 0.5

// ReportGenerator regenerates bias reports by re-auditing historical ranking
// snapshots. Reports are derived artifacts: a detector change means the next
// generation reflects it, with no stale stored verdicts to migrate.
type ReportGenerator struct {
	history HistoryStore
	resumes ResumeSource
	auditor *Auditor
	cfg     config.BiasConfig
	logger  logger.Logger
}

func NewReportGenerator(history HistoryStore, resumes ResumeSource, auditor *Auditor, cfg config.BiasConfig, log logger.Logger) *ReportGenerator {
	return &ReportGenerator{
		history: history,
		resumes: resumes,
		auditor: auditor,
		cfg:     cfg,
		logger:  log,
	}
}

// Generate audits every snapshot for jobID (or all jobs when empty) in the
// trailing window and aggregates the indicators. Both sides of the detection
// rate count distinct (job, candidate) pairs, so re-ranking an unchanged job
// adds snapshots without moving the rate. Snapshots below the minimum sample
// size count toward totals but contribute no indicators.
func (g *ReportGenerator) Generate(ctx context.Context, jobID string, periodDays int) (*models.BiasReport, error) {
	from := time.Now().UTC().AddDate(0, 0, -periodDays)
	snapshots, err := g.history.Window(ctx, jobID, from)
	if err != nil {
		return nil, errors.NewReportGenerationError(err)
	}

	report := &models.BiasReport{
		PeriodDays:  periodDays,
		JobID:       jobID,
		BiasTypes:   map[models.BiasType]int{},
		GeneratedAt: time.Now().UTC(),
	}

	flaggedConfidences := []float64{}
	flaggedCandidates := map[string]bool{}
	seenCandidates := map[string]bool{}
	typesSeen := map[models.BiasType]bool{}

	for i := range snapshots {
		snapshot := &snapshots[i]
		for _, entry := range snapshot.Entries {
			seenCandidates[snapshot.JobID+"/"+entry.CandidateID] = true
		}

		resumes, err := g.collectResumes(ctx, snapshot)
		if err != nil {
			return nil, errors.NewReportGenerationError(err)
		}

		indicators, err := g.auditor.Audit(snapshot, resumes)
		if err != nil {
			if errors.IsInsufficientSample(err) {
				g.logger.Debug("snapshot below audit sample size", map[string]interface{}{
					"jobId":      snapshot.JobID,
					"candidates": len(snapshot.Entries),
				})
				continue
			}
			return nil, errors.NewReportGenerationError(err)
		}

		for _, indicator := range indicators {
			if indicator.Confidence < g.cfg.ConfidenceThreshold {
				continue
			}
			report.BiasTypes[indicator.BiasType]++
			typesSeen[indicator.BiasType] = true
			flaggedCandidates[snapshot.JobID+"/"+indicator.CandidateID] = true
			flaggedConfidences = append(flaggedConfidences, indicator.Confidence)
		}
	}

	report.TotalCandidates = len(seenCandidates)
	if report.TotalCandidates > 0 {
		report.BiasDetectionRate = float64(len(flaggedCandidates)) / float64(report.TotalCandidates)
	}
	if len(flaggedConfidences) > 0 {
		sum := 0.0
		for _, c := range flaggedConfidences {
			sum += c
		}
		report.AverageBiasScore = sum / float64(len(flaggedConfidences))
	}
	report.RequiresAttention = report.BiasDetectionRate > g.cfg.AttentionThreshold ||
		report.AverageBiasScore > highBiasScore
	report.Recommendations = buildRecommendations(typesSeen, report.RequiresAttention)

	g.logger.Info("bias report generated", map[string]interface{}{
		"jobId":             jobID,
		"periodDays":        periodDays,
		"totalCandidates":   report.TotalCandidates,
		"detectionRate":     report.BiasDetectionRate,
		"requiresAttention": report.RequiresAttention,
	})
	return report, nil
}

func (g *ReportGenerator) collectResumes(ctx context.Context, snapshot *models.RankingResult) (map[string]*models.ParsedResume, error) {
	resumes := make(map[string]*models.ParsedResume, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		resume, err := g.resumes.GetParsedResume(ctx, entry.CandidateID)
		if err != nil {
			// A resume purged since the snapshot is not an audit failure.
			if errors.CodeOf(err) == errors.ErrCodeResumeNotFound {
				continue
			}
			return nil, err
		}
		resumes[entry.CandidateID] = resume
	}
	return resumes, nil
}

// buildRecommendations emits one templated recommendation per detected bias
// type, in fixed order, plus the attention escalation when the rate crosses
// the threshold.
func buildRecommendations(typesSeen map[models.BiasType]bool, requiresAttention bool) []string {
	types := make([]string, 0, len(typesSeen))
	for biasType := range typesSeen {
		types = append(types, string(biasType))
	}
	sort.Strings(types)

	recommendations := make([]string, 0, len(types)+1)
	for _, biasType := range types {
		recommendations = append(recommendations, recommendationTemplates[models.BiasType(biasType)])
	}
	if requiresAttention {
		recommendations = append(recommendations, attentionRecommendation)
	}
	return recommendations
}
