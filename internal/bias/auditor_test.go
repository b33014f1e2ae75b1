// internal/bias/auditor_test.go

package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

func testBiasConfig() config.BiasConfig {
	return config.BiasConfig{
		MinSampleSize:       5,
		ConfidenceThreshold: 0.05,
		AttentionThreshold:  0.15,
		ReportWindows:       []int{7, 30, 90},
	}
}

type rankedCandidate struct {
	id       string
	fullName string
	location string
	degree   string
	school   string
	value    float64
	keyword  float64
}

// buildPool turns fixtures into a ranking result (ordered as given, positions
// assigned) plus the matching resume map.
func buildPool(candidates []rankedCandidate) (*models.RankingResult, map[string]*models.ParsedResume) {
	result := &models.RankingResult{JobID: "job-1"}
	resumes := map[string]*models.ParsedResume{}
	for i, c := range candidates {
		components := []models.ComponentScore{{
			ProviderID: models.ProviderKeyword,
			Value:      c.keyword,
			Coverage:   1,
		}}
		result.Entries = append(result.Entries, models.RankedEntry{
			CandidateID: c.id,
			Position:    i + 1,
			Score: models.CompositeScore{
				CandidateID: c.id,
				JobID:       "job-1",
				Value:       c.value,
				Components:  components,
			},
		})
		resume := &models.ParsedResume{
			CandidateID: c.id,
			FullName:    c.fullName,
			Location:    c.location,
		}
		if c.degree != "" {
			resume.Education = []models.EducationRecord{{Degree: c.degree, Institution: c.school}}
		}
		resumes[c.id] = resume
	}
	return result, resumes
}

func TestAuditor_AbstainsBelowMinSample(t *testing.T) {
	auditor := NewAuditor(testBiasConfig(), logger.NewTestLogger(t))
	result, resumes := buildPool([]rankedCandidate{
		{id: "c1", fullName: "John Smith", value: 80, keyword: 70},
		{id: "c2", fullName: "Mary Brown", value: 75, keyword: 65},
	})

	_, err := auditor.Audit(result, resumes)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientSample(err))
}

func TestAuditor_FlagsGenderPositionSkew(t *testing.T) {
	auditor := NewAuditor(testBiasConfig(), logger.NewTestLogger(t))
	// Every recognizably male name ranks above every female name.
	result, resumes := buildPool([]rankedCandidate{
		{id: "c1", fullName: "John Smith", value: 90, keyword: 80},
		{id: "c2", fullName: "David Miller", value: 85, keyword: 75},
		{id: "c3", fullName: "Michael Wilson", value: 80, keyword: 70},
		{id: "c4", fullName: "Mary Brown", value: 60, keyword: 72},
		{id: "c5", fullName: "Sarah Taylor", value: 55, keyword: 68},
		{id: "c6", fullName: "Emily Clark", value: 50, keyword: 66},
	})

	indicators, err := auditor.Audit(result, resumes)
	require.NoError(t, err)

	flagged := indicatorsOfType(indicators, models.BiasGender)
	require.Len(t, flagged, 3, "every member of the disadvantaged group is flagged")
	flaggedIDs := map[string]bool{}
	for _, ind := range flagged {
		flaggedIDs[ind.CandidateID] = true
		assert.Greater(t, ind.Confidence, 0.0)
		assert.LessOrEqual(t, ind.Confidence, 1.0)
		assert.Equal(t, "female", ind.Evidence["group"])
	}
	assert.True(t, flaggedIDs["c4"] && flaggedIDs["c5"] && flaggedIDs["c6"])
}

func TestAuditor_BalancedPoolIsClean(t *testing.T) {
	auditor := NewAuditor(testBiasConfig(), logger.NewTestLogger(t))
	// Genders alternate through the order; scores track keyword match.
	result, resumes := buildPool([]rankedCandidate{
		{id: "c1", fullName: "Mary Brown", value: 90, keyword: 90},
		{id: "c2", fullName: "John Smith", value: 85, keyword: 85},
		{id: "c3", fullName: "Sarah Taylor", value: 80, keyword: 80},
		{id: "c4", fullName: "David Miller", value: 75, keyword: 75},
		{id: "c5", fullName: "Emily Clark", value: 70, keyword: 70},
		{id: "c6", fullName: "Michael Wilson", value: 65, keyword: 65},
	})

	indicators, err := auditor.Audit(result, resumes)
	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestAuditor_FlagsGeographyScoreGap(t *testing.T) {
	auditor := NewAuditor(testBiasConfig(), logger.NewTestLogger(t))
	// Interleaved positions so position detectors stay quiet, but metro
	// candidates consistently outscore the rest.
	result, resumes := buildPool([]rankedCandidate{
		{id: "c1", fullName: "A One", location: "New York, NY", value: 90, keyword: 70},
		{id: "c2", fullName: "B Two", location: "Boise, Idaho", value: 68, keyword: 70},
		{id: "c3", fullName: "C Three", location: "San Francisco, CA", value: 88, keyword: 70},
		{id: "c4", fullName: "D Four", location: "Wichita, Kansas", value: 66, keyword: 70},
		{id: "c5", fullName: "E Five", location: "Boston, MA", value: 86, keyword: 70},
		{id: "c6", fullName: "F Six", location: "Topeka, Kansas", value: 64, keyword: 70},
	})

	indicators, err := auditor.Audit(result, resumes)
	require.NoError(t, err)

	flagged := indicatorsOfType(indicators, models.BiasGeography)
	require.Len(t, flagged, 3)
	for _, ind := range flagged {
		assert.Contains(t, []string{"c2", "c4", "c6"}, ind.CandidateID)
		assert.Equal(t, "other", ind.Evidence["group"])
	}
}

func TestAuditor_EducationGapNeedsDisproportion(t *testing.T) {
	auditor := NewAuditor(testBiasConfig(), logger.NewTestLogger(t))

	t.Run("prestige gap unexplained by skills is flagged", func(t *testing.T) {
		result, resumes := buildPool([]rankedCandidate{
			{id: "c1", fullName: "A One", degree: "BSc", school: "Stanford University", value: 90, keyword: 60},
			{id: "c2", fullName: "B Two", degree: "BSc", school: "MIT", value: 88, keyword: 60},
			{id: "c3", fullName: "C Three", degree: "BSc", school: "Harvard", value: 86, keyword: 60},
			{id: "c4", fullName: "D Four", degree: "BSc", school: "State College", value: 62, keyword: 60},
			{id: "c5", fullName: "E Five", degree: "BSc", school: "City University", value: 60, keyword: 60},
			{id: "c6", fullName: "F Six", degree: "BSc", school: "Community College", value: 58, keyword: 60},
		})

		indicators, err := auditor.Audit(result, resumes)
		require.NoError(t, err)
		assert.NotEmpty(t, indicatorsOfType(indicators, models.BiasEducation))
	})

	t.Run("gap explained by keyword match is not flagged", func(t *testing.T) {
		result, resumes := buildPool([]rankedCandidate{
			{id: "c1", fullName: "A One", degree: "BSc", school: "Stanford University", value: 90, keyword: 90},
			{id: "c2", fullName: "B Two", degree: "BSc", school: "MIT", value: 88, keyword: 88},
			{id: "c3", fullName: "C Three", degree: "BSc", school: "Harvard", value: 86, keyword: 86},
			{id: "c4", fullName: "D Four", degree: "BSc", school: "State College", value: 62, keyword: 62},
			{id: "c5", fullName: "E Five", degree: "BSc", school: "City University", value: 60, keyword: 60},
			{id: "c6", fullName: "F Six", degree: "BSc", school: "Community College", value: 58, keyword: 58},
		})

		indicators, err := auditor.Audit(result, resumes)
		require.NoError(t, err)
		assert.Empty(t, indicatorsOfType(indicators, models.BiasEducation))
	})
}

func TestAuditor_SingleGroupAbstains(t *testing.T) {
	auditor := NewAuditor(testBiasConfig(), logger.NewTestLogger(t))
	// All candidates share one recognizable gender and location class.
	result, resumes := buildPool([]rankedCandidate{
		{id: "c1", fullName: "John Smith", location: "London", value: 90, keyword: 80},
		{id: "c2", fullName: "David Miller", location: "London", value: 80, keyword: 70},
		{id: "c3", fullName: "Michael Wilson", location: "London", value: 70, keyword: 60},
		{id: "c4", fullName: "Thomas Hardy", location: "London", value: 60, keyword: 50},
		{id: "c5", fullName: "Daniel Defoe", location: "London", value: 50, keyword: 40},
	})

	indicators, err := auditor.Audit(result, resumes)
	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestDetectors_Grouping(t *testing.T) {
	assert.Equal(t, "female", genderGroup("Mary Shelley"))
	assert.Equal(t, "male", genderGroup("john smith"))
	assert.Equal(t, "unknown", genderGroup("Xzqy Unpronounceable"))

	assert.Equal(t, "hispanic", nameOriginGroup("Ana Rodriguez"))
	assert.Equal(t, "slavic", nameOriginGroup("Dmitri Ivanov"))
	assert.Equal(t, "south_asian", nameOriginGroup("Arjun Patel"))
	assert.Equal(t, "east_asian", nameOriginGroup("Linh Nguyen"))
	assert.Equal(t, "reference", nameOriginGroup("John Smith"))
	assert.Equal(t, "unknown", nameOriginGroup("Prince"))

	assert.Equal(t, "metro", geographyGroup("Brooklyn, New York"))
	assert.Equal(t, "other", geographyGroup("Boise, Idaho"))
	assert.Equal(t, "unknown", geographyGroup("  "))
}

func indicatorsOfType(indicators []models.BiasIndicator, biasType models.BiasType) []models.BiasIndicator {
	var out []models.BiasIndicator
	for _, ind := range indicators {
		if ind.BiasType == biasType {
			out = append(out, ind)
		}
	}
	return out
}
