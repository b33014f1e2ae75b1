// internal/scoring/features.go

package scoring

import (
	"strings"

	"talentrank-workers/internal/models"
)

// Ordinal encoding of the highest degree on a resume.
const (
	eduNone      = 0.0
	eduDiploma   = 1.0
	eduBachelor  = 2.0
	eduMaster    = 3.0
	eduDoctorate = 4.0
)

const numFeatures = 5

// ExtractFeatures builds the canonical feature vector for a resume-job pair:
// [skillsCount, yearsExperience, educationLevel, keywordScore, relevanceScore].
// The second return is the fraction of feature slots actually populated by the
// resume, which becomes the trained-model provider's coverage.
func ExtractFeatures(resume *models.ParsedResume, job *models.JobRequirements, keywordValue float64) ([]float64, float64) {
	skillsCount := float64(len(resume.Skills))
	years := resume.YearsExperience
	education := educationOrdinal(resume.Education)

	// Crude overall-relevance proxy carried over from the heuristic scorer
	// that produced the historical training outcomes.
	relevance := skillsCount*5 + years*10
	if relevance > 100 {
		relevance = 100
	}

	populated := 2 // keyword and relevance are always derivable
	if skillsCount > 0 {
		populated++
	}
	if years > 0 {
		populated++
	}
	if education > eduNone {
		populated++
	}

	features := []float64{skillsCount, years, education, keywordValue, relevance}
	return features, float64(populated) / numFeatures
}

func educationOrdinal(records []models.EducationRecord) float64 {
	best := eduNone
	for _, rec := range records {
		level := eduNone
		degree := strings.ToLower(rec.Degree)
		switch {
		case strings.Contains(degree, "phd"), strings.Contains(degree, "doctor"):
			level = eduDoctorate
		case strings.Contains(degree, "master"), strings.Contains(degree, "mba"),
			strings.Contains(degree, "msc"), strings.Contains(degree, "m.s"):
			level = eduMaster
		case strings.Contains(degree, "bachelor"), strings.Contains(degree, "bsc"),
			strings.Contains(degree, "b.s"), strings.Contains(degree, "b.e"):
			level = eduBachelor
		case strings.Contains(degree, "diploma"), strings.Contains(degree, "associate"):
			level = eduDiploma
		}
		if level > best {
			best = level
		}
	}
	return best
}
