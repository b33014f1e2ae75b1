// internal/models/job.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ExperienceLevel buckets a posting's seniority expectation.
type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// WeightedSkill is a required skill with its relative weight.
type WeightedSkill struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// JobRequirements is the scoring-relevant view of a job posting. Versioned
// implicitly by UpdatedAt: any edit changes the fingerprint.
type JobRequirements struct {
	JobID           string          `json:"jobId"`
	Title           string          `json:"title"`
	RequiredSkills  []WeightedSkill `json:"requiredSkills"`
	PreferredSkills []string        `json:"preferredSkills,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel,omitempty"`
	Description     string          `json:"description,omitempty"`
	Location        string          `json:"location,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Fingerprint returns a content hash of the job record for cache keying.
func (j *JobRequirements) Fingerprint() string {
	data, _ := json.Marshal(j)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// RequiredSkillNames returns just the names of the required skills.
func (j *JobRequirements) RequiredSkillNames() []string {
	names := make([]string, 0, len(j.RequiredSkills))
	for _, s := range j.RequiredSkills {
		names = append(names, s.Name)
	}
	return names
}

// Applicant links a candidate to a job with the application timestamp used
// for deterministic tie-breaking.
type Applicant struct {
	CandidateID string    `json:"candidateId"`
	AppliedAt   time.Time `json:"appliedAt"`
}
