// internal/models/resume.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Skill is a single extracted skill with optional parser confidence.
type Skill struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence,omitempty"` // [0,1], 0 means unknown
}

// EducationRecord is one degree as extracted by the resume parser.
type EducationRecord struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// ParsedResume is the structured output of the external resume parser.
// Immutable once produced; a re-upload supersedes it with a new record, so the
// fingerprint of a given record never changes.
type ParsedResume struct {
	CandidateID     string            `json:"candidateId"`
	FullName        string            `json:"fullName,omitempty"`
	Email           string            `json:"email,omitempty"`
	Location        string            `json:"location,omitempty"`
	Skills          []Skill           `json:"skills"`
	YearsExperience float64           `json:"yearsExperience"`
	Education       []EducationRecord `json:"education,omitempty"`
	Sections        map[string]string `json:"sections,omitempty"` // free-text sections by heading
	Language        string            `json:"language,omitempty"`
	ParsedAt        time.Time         `json:"parsedAt"`
}

// Fingerprint returns a content hash of the resume, used as a cache key
// component. Any field change yields a new fingerprint.
func (r *ParsedResume) Fingerprint() string {
	data, _ := json.Marshal(r)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// SkillNames returns the extracted skill names in document order.
func (r *ParsedResume) SkillNames() []string {
	names := make([]string, 0, len(r.Skills))
	for _, s := range r.Skills {
		names = append(names, s.Name)
	}
	return names
}
