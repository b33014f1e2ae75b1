// internal/bias/detectors.go

// Package bias audits ranking results for demographic skew. Detectors only
// assign candidates to proxy groups; the statistical comparison across groups
// lives in the auditor.
package bias

import (
	"strings"

	"talentrank-workers/internal/models"
)

// Proxy-group labels. They feed group statistics, never individual judgments.
const (
	groupUnknown = "unknown"
	groupFemale  = "female"
	groupMale    = "male"

	groupPrestigious    = "prestigious"
	groupNonPrestigious = "other"

	groupMetro    = "metro"
	groupNonMetro = "other"
)

// First-name dictionaries for the gender proxy. Deliberately small and
// high-precision: an unknown name abstains rather than guesses.
var femaleFirstNames = map[string]bool{
	"mary": true, "patricia": true, "jennifer": true, "linda": true,
	"elizabeth": true, "susan": true, "jessica": true, "sarah": true,
	"karen": true, "lisa": true, "nancy": true, "emily": true,
	"anna": true, "maria": true, "priya": true, "fatima": true,
	"olga": true, "mei": true, "aisha": true, "sofia": true,
	"emma": true, "laura": true, "julia": true, "grace": true,
}

var maleFirstNames = map[string]bool{
	"james": true, "john": true, "robert": true, "michael": true,
	"william": true, "david": true, "richard": true, "joseph": true,
	"thomas": true, "daniel": true, "carlos": true, "ahmed": true,
	"ivan": true, "mohammed": true, "juan": true, "luis": true,
	"raj": true, "omar": true, "andrei": true, "wei": true,
	"peter": true, "mark": true, "paul": true, "victor": true,
}

// Surname groups for the name-origin proxy. Whole surnames match exactly;
// suffixes catch morphological families. Candidates that match nothing fall
// into a shared reference group.
var surnameExactGroups = map[string][]string{
	"south_asian": {"singh", "patel", "kumar", "sharma", "gupta"},
	"east_asian":  {"nguyen", "tran", "kim", "park", "wang", "chen", "li", "zhang"},
}

var surnameSuffixGroups = map[string][]string{
	"hispanic": {"ez"},
	"slavic":   {"ov", "ova", "ev", "eva", "ski", "sky"},
}

var prestigiousInstitutions = []string{
	"harvard", "stanford", "mit", "massachusetts institute",
	"princeton", "yale", "oxford", "cambridge", "caltech",
	"berkeley", "columbia", "eth zurich", "carnegie mellon",
}

var metroIndicators = []string{
	"new york", "san francisco", "london", "berlin", "bangalore",
	"toronto", "singapore", "seattle", "austin", "boston",
	"amsterdam", "paris", "tokyo", "sydney", "chicago", "los angeles",
}

// genderGroup infers a gender proxy from the first name, or abstains.
func genderGroup(fullName string) string {
	first := firstToken(fullName)
	if femaleFirstNames[first] {
		return groupFemale
	}
	if maleFirstNames[first] {
		return groupMale
	}
	return groupUnknown
}

// nameOriginGroup buckets candidates by surname suffix. The reference group
// is every candidate without a recognized suffix.
func nameOriginGroup(fullName string) string {
	last := lastToken(fullName)
	if last == "" {
		return groupUnknown
	}
	for group, names := range surnameExactGroups {
		for _, name := range names {
			if last == name {
				return group
			}
		}
	}
	for group, suffixes := range surnameSuffixGroups {
		for _, suffix := range suffixes {
			if strings.HasSuffix(last, suffix) {
				return group
			}
		}
	}
	return "reference"
}

// educationGroup splits candidates by whether any degree comes from a
// high-prestige institution.
func educationGroup(resume *models.ParsedResume) string {
	for _, record := range resume.Education {
		institution := strings.ToLower(record.Institution)
		for _, name := range prestigiousInstitutions {
			if strings.Contains(institution, name) {
				return groupPrestigious
			}
		}
	}
	if len(resume.Education) == 0 {
		return groupUnknown
	}
	return groupNonPrestigious
}

// geographyGroup splits candidates by major-metro vs elsewhere. Empty
// locations abstain.
func geographyGroup(location string) string {
	if strings.TrimSpace(location) == "" {
		return groupUnknown
	}
	loc := strings.ToLower(location)
	for _, metro := range metroIndicators {
		if strings.Contains(loc, metro) {
			return groupMetro
		}
	}
	return groupNonMetro
}

func firstToken(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func lastToken(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) < 2 {
		return ""
	}
	return fields[len(fields)-1]
}
