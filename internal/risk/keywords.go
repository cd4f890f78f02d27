// Package risk detects safety concerns in session input and generated note
// content. Two strategies exist: a deterministic keyword scan and an
// LLM tool-call classifier that silently degrades to the scan on any
// provider failure.
package risk

import "strings"

// Category is one detectable risk category.
type Category string

// Keyword-detectable categories. The enhanced assessor may additionally
// report CategoryPsychosis and CategoryManicSymptoms.
const (
	CategorySuicidalIdeation  Category = "suicidal_ideation"
	CategoryHomicidalIdeation Category = "homicidal_ideation"
	CategorySelfHarm          Category = "self_harm"
	CategorySubstanceAbuse    Category = "substance_abuse"
	CategoryAbuseDisclosure   Category = "abuse_disclosure"
	CategoryPsychosis         Category = "psychosis"
	CategoryManicSymptoms     Category = "manic_symptoms"
)

// Severity is the ordered risk severity scale.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EnhancedCategories is the closed vocabulary the tool-call classifier is
// constrained to. It is a strict superset of the keyword table's categories.
var EnhancedCategories = []Category{
	CategorySuicidalIdeation,
	CategoryHomicidalIdeation,
	CategorySelfHarm,
	CategorySubstanceAbuse,
	CategoryAbuseDisclosure,
	CategoryPsychosis,
	CategoryManicSymptoms,
}

// SeverityScale lists severities from least to most severe.
var SeverityScale = []Severity{SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// keywordEntry pairs a category with its trigger phrases. Held as an
// ordered slice, not a map, so scan output is deterministic.
type keywordEntry struct {
	Category Category
	Phrases  []string
}

var keywordTable = []keywordEntry{
	{CategorySuicidalIdeation, []string{
		"suicid", "want to die", "end my life", "kill myself",
		"better off dead", "no reason to live", "ending it all",
	}},
	{CategoryHomicidalIdeation, []string{
		"homicid", "kill him", "kill her", "kill them",
		"hurt someone", "make them pay",
	}},
	{CategorySelfHarm, []string{
		"self-harm", "self harm", "cutting myself", "cut myself",
		"burning myself", "hurting myself",
	}},
	{CategorySubstanceAbuse, []string{
		"relapse", "drinking heavily", "overdose", "using again",
		"blackout", "can't stop drinking",
	}},
	{CategoryAbuseDisclosure, []string{
		"abuse", "hit me", "molested", "assaulted", "domestic violence",
	}},
}

// Scan runs the deterministic keyword fallback over the concatenated
// generated content and raw input. Matching is lowercase substring
// membership; identical input always yields an identical flag set, always
// a subset of the five keyword categories.
func Scan(content, inputText string) []Category {
	haystack := strings.ToLower(content + " " + inputText)

	var flags []Category
	for _, entry := range keywordTable {
		for _, phrase := range entry.Phrases {
			if strings.Contains(haystack, phrase) {
				flags = append(flags, entry.Category)
				break
			}
		}
	}
	return flags
}

// fallbackSeverity maps a keyword flag set to its default severity.
func fallbackSeverity(flags []Category) Severity {
	if len(flags) > 0 {
		return SeverityLow
	}
	return SeverityNone
}
