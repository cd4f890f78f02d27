package schema

import "fmt"

// SectionType identifies one intake-assistant section.
type SectionType string

const (
	SectionPresenting      SectionType = "presenting"
	SectionMSE             SectionType = "mse"
	SectionSafety          SectionType = "safety"
	SectionTreatment       SectionType = "treatment"
	SectionCurrentSymptoms SectionType = "current_symptoms"
	SectionHistory         SectionType = "history"
	SectionDiagnosis       SectionType = "diagnosis"
)

// SectionTypes lists every supported intake section, in document order.
var SectionTypes = []SectionType{
	SectionPresenting,
	SectionMSE,
	SectionSafety,
	SectionTreatment,
	SectionCurrentSymptoms,
	SectionHistory,
	SectionDiagnosis,
}

// UnsupportedSectionError reports a sectionType outside the fixed set.
type UnsupportedSectionError struct {
	Section string
}

func (e *UnsupportedSectionError) Error() string {
	return fmt.Sprintf("unsupported section type: %q", e.Section)
}

// Clinical vocabularies shared between sections. Downstream consumers
// render these values verbatim; do not reorder or reword.
var (
	AffectRange    = []string{"Full", "Restricted", "Blunted", "Flat"}
	RiskLevels     = []string{"Low", "Moderate", "High", "Imminent"}
	SeverityRange  = []string{"Mild", "Moderate", "Severe"}
	MoodCongruence = []string{"Congruent", "Incongruent"}
)

// ForSection returns the structured-output schema for one intake section.
func ForSection(section SectionType) (*Node, error) {
	switch section {
	case SectionPresenting:
		return presentingSchema, nil
	case SectionMSE:
		return mseSchema, nil
	case SectionSafety:
		return safetySchema, nil
	case SectionTreatment:
		return treatmentSchema, nil
	case SectionCurrentSymptoms:
		return currentSymptomsSchema, nil
	case SectionHistory:
		return historySchema, nil
	case SectionDiagnosis:
		return diagnosisSchema, nil
	default:
		return nil, &UnsupportedSectionError{Section: string(section)}
	}
}

var presentingSchema = object(map[string]*Node{
	"chiefComplaint":             str("Primary concern in the client's own words"),
	"historyOfPresentingProblem": str("Narrative history of the presenting problem"),
	"onset":                      str("When the problem began"),
	"duration":                   str("How long the problem has persisted"),
	"severity":                   strEnum("Clinical severity of the presenting problem", SeverityRange...),
	"precipitatingFactors":       str("Events or stressors that triggered or worsened the problem"),
}, "chiefComplaint")

var mseSchema = object(map[string]*Node{
	"appearance":       str("Grooming, dress, apparent age"),
	"behavior":         str("Psychomotor activity, eye contact, cooperation"),
	"speech":           str("Rate, volume, fluency"),
	"mood":             str("Client-reported mood"),
	"affect":           strEnum("Observed affective range", AffectRange...),
	"affectCongruence": strEnum("Congruence of affect with stated mood", MoodCongruence...),
	"thoughtProcess":   str("Organization and flow of thought"),
	"thoughtContent":   str("Notable themes, preoccupations, delusions"),
	"perception":       str("Hallucinations or perceptual disturbances"),
	"cognition":        str("Orientation, attention, memory"),
	"insight":          str("Awareness of illness and its implications"),
	"judgment":         str("Decision-making capacity"),
}, "appearance", "behavior", "speech", "mood", "affect")

var safetySchema = object(map[string]*Node{
	"riskLevel":         strEnum("Overall clinical risk level", RiskLevels...),
	"suicidalIdeation":  str("Presence, frequency, plan, intent"),
	"homicidalIdeation": str("Presence, target, plan, intent"),
	"selfHarmHistory":   str("Past and current self-harm behavior"),
	"protectiveFactors": str("Supports, reasons for living, coping skills"),
	"safetyPlan":        str("Agreed safety plan and crisis resources"),
}, "riskLevel")

var treatmentSchema = object(map[string]*Node{
	"goals":             strList("Long-term treatment goals"),
	"objectives":        strList("Short-term measurable objectives"),
	"interventions":     strList("Planned therapeutic interventions and modalities"),
	"frequency":         str("Planned session frequency"),
	"estimatedDuration": str("Expected duration of treatment"),
}, "goals")

// currentSymptomsSchema is intentionally open: symptom keys vary per client
// (e.g. "anxiety", "sleep_disturbance") and each maps to a free-text
// description of frequency and severity.
var currentSymptomsSchema = openObject(map[string]*Node{
	"summary": str("One-paragraph summary of the current symptom picture"),
})

var historySchema = object(map[string]*Node{
	"psychiatricHistory":   str("Prior diagnoses, treatment, hospitalizations"),
	"medicalHistory":       str("Relevant medical conditions and medications"),
	"familyHistory":        str("Family psychiatric and medical history"),
	"socialHistory":        str("Relationships, living situation, employment, education"),
	"substanceUseHistory":  str("Past and current substance use"),
	"developmentalHistory": str("Developmental milestones and childhood history"),
})

var diagnosisSchema = object(map[string]*Node{
	"primaryDiagnosis":      str("Primary DSM-5 diagnosis"),
	"icdCode":               str("ICD-10 code for the primary diagnosis"),
	"secondaryDiagnoses":    strList("Additional diagnoses"),
	"ruleOuts":              strList("Diagnoses to rule out"),
	"clinicalJustification": str("Evidence supporting the diagnostic impression"),
}, "primaryDiagnosis")
