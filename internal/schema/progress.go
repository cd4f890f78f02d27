package schema

// ProgressNote returns the structured-output schema for a full SOAP
// progress note. All four sections are required and closed.
func ProgressNote() *Node {
	return progressNoteSchema
}

var progressNoteSchema = object(map[string]*Node{
	"subjective": object(map[string]*Node{
		"presentingConcerns": str("Concerns the client raised this session"),
		"moodReport":         str("Client-reported mood since last session"),
		"recentEvents":       str("Relevant events since last session"),
		"symptomsReported":   strList("Symptoms the client reported"),
	}, "presentingConcerns"),
	"objective": object(map[string]*Node{
		"appearance":   str("Observed appearance and presentation"),
		"behavior":     str("Observed behavior during session"),
		"affect":       strEnum("Observed affective range", AffectRange...),
		"speech":       str("Observed speech characteristics"),
		"mentalStatus": str("Brief mental status summary"),
	}, "appearance", "behavior", "affect"),
	"assessment": object(map[string]*Node{
		"clinicalImpression": str("Clinician's assessment of current functioning"),
		"progress":           str("Progress toward treatment goals"),
		"riskLevel":          strEnum("Current clinical risk level", RiskLevels...),
	}, "clinicalImpression", "riskLevel"),
	"plan": object(map[string]*Node{
		"interventions":   strList("Interventions used or planned"),
		"homework":        str("Between-session assignments"),
		"nextSteps":       str("Plan for upcoming sessions"),
		"nextAppointment": str("Next scheduled appointment"),
	}, "interventions"),
}, "subjective", "objective", "assessment", "plan")
