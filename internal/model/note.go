package model

import "encoding/json"

// NoteType identifies the kind of clinical document being generated.
type NoteType string

const (
	NoteTypeClinical NoteType = "clinical_note"
	NoteTypeIntake   NoteType = "intake_assessment"
)

// GenerationRequest is the inbound payload for a full clinical note.
// Exactly one of SessionTranscript / FreeTextInput is expected; when both
// are present the transcript wins.
type GenerationRequest struct {
	SessionTranscript string `json:"sessionTranscript,omitempty"`
	FreeTextInput     string `json:"freeTextInput,omitempty"`
	NoteType          string `json:"noteType"`
	NoteFormat        string `json:"noteFormat"`
	ClientID          string `json:"clientId"`
	AppointmentID     string `json:"appointmentId,omitempty"`
	SessionID         string `json:"sessionId,omitempty"`
}

// SourceText returns the preferred input text: the session transcript when
// present, otherwise the free-text input. Empty string means no source.
func (r GenerationRequest) SourceText() string {
	if r.SessionTranscript != "" {
		return r.SessionTranscript
	}
	return r.FreeTextInput
}

// SectionRequest is the inbound payload for a single intake section.
type SectionRequest struct {
	SectionType  string         `json:"sectionType"`
	Context      string         `json:"context"`
	ClientID     string         `json:"clientId,omitempty"`
	ExistingData map[string]any `json:"existingData,omitempty"`
}

// ConfidenceMetadata is attached to every successful generation response.
type ConfidenceMetadata struct {
	AIGenerated        bool    `json:"ai_generated"`
	AIModelUsed        string  `json:"ai_model_used"`
	AIConfidenceScore  float64 `json:"ai_confidence_score"`
	AIProcessingTimeMS int64   `json:"ai_processing_time_ms"`
	RequiresReview     bool    `json:"requires_review"`
}

// GeneratedNote is the response body for /generate-clinical-note.
type GeneratedNote struct {
	Success       bool               `json:"success"`
	Content       json.RawMessage    `json:"content"`
	RiskFlags     []string           `json:"riskFlags"`
	RiskSeverity  string             `json:"riskSeverity"`
	RiskRationale string             `json:"riskRationale"`
	Metadata      ConfidenceMetadata `json:"metadata"`
}

// GeneratedSection is the response body for /generate-section-content.
type GeneratedSection struct {
	Content json.RawMessage `json:"content"`
}
