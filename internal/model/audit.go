package model

import "time"

// Audit request types.
const (
	AuditRequestClinicalNote   = "clinical_note"
	AuditRequestSectionContent = "section_content"
)

// AuditEntry is one append-only row per generation attempt, success or
// failure. It never blocks or fails a user-facing request.
type AuditEntry struct {
	ID               string    `json:"id"`
	RequestType      string    `json:"request_type"`
	ModelUsed        string    `json:"model_used"`
	InputLength      int       `json:"input_length"`
	OutputLength     int       `json:"output_length"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	ConfidenceScore  float64   `json:"confidence_score"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
