package model

import "time"

// AISettings is the live-editable configuration row read fresh on every
// generation request. Administrators toggle it without a redeploy.
type AISettings struct {
	ID                         string    `json:"id"`
	Enabled                    bool      `json:"enabled"`
	Provider                   string    `json:"provider"`
	Model                      string    `json:"model"`
	MinimumConfidenceThreshold float64   `json:"minimum_confidence_threshold"`
	RiskAssessmentEnabled      bool      `json:"risk_assessment_enabled"`
	UpdatedAt                  time.Time `json:"updated_at"`
}
