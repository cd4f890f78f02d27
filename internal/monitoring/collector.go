// Package monitoring derives operational metrics from the generation audit
// log and raises webhook alerts when failure or review rates climb.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/store"
)

// MetricsSnapshot holds a point-in-time view of generation health.
type MetricsSnapshot struct {
	// Generation metrics (within lookback window).
	GenerationTotal     int     `json:"generation_total"`
	GenerationSucceeded int     `json:"generation_succeeded"`
	GenerationFailed    int     `json:"generation_failed"`
	GenerationFailRate  float64 `json:"generation_fail_rate"`

	// Per-request-type counts.
	ClinicalNotes int `json:"clinical_notes"`
	Sections      int `json:"sections"`

	// Quality metrics over successful generations.
	AvgConfidence      float64 `json:"avg_confidence"`
	AvgProcessingMS    float64 `json:"avg_processing_ms"`
	AvgOutputLength    float64 `json:"avg_output_length"`
	LowConfidenceCount int     `json:"low_confidence_count"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// lowConfidenceCutoff counts successful generations that finished below a
// clean stop: anything under the stop-reason score indicates truncation or
// filtering.
const lowConfidenceCutoff = 0.85

// Collector gathers metrics from the audit log.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of generation metrics over the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	entries, err := c.store.ListAudit(ctx, store.AuditFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list audit entries")
	}

	snap.GenerationTotal = len(entries)
	var totalConfidence, totalProcessing, totalOutput float64
	var succeeded int

	for _, e := range entries {
		switch e.RequestType {
		case model.AuditRequestClinicalNote:
			snap.ClinicalNotes++
		case model.AuditRequestSectionContent:
			snap.Sections++
		}

		if !e.Success {
			snap.GenerationFailed++
			continue
		}
		succeeded++
		totalConfidence += e.ConfidenceScore
		totalProcessing += float64(e.ProcessingTimeMS)
		totalOutput += float64(e.OutputLength)
		if e.ConfidenceScore < lowConfidenceCutoff {
			snap.LowConfidenceCount++
		}
	}

	snap.GenerationSucceeded = succeeded
	if snap.GenerationTotal > 0 {
		snap.GenerationFailRate = float64(snap.GenerationFailed) / float64(snap.GenerationTotal)
	}
	if succeeded > 0 {
		snap.AvgConfidence = totalConfidence / float64(succeeded)
		snap.AvgProcessingMS = totalProcessing / float64(succeeded)
		snap.AvgOutputLength = totalOutput / float64(succeeded)
	}

	return snap, nil
}
