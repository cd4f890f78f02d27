package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ridgeline-health/notegen/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertGenerationFailureRate AlertType = "generation_failure_rate"
	AlertLowConfidenceRate     AlertType = "low_confidence_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// minSampleSize suppresses rate alerts on tiny windows where one failure
// dominates the percentage.
const minSampleSize = 5

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.GenerationTotal >= minSampleSize && snap.GenerationFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertGenerationFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Generation failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d total in last %dh)",
				snap.GenerationFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.GenerationFailed, snap.GenerationTotal, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.GenerationFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.GenerationFailed,
				"total":        snap.GenerationTotal,
			},
			Timestamp: now,
		})
	}

	if a.cfg.LowConfidenceRateThreshold > 0 && snap.GenerationSucceeded >= minSampleSize {
		rate := float64(snap.LowConfidenceCount) / float64(snap.GenerationSucceeded)
		if rate > a.cfg.LowConfidenceRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertLowConfidenceRate,
				Severity: "medium",
				Message: fmt.Sprintf(
					"%.1f%% of generations finished below a clean stop in last %dh (threshold %.1f%%)",
					rate*100, snap.LookbackHours, a.cfg.LowConfidenceRateThreshold*100,
				),
				Details: map[string]any{
					"low_confidence_rate":  rate,
					"threshold":            a.cfg.LowConfidenceRateThreshold,
					"low_confidence_count": snap.LowConfidenceCount,
					"succeeded":            snap.GenerationSucceeded,
				},
				Timestamp: now,
			})
		}
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
