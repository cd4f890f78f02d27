package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridgeline-health/notegen/internal/config"
	"github.com/ridgeline-health/notegen/internal/model"
)

func failingEntries(n int) []model.AuditEntry {
	now := time.Now().UTC()
	entries := make([]model.AuditEntry, n)
	for i := range entries {
		entries[i] = model.AuditEntry{
			RequestType: model.AuditRequestClinicalNote,
			Success:     false,
			Error:       "openai: completion request failed with status 502",
			CreatedAt:   now.Add(-time.Hour),
		}
	}
	return entries
}

func TestChecker_FirstCheckFiresImmediately(t *testing.T) {
	hit := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.MonitoringConfig{
		WebhookURL: srv.URL,
		// One hour between ticks: only the startup check can reach the
		// webhook within this test.
		CheckIntervalSecs:    3600,
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.10,
	}
	st := &mockStore{entries: failingEntries(6)}
	checker := NewChecker(NewCollector(st), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	select {
	case <-hit:
	case <-time.After(5 * time.Second):
		t.Fatal("startup check never reached the webhook")
	}

	cancel()
	<-done
}

func TestChecker_QuietWindowSkipsWebhook(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.MonitoringConfig{
		WebhookURL:           srv.URL,
		CheckIntervalSecs:    3600,
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.10,
	}
	checker := NewChecker(NewCollector(&mockStore{}), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, hits.Load())
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{
		CheckIntervalSecs:   1,
		LookbackWindowHours: 24,
	}
	checker := NewChecker(NewCollector(&mockStore{}), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultsApplied(t *testing.T) {
	checker := NewChecker(NewCollector(&mockStore{}), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})

	assert.Equal(t, 5*time.Minute, checker.interval)
	assert.Equal(t, 24, checker.lookback)
}
