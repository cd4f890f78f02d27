package risk

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-health/notegen/internal/completion"
)

// fakeProvider returns a canned result or error and records the request.
type fakeProvider struct {
	result *completion.Result
	err    error
	calls  []completion.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req completion.Request) (*completion.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func toolResult(t *testing.T, out toolOutput) *completion.Result {
	t.Helper()
	b, err := json.Marshal(out)
	require.NoError(t, err)
	return &completion.Result{JSON: b, FinishReason: completion.FinishStop}
}

func TestAssess_DisabledPathIsKeywordOnly(t *testing.T) {
	p := &fakeProvider{}
	a := NewAssessor(p, "test-model")

	res := a.Assess(context.Background(), "client wants to end my life", "", false)

	assert.Empty(t, p.calls, "disabled path must not call the provider")
	assert.Equal(t, ModeFallback, res.Mode)
	assert.Equal(t, []Category{CategorySuicidalIdeation}, res.Flags)
	assert.Equal(t, SeverityLow, res.Severity)
	assert.Empty(t, res.Rationale)
}

func TestAssess_DisabledPathNoFlags(t *testing.T) {
	a := NewAssessor(&fakeProvider{}, "test-model")

	res := a.Assess(context.Background(), "discussed sleep hygiene", "", false)
	assert.Empty(t, res.Flags)
	assert.Equal(t, SeverityNone, res.Severity)
}

func TestAssess_EnhancedSuccess(t *testing.T) {
	p := &fakeProvider{result: toolResult(t, toolOutput{
		Risks:     []string{"suicidal_ideation", "psychosis"},
		Severity:  "high",
		Rationale: "Explicit ideation with command hallucinations.",
	})}
	a := NewAssessor(p, "test-model")

	res := a.Assess(context.Background(), "input", "content", true)

	require.Len(t, p.calls, 1)
	require.NotNil(t, p.calls[0].Tool)
	assert.Equal(t, "assess_clinical_risks", p.calls[0].Tool.Name)
	assert.Equal(t, ModeEnhanced, res.Mode)
	assert.Equal(t, []Category{CategorySuicidalIdeation, CategoryPsychosis}, res.Flags)
	assert.Equal(t, SeverityHigh, res.Severity)
	assert.Equal(t, "Explicit ideation with command hallucinations.", res.Rationale)
}

func TestAssess_ProviderFailureFallsBack(t *testing.T) {
	p := &fakeProvider{err: &completion.ProviderError{Provider: "fake", StatusCode: 503, Body: "unavailable"}}
	a := NewAssessor(p, "test-model")

	res := a.Assess(context.Background(), "client wants to end my life", "", true)

	assert.Equal(t, ModeFallback, res.Mode)
	assert.Equal(t, []Category{CategorySuicidalIdeation}, res.Flags)
	assert.Equal(t, SeverityLow, res.Severity)
	assert.Equal(t, FallbackRationale, res.Rationale)
}

func TestAssess_ProviderFailureFallsBack_NoFlags(t *testing.T) {
	p := &fakeProvider{err: &completion.MalformedResponseError{Provider: "fake", Reason: "no tool call in response"}}
	a := NewAssessor(p, "test-model")

	res := a.Assess(context.Background(), "routine session content", "", true)

	assert.Equal(t, ModeFallback, res.Mode)
	assert.Empty(t, res.Flags)
	assert.Equal(t, SeverityNone, res.Severity)
	assert.Equal(t, FallbackRationale, res.Rationale)
}

func TestAssess_OutOfVocabularyDegrades(t *testing.T) {
	p := &fakeProvider{result: toolResult(t, toolOutput{
		Risks:     []string{"gambling"},
		Severity:  "high",
		Rationale: "x",
	})}
	a := NewAssessor(p, "test-model")

	res := a.Assess(context.Background(), "input", "content", true)
	assert.Equal(t, ModeFallback, res.Mode)
	assert.Equal(t, FallbackRationale, res.Rationale)
}

func TestAssess_UnknownSeverityDegrades(t *testing.T) {
	p := &fakeProvider{result: toolResult(t, toolOutput{
		Risks:     []string{"self_harm"},
		Severity:  "extreme",
		Rationale: "x",
	})}
	a := NewAssessor(p, "test-model")

	res := a.Assess(context.Background(), "cutting myself", "", true)
	assert.Equal(t, ModeFallback, res.Mode)
	assert.Equal(t, []Category{CategorySelfHarm}, res.Flags)
}

func TestAssessToolSchema_ClosedVocabularies(t *testing.T) {
	risks := assessToolSchema.Properties["risks"]
	require.NotNil(t, risks)
	assert.Len(t, risks.Items.Enum, 7)
	assert.Contains(t, risks.Items.Enum, "psychosis")
	assert.Contains(t, risks.Items.Enum, "manic_symptoms")

	sev := assessToolSchema.Properties["severity"]
	require.NotNil(t, sev)
	assert.Equal(t, []string{"none", "low", "medium", "high", "critical"}, sev.Enum)

	assert.ElementsMatch(t, []string{"risks", "severity", "rationale"}, assessToolSchema.Required)
}
