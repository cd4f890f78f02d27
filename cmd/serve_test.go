package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-health/notegen/internal/completion"
	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/note"
)

// stubGenerator returns canned pipeline results for handler tests.
type stubGenerator struct {
	note       *model.GeneratedNote
	noteErr    error
	section    *model.GeneratedSection
	sectionErr error
}

func (s *stubGenerator) GenerateNote(context.Context, model.GenerationRequest) (*model.GeneratedNote, error) {
	return s.note, s.noteErr
}

func (s *stubGenerator) GenerateSection(context.Context, model.SectionRequest) (*model.GeneratedSection, error) {
	return s.section, s.sectionErr
}

func doPost(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthEndpoint(t *testing.T) {
	router := newRouter(&stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerateNote_Success(t *testing.T) {
	router := newRouter(&stubGenerator{note: &model.GeneratedNote{
		Success:      true,
		Content:      json.RawMessage(`{"subjective":{"presentingConcerns":"stress"}}`),
		RiskFlags:    []string{},
		RiskSeverity: "none",
		Metadata: model.ConfidenceMetadata{
			AIGenerated:       true,
			AIModelUsed:       "gpt-5",
			AIConfidenceScore: 0.85,
		},
	}})

	rec := doPost(t, router, "/generate-clinical-note", model.GenerationRequest{
		FreeTextInput: "session text",
		NoteType:      "clinical_note",
		NoteFormat:    "SOAP",
		ClientID:      "c-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "riskFlags")
	meta, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, meta["ai_generated"])
	assert.Equal(t, "gpt-5", meta["ai_model_used"])
}

func TestGenerateNote_ValidationError(t *testing.T) {
	router := newRouter(&stubGenerator{noteErr: &note.ValidationError{Message: "clientId is required"}})

	rec := doPost(t, router, "/generate-clinical-note", map[string]string{"noteType": "clinical_note"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "clientId is required", errorBody(t, rec))
}

func TestGenerateNote_AIDisabled(t *testing.T) {
	router := newRouter(&stubGenerator{noteErr: note.ErrAIDisabled})

	rec := doPost(t, router, "/generate-clinical-note", model.GenerationRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "AI is not enabled", errorBody(t, rec))
}

func TestGenerateNote_ProviderFailureIs500(t *testing.T) {
	router := newRouter(&stubGenerator{noteErr: &completion.ProviderError{
		Provider: "openai", StatusCode: 502, Body: "bad gateway",
	}})

	rec := doPost(t, router, "/generate-clinical-note", model.GenerationRequest{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorBody(t, rec), "status 502")
}

func TestGenerateNote_MalformedResponseIs500(t *testing.T) {
	router := newRouter(&stubGenerator{noteErr: &completion.MalformedResponseError{
		Provider: "openai", Reason: "response is not valid JSON",
	}})

	rec := doPost(t, router, "/generate-clinical-note", model.GenerationRequest{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorBody(t, rec), "not valid JSON")
}

func TestGenerateNote_InvalidBody(t *testing.T) {
	router := newRouter(&stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/generate-clinical-note", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", errorBody(t, rec))
}

func TestGenerateSection_Success(t *testing.T) {
	router := newRouter(&stubGenerator{section: &model.GeneratedSection{
		Content: json.RawMessage(`{"riskLevel":"Low"}`),
	}})

	rec := doPost(t, router, "/generate-section-content", model.SectionRequest{
		SectionType: "safety",
		Context:     "denied ideation",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"content":{"riskLevel":"Low"}}`, rec.Body.String())
}

func TestGenerateSection_DisabledBody(t *testing.T) {
	router := newRouter(&stubGenerator{sectionErr: note.ErrAIDisabled})

	rec := doPost(t, router, "/generate-section-content", model.SectionRequest{SectionType: "mse"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "AI is not enabled", errorBody(t, rec))
}

func TestGenerateSection_ProviderErrorBody(t *testing.T) {
	router := newRouter(&stubGenerator{sectionErr: &completion.ProviderError{
		Provider: "anthropic", StatusCode: 529, Body: "overloaded",
	}})

	rec := doPost(t, router, "/generate-section-content", model.SectionRequest{SectionType: "mse"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AI service error", errorBody(t, rec))
}

func TestGenerateSection_OtherErrorBody(t *testing.T) {
	router := newRouter(&stubGenerator{sectionErr: errors.New("template prompts corrupted")})

	rec := doPost(t, router, "/generate-section-content", model.SectionRequest{SectionType: "mse"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Section generation failed", errorBody(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(&stubGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/generate-clinical-note", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
