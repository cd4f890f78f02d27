package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ridgeline-health/notegen/internal/completion"
	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/note"
)

// noteGenerator is the pipeline surface the handlers need; narrowed for
// handler tests.
type noteGenerator interface {
	GenerateNote(ctx context.Context, req model.GenerationRequest) (*model.GeneratedNote, error)
	GenerateSection(ctx context.Context, req model.SectionRequest) (*model.GeneratedSection, error)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func handleGenerateNote(gen noteGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := gen.GenerateNote(r.Context(), req)
		if err != nil {
			zap.L().Error("note generation failed",
				zap.String("note_type", req.NoteType),
				zap.String("client_id", req.ClientID),
				zap.Error(err),
			)

			var ve *note.ValidationError
			var ce *note.ConfigurationError
			switch {
			case errors.As(err, &ve):
				writeError(w, http.StatusBadRequest, ve.Message)
			case errors.As(err, &ce):
				writeError(w, http.StatusBadRequest, ce.Message)
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func handleGenerateSection(gen noteGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.SectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := gen.GenerateSection(r.Context(), req)
		if err != nil {
			zap.L().Error("section generation failed",
				zap.String("section_type", req.SectionType),
				zap.Error(err),
			)

			// The frontend matches these bodies; keep them stable.
			var ce *note.ConfigurationError
			var pe *completion.ProviderError
			switch {
			case errors.As(err, &ce):
				writeError(w, http.StatusBadRequest, "AI is not enabled")
			case errors.As(err, &pe):
				writeError(w, http.StatusInternalServerError, "AI service error")
			default:
				writeError(w, http.StatusInternalServerError, "Section generation failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, out)
	}
}
