package model

import (
	"encoding/json"
	"time"
)

// NoteTemplate is an administrator-managed template row. The pipeline only
// reads the default template for a (note_type, note_format) pair; when
// duplicates exist the most recently created default wins.
type NoteTemplate struct {
	ID                string          `json:"id"`
	NoteType          string          `json:"note_type"`
	NoteFormat        string          `json:"note_format"`
	IsDefault         bool            `json:"is_default"`
	TemplateStructure json.RawMessage `json:"template_structure,omitempty"`
	AIPrompts         json.RawMessage `json:"ai_prompts,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TemplatePrompts is the parsed shape of NoteTemplate.AIPrompts.
type TemplatePrompts struct {
	System       string `json:"system,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Prompts parses the template's ai_prompts JSON. A nil or empty column
// yields zero-value prompts, not an error.
func (t NoteTemplate) Prompts() (TemplatePrompts, error) {
	var p TemplatePrompts
	if len(t.AIPrompts) == 0 {
		return p, nil
	}
	err := json.Unmarshal(t.AIPrompts, &p)
	return p, err
}
