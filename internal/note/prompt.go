package note

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/schema"
)

const defaultNoteSystemPrompt = `You are a clinical documentation assistant for a behavioral-health practice. ` +
	`Draft accurate, professionally worded clinical notes from session material. ` +
	`Use only information supported by the provided text; never invent clinical observations. ` +
	`Respond with a single JSON object matching the requested structure exactly.`

const noteUserPrompt = `Client context:
%s

Session material:
%s
%s%s
Produce a %s note in %s format. Respond with a JSON object conforming to this schema:
%s`

const sectionSystemPrompt = `You are a clinical documentation assistant helping a clinician complete an intake assessment. ` +
	`Generate content for one section at a time from the provided context, using only supported information. ` +
	`Record your output by calling the provided function.`

const sectionUserPrompt = `Section: %s

Clinician-provided context:
%s
%s`

// buildNotePrompts assembles the system and user prompts for a full note.
// Template-stored prompts override the defaults when present, and the
// template's section structure is included so the note follows the
// practice's configured layout.
func buildNotePrompts(nr *NormalizedRequest) (system, user string, err error) {
	prompts, err := nr.Template.Prompts()
	if err != nil {
		return "", "", fmt.Errorf("parse template prompts: %w", err)
	}

	system = defaultNoteSystemPrompt
	if prompts.System != "" {
		system = prompts.System
	}

	structure := ""
	if len(nr.Template.TemplateStructure) > 0 {
		structure = "\nTemplate structure to follow:\n" + string(nr.Template.TemplateStructure) + "\n"
	}

	instructions := ""
	if prompts.Instructions != "" {
		instructions = "\nAdditional instructions:\n" + prompts.Instructions + "\n"
	}

	user = fmt.Sprintf(noteUserPrompt,
		clientContext(nr.Client),
		nr.SourceText,
		structure,
		instructions,
		nr.Request.NoteType,
		nr.Request.NoteFormat,
		schema.ProgressNote().JSON(),
	)
	return system, user, nil
}

// buildSectionPrompt assembles the user prompt for a single intake section.
func buildSectionPrompt(req model.SectionRequest) string {
	existing := ""
	if len(req.ExistingData) > 0 {
		if b, err := json.Marshal(req.ExistingData); err == nil {
			existing = "\nExisting section data to refine:\n" + string(b)
		}
	}
	return fmt.Sprintf(sectionUserPrompt, req.SectionType, req.Context, existing)
}

// clientContext renders the demographic lines included in prompts. Unknown
// fields are omitted rather than rendered as placeholders.
func clientContext(c *model.Client) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s %s", c.FirstName, c.LastName)
	if age := c.Age(timeNow()); age >= 0 {
		fmt.Fprintf(&b, "\nAge: %d", age)
	}
	if c.Pronouns != "" {
		fmt.Fprintf(&b, "\nPronouns: %s", c.Pronouns)
	}
	return b.String()
}
