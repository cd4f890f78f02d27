package note

import "fmt"

// ValidationError reports a malformed generation request: a missing required
// field or an absent text source. Callers surface it as HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigurationError reports that AI generation is switched off in the
// stored settings. Distinct from ValidationError so callers can tell "AI is
// off" from "your request is malformed".
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// ErrAIDisabled is the ConfigurationError returned when the settings row is
// absent or enabled=false.
var ErrAIDisabled = &ConfigurationError{Message: "AI is not enabled"}

// TemplateNotFoundError reports that no default template exists for the
// requested (note_type, note_format) pair.
type TemplateNotFoundError struct {
	NoteType   string
	NoteFormat string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no default template for note type %q format %q", e.NoteType, e.NoteFormat)
}
