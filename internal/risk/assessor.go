package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ridgeline-health/notegen/internal/completion"
	"github.com/ridgeline-health/notegen/internal/schema"
)

// FallbackRationale marks results produced by the keyword scan after the
// enhanced path failed. Callers and tests depend on this exact string.
const FallbackRationale = "Basic keyword-based assessment (AI unavailable)"

// Mode distinguishes how a Result was produced.
type Mode string

const (
	ModeEnhanced Mode = "enhanced"
	ModeFallback Mode = "fallback"
)

// Result is one risk assessment. Produced fresh per request and never
// merged with prior assessments.
type Result struct {
	Flags     []Category `json:"flags"`
	Severity  Severity   `json:"severity"`
	Rationale string     `json:"rationale"`
	Mode      Mode       `json:"mode"`
}

// FlagStrings returns the flags as plain strings for the response payload.
func (r Result) FlagStrings() []string {
	out := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		out[i] = string(f)
	}
	return out
}

const assessToolName = "assess_clinical_risks"

var assessToolSchema = &schema.Node{
	Type: "object",
	Properties: map[string]*schema.Node{
		"risks": {
			Type:        "array",
			Description: "Detected risk categories",
			Items:       &schema.Node{Type: "string", Enum: categoryStrings(EnhancedCategories)},
		},
		"severity": {
			Type:        "string",
			Description: "Overall severity of the detected risks",
			Enum:        severityStrings(SeverityScale),
		},
		"rationale": {
			Type:        "string",
			Description: "Brief clinical rationale for the assessment",
		},
	},
	Required: []string{"risks", "severity", "rationale"},
}

const assessSystemPrompt = "You are a clinical risk assessment assistant for a behavioral-health practice. " +
	"Review the session text and the drafted note content for safety concerns and call the " +
	assessToolName + " function with your findings. Report only risks supported by the text."

// Assessor runs risk assessment over a generation request.
type Assessor struct {
	provider completion.Provider
	model    string
}

// NewAssessor creates an assessor bound to the request's completion
// provider and model.
func NewAssessor(provider completion.Provider, model string) *Assessor {
	return &Assessor{provider: provider, model: model}
}

// Assess produces a risk assessment for the given input and generated
// content. When enhanced is false it runs only the keyword scan. When
// enhanced is true it attempts the tool-call classifier first and, on any
// failure, degrades to the keyword scan rather than failing the request.
func (a *Assessor) Assess(ctx context.Context, inputText, content string, enhanced bool) Result {
	if !enhanced {
		flags := Scan(content, inputText)
		return Result{
			Flags:    flags,
			Severity: fallbackSeverity(flags),
			Mode:     ModeFallback,
		}
	}

	res, err := a.assessEnhanced(ctx, inputText, content)
	if err != nil {
		zap.L().Warn("enhanced risk assessment failed, using keyword fallback",
			zap.String("provider", a.provider.Name()),
			zap.Error(err),
		)
		flags := Scan(content, inputText)
		return Result{
			Flags:     flags,
			Severity:  fallbackSeverity(flags),
			Rationale: FallbackRationale,
			Mode:      ModeFallback,
		}
	}
	return *res
}

// toolOutput is the parsed arguments of the assess_clinical_risks call.
type toolOutput struct {
	Risks     []string `json:"risks"`
	Severity  string   `json:"severity"`
	Rationale string   `json:"rationale"`
}

func (a *Assessor) assessEnhanced(ctx context.Context, inputText, content string) (*Result, error) {
	user := fmt.Sprintf("Session text:\n%s\n\nDrafted note content:\n%s", inputText, content)

	res, err := a.provider.Complete(ctx, completion.Request{
		System: assessSystemPrompt,
		User:   user,
		Model:  a.model,
		Tool: &completion.ToolSpec{
			Name:        assessToolName,
			Description: "Record detected clinical risk categories, overall severity, and rationale",
			Schema:      assessToolSchema,
		},
	})
	if err != nil {
		return nil, err
	}

	var out toolOutput
	if err := json.Unmarshal(res.JSON, &out); err != nil {
		return nil, fmt.Errorf("parse tool output: %w", err)
	}

	flags := make([]Category, 0, len(out.Risks))
	for _, r := range out.Risks {
		c, ok := validCategory(r)
		if !ok {
			// Out-of-vocabulary output breaks the closed-set invariant;
			// treat the whole response as malformed.
			return nil, fmt.Errorf("unknown risk category %q in tool output", r)
		}
		flags = append(flags, c)
	}

	sev, ok := validSeverity(out.Severity)
	if !ok {
		return nil, fmt.Errorf("unknown severity %q in tool output", out.Severity)
	}
	if out.Rationale == "" {
		return nil, fmt.Errorf("missing rationale in tool output")
	}

	return &Result{
		Flags:     flags,
		Severity:  sev,
		Rationale: out.Rationale,
		Mode:      ModeEnhanced,
	}, nil
}

func validCategory(s string) (Category, bool) {
	for _, c := range EnhancedCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func validSeverity(s string) (Severity, bool) {
	for _, sev := range SeverityScale {
		if string(sev) == s {
			return sev, true
		}
	}
	return "", false
}

func categoryStrings(cs []Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func severityStrings(ss []Severity) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
