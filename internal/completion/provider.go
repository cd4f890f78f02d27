// Package completion abstracts the hosted LLM completion backends. Each
// provider encapsulates its own parameter quirks; callers pick structured
// output either as a strict JSON-object response or a forced single tool
// call.
package completion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ridgeline-health/notegen/internal/schema"
)

// FinishReason is the normalized completion finish reason. Providers map
// their native vocabularies onto "stop" and "length"; anything else passes
// through unchanged.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
)

// ToolSpec declares a single callable function the provider is forced to
// invoke; its arguments are the desired structured output.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *schema.Node
}

// Request is one completion call. When Tool is nil the provider runs in
// strict JSON-object mode and the caller embeds the schema in the prompt
// text; when Tool is set the provider forces exactly that tool call.
type Request struct {
	System string
	User   string
	Model  string // overrides the provider default when non-empty
	Tool   *ToolSpec
}

// Result is the parsed structured output of a completion call.
type Result struct {
	JSON         json.RawMessage
	FinishReason FinishReason
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Provider is one completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Result, error)
}

// ProviderError reports a non-2xx response from a completion API. The call
// is terminal: no retry, no backoff.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: completion request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// MalformedResponseError reports a 2xx response whose body is not the
// structured output we asked for (absent JSON, missing tool call).
type MalformedResponseError struct {
	Provider string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed completion response: %s", e.Provider, e.Reason)
}
