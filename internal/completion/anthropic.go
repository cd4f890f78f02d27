package completion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultAnthropicModel       = "claude-sonnet-4-5-20250929"
	defaultAnthropicMaxTokens   = int64(2048)
	defaultAnthropicTemperature = 0.3
)

// AnthropicClient implements Provider against the Anthropic Messages API.
// Unlike the OpenAI client it sends a temperature and the API's own
// required max_tokens parameter; there is no JSON response format, so
// JSON-object mode relies on the prompt and parses the first text block.
type AnthropicClient struct {
	client      sdk.Client
	baseURL     string
	model       string
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
}

// AnthropicOption configures the client.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicBaseURL overrides the API endpoint.
func WithAnthropicBaseURL(u string) AnthropicOption {
	return func(c *AnthropicClient) {
		c.baseURL = u
	}
}

// WithAnthropicModel overrides the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *AnthropicClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAnthropicMaxTokens overrides the output token cap.
func WithAnthropicMaxTokens(n int64) AnthropicOption {
	return func(c *AnthropicClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithAnthropicTemperature overrides the sampling temperature.
func WithAnthropicTemperature(t float64) AnthropicOption {
	return func(c *AnthropicClient) {
		c.temperature = t
	}
}

// WithAnthropicLimiter sets a client-side request rate limiter.
func WithAnthropicLimiter(l *rate.Limiter) AnthropicOption {
	return func(c *AnthropicClient) {
		c.limiter = l
	}
}

// NewAnthropic creates an Anthropic-backed completion provider.
func NewAnthropic(apiKey string, opts ...AnthropicOption) *AnthropicClient {
	c := &AnthropicClient{
		model:       defaultAnthropicModel,
		maxTokens:   defaultAnthropicMaxTokens,
		temperature: defaultAnthropicTemperature,
	}
	for _, o := range opts {
		o(c)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = sdk.NewClient(clientOpts...)
	return c
}

// Name implements Provider.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete implements Provider.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "anthropic: rate limit wait")
		}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   c.maxTokens,
		Temperature: sdk.Float(c.temperature),
		System:      []sdk.TextBlockParam{{Text: req.System}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.User)),
		},
	}

	var reqOpts []option.RequestOption
	if req.Tool != nil {
		params.Tools = []sdk.ToolUnionParam{{
			OfTool: &sdk.ToolParam{
				Name:        req.Tool.Name,
				Description: sdk.String(req.Tool.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: req.Tool.Schema.Properties,
					Required:   req.Tool.Schema.Required,
				},
			},
		}}
		params.ToolChoice = sdk.ToolChoiceUnionParam{
			OfTool: &sdk.ToolChoiceToolParam{Name: req.Tool.Name},
		}
		// ToolInputSchemaParam carries only properties and required, so the
		// schema's top-level additionalProperties constraint has to be
		// spliced into the serialized body.
		if ap := req.Tool.Schema.AdditionalProperties; ap != nil {
			reqOpts = append(reqOpts, option.WithJSONSet("tools.0.input_schema.additionalProperties", *ap))
		}
	}

	msg, err := c.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{
				Provider:   c.Name(),
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Error(),
			}
		}
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	payload, err := extractAnthropicPayload(c.Name(), msg, req.Tool)
	if err != nil {
		return nil, err
	}

	return &Result{
		JSON:         payload,
		FinishReason: normalizeAnthropicFinish(string(msg.StopReason)),
		Model:        string(msg.Model),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}

func extractAnthropicPayload(provider string, msg *sdk.Message, tool *ToolSpec) (json.RawMessage, error) {
	if tool != nil {
		for _, block := range msg.Content {
			if block.Type != "tool_use" || block.Name != tool.Name {
				continue
			}
			data, err := json.Marshal(block.Input)
			if err != nil || !json.Valid(data) {
				return nil, &MalformedResponseError{Provider: provider, Reason: "tool input is not valid JSON"}
			}
			return data, nil
		}
		return nil, &MalformedResponseError{Provider: provider, Reason: "no tool call in response"}
	}

	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		content := stripJSONFences(block.Text)
		if content == "" || !json.Valid([]byte(content)) {
			return nil, &MalformedResponseError{Provider: provider, Reason: "response body is not valid JSON"}
		}
		return json.RawMessage(content), nil
	}
	return nil, &MalformedResponseError{Provider: provider, Reason: "no text content in response"}
}

// stripJSONFences removes a surrounding markdown code fence, which the
// model occasionally adds despite instructions.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func normalizeAnthropicFinish(stopReason string) FinishReason {
	switch stopReason {
	case "end_turn", "tool_use", "stop_sequence":
		return FinishStop
	case "max_tokens":
		return FinishLength
	default:
		return FinishReason(stopReason)
	}
}
