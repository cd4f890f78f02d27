package completion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultOpenAIModel         = "gpt-4o-mini"
	defaultMaxCompletionTokens = 2048
)

// OpenAIClient implements Provider against the OpenAI chat completions API.
// It sends max_completion_tokens and no temperature; that parameter shape
// is part of the API contract, not a style choice.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	limiter   *rate.Limiter
}

// OpenAIOption configures the client.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIModel overrides the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithOpenAIMaxCompletionTokens overrides the completion token cap.
func WithOpenAIMaxCompletionTokens(n int) OpenAIOption {
	return func(c *OpenAIClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOpenAILimiter sets a client-side request rate limiter.
func WithOpenAILimiter(l *rate.Limiter) OpenAIOption {
	return func(c *OpenAIClient) {
		c.limiter = l
	}
}

// NewOpenAI creates an OpenAI-backed completion provider.
func NewOpenAI(apiKey, baseURL string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c := &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     defaultOpenAIModel,
		maxTokens: defaultMaxCompletionTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name implements Provider.
func (c *OpenAIClient) Name() string { return "openai" }

// Complete implements Provider.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "openai: rate limit wait")
		}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxCompletionTokens: c.maxTokens,
	}

	if req.Tool != nil {
		chatReq.Tools = []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Schema,
			},
		}}
		chatReq.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Tool.Name},
		}
	} else {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{
				Provider:   c.Name(),
				StatusCode: apiErr.HTTPStatusCode,
				Body:       apiErr.Message,
			}
		}
		return nil, eris.Wrap(err, "openai: create chat completion")
	}

	if len(resp.Choices) == 0 {
		return nil, &MalformedResponseError{Provider: c.Name(), Reason: "no choices in response"}
	}
	choice := resp.Choices[0]

	var payload json.RawMessage
	if req.Tool != nil {
		if len(choice.Message.ToolCalls) == 0 {
			return nil, &MalformedResponseError{Provider: c.Name(), Reason: "no tool call in response"}
		}
		args := choice.Message.ToolCalls[0].Function.Arguments
		if !json.Valid([]byte(args)) {
			return nil, &MalformedResponseError{Provider: c.Name(), Reason: "tool call arguments are not valid JSON"}
		}
		payload = json.RawMessage(args)
	} else {
		content := strings.TrimSpace(choice.Message.Content)
		if content == "" || !json.Valid([]byte(content)) {
			return nil, &MalformedResponseError{Provider: c.Name(), Reason: "response body is not valid JSON"}
		}
		payload = json.RawMessage(content)
	}

	return &Result{
		JSON:         payload,
		FinishReason: normalizeOpenAIFinish(choice.FinishReason),
		Model:        resp.Model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

func normalizeOpenAIFinish(fr openai.FinishReason) FinishReason {
	switch fr {
	case openai.FinishReasonStop, openai.FinishReasonToolCalls:
		return FinishStop
	case openai.FinishReasonLength:
		return FinishLength
	default:
		return FinishReason(fr)
	}
}
