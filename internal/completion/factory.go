package completion

import (
	"strings"

	"golang.org/x/time/rate"
)

// FactoryConfig carries the per-provider credentials and tuning read from
// process configuration. Which provider (and model) serves a given request
// is decided by the stored AI settings row, not by the environment.
type FactoryConfig struct {
	OpenAIKey            string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIMaxTokens      int
	AnthropicKey         string
	AnthropicModel       string
	AnthropicMaxTokens   int64
	AnthropicTemperature float64
	RequestsPerSecond    float64 // per-provider client-side limit; 0 disables
}

// ProviderFactory selects a completion provider for a request.
type ProviderFactory interface {
	ForProvider(name string) Provider
}

// Factory builds both provider clients once and hands them out per request.
type Factory struct {
	openai    Provider
	anthropic Provider
}

// NewFactory creates the provider factory.
func NewFactory(cfg FactoryConfig) *Factory {
	var limiterOpenAI, limiterAnthropic *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiterOpenAI = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		limiterAnthropic = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Factory{
		openai: NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL,
			WithOpenAIModel(cfg.OpenAIModel),
			WithOpenAIMaxCompletionTokens(cfg.OpenAIMaxTokens),
			WithOpenAILimiter(limiterOpenAI),
		),
		anthropic: NewAnthropic(cfg.AnthropicKey,
			WithAnthropicModel(cfg.AnthropicModel),
			WithAnthropicMaxTokens(cfg.AnthropicMaxTokens),
			WithAnthropicTemperature(cfg.AnthropicTemperature),
			WithAnthropicLimiter(limiterAnthropic),
		),
	}
}

// ForProvider returns the provider matching the stored settings value.
// "openai" selects OpenAI; every other value falls through to the default
// alternate provider.
func (f *Factory) ForProvider(name string) Provider {
	if strings.EqualFold(strings.TrimSpace(name), "openai") {
		return f.openai
	}
	return f.anthropic
}
