package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ridgeline-health/notegen/internal/completion"
	"github.com/ridgeline-health/notegen/internal/note"
	"github.com/ridgeline-health/notegen/internal/store"
)

// serveEnv holds the initialized store and generation pipeline needed by the
// serve/migrate/audit commands.
type serveEnv struct {
	Store     store.Store
	Generator *note.Generator
}

// Close releases resources held by the environment.
func (e *serveEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "notegen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, provider clients, and the generation pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*serveEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	factory := completion.NewFactory(completion.FactoryConfig{
		OpenAIKey:            cfg.OpenAI.Key,
		OpenAIBaseURL:        cfg.OpenAI.BaseURL,
		OpenAIModel:          cfg.OpenAI.Model,
		OpenAIMaxTokens:      cfg.OpenAI.MaxCompletionTokens,
		AnthropicKey:         cfg.Anthropic.Key,
		AnthropicModel:       cfg.Anthropic.Model,
		AnthropicMaxTokens:   cfg.Anthropic.MaxTokens,
		AnthropicTemperature: cfg.Anthropic.Temperature,
		RequestsPerSecond:    cfg.AI.RequestsPerSecond,
	})

	return &serveEnv{
		Store:     st,
		Generator: note.NewGenerator(st, factory),
	}, nil
}
