package inlinesummary

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/config"
	"github.com/youssefsiam38/inlinesummary/driver"
	"github.com/youssefsiam38/inlinesummary/driver/databasesql"
	"github.com/youssefsiam38/inlinesummary/driver/pgxv5"
	"github.com/youssefsiam38/inlinesummary/generation"
	anthropicprovider "github.com/youssefsiam38/inlinesummary/provider/anthropic"
	openaiprovider "github.com/youssefsiam38/inlinesummary/provider/openai"
	"github.com/youssefsiam38/inlinesummary/storage"
)

// NewClientFromConfig builds the generator, token counter and store that cfg
// describes and returns a Client over them. With a database URL the store's
// tables are created if missing.
//
// Example:
//
//	cfg, _ := config.Load("inlinesummary.yaml")
//	client, err := inlinesummary.NewClientFromConfig(ctx, cfg)
func NewClientFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	opts = append([]Option{WithEventRetention(cfg.Database.EventRetention)}, opts...)

	ic := newInternalConfig()
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	generator, counter, err := newProvider(cfg.Provider, ic.logger)
	if err != nil {
		return nil, err
	}

	store, closer, err := newStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		opts = append(opts, withCloser(closer))
	}

	backend := cfg.Backend
	client, err := NewClient(Config{
		Store:     store,
		Generator: generator,
		Counter:   counter,
		Backend:   &backend,
		Settings:  cfg.Settings,
	}, opts...)
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, err
	}
	return client, nil
}

func newProvider(p config.Provider, logger compaction.Logger) (generation.Generator, compaction.TokenCounter, error) {
	switch p.Kind {
	case config.ProviderAnthropic:
		if p.Model == "" {
			return nil, nil, fmt.Errorf("%w: provider.model is required for anthropic", ErrInvalidConfig)
		}
		var reqOpts []option.RequestOption
		if p.APIKey != "" {
			reqOpts = append(reqOpts, option.WithAPIKey(p.APIKey))
		}
		if p.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(p.BaseURL))
		}
		client := anthropic.NewClient(reqOpts...)

		gen := anthropicprovider.NewGenerator(&client, p.Model, p.MaxTokens)
		counter := anthropicprovider.NewTokenCounter(&client, p.Model, p.CountTokensAPI, logger)
		return gen, counter, nil

	case config.ProviderOpenAI:
		gen := openaiprovider.New(openaiprovider.Config{
			APIKey:    p.APIKey,
			BaseURL:   p.BaseURL,
			Model:     p.Model,
			MaxTokens: p.MaxTokens,
		})
		return gen, compaction.ApproximateCounter{}, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown provider kind %q", ErrInvalidConfig, p.Kind)
	}
}

func newStore(ctx context.Context, db config.Database) (storage.Store, func() error, error) {
	if db.URL == "" {
		return storage.NewMemoryStore(), nil, nil
	}

	var (
		exec   driver.Executor
		closer func() error
	)
	switch db.Driver {
	case config.DriverPgx:
		pool, err := pgxpool.New(ctx, db.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		exec = pgxv5.New(pool).GetExecutor()
		closer = func() error {
			pool.Close()
			return nil
		}

	case config.DriverDatabaseSQL:
		drv, err := databasesql.Open(db.URL)
		if err != nil {
			return nil, nil, err
		}
		exec = drv.GetExecutor()
		closer = drv.Close

	default:
		return nil, nil, fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, db.Driver)
	}

	store := storage.NewPostgresStore(exec)
	if err := store.Migrate(ctx); err != nil {
		_ = closer()
		return nil, nil, err
	}
	return store, closer, nil
}
