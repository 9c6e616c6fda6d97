package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/document"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm/mock"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
	"github.com/yungbote/lessonplan-backend/internal/platform/openai"
)

type Clients struct {
	Completer llm.Completer
	Redis     *goredis.Client
	Store     document.Store
	gcs       *document.GCSStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// The cache is optional; misses fall through to the backend.
			log.Warn("redis ping failed, completion cache will degrade", "addr", addr, "error", err)
		}
		c.Redis = rdb
	}

	completer, err := wireCompleter(log, cfg, metrics, c.Redis)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Completer = completer

	switch cfg.Documents.Storage {
	case "local":
		store, err := document.NewLocalStore(log, cfg.Documents.Dir)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init document store: %w", err)
		}
		c.Store = store
	case "gcs":
		store, err := document.NewGCSStore(ctx, log, cfg.Documents.GCSBucket, document.GCSCredentialOptions(cfg.Documents.GCSCredentials)...)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init gcs document store: %w", err)
		}
		c.Store = store
		c.gcs = store
	}
	return c, nil
}

// wireCompleter builds the generation backend: provider, then the response
// cache, then the circuit breaker as the outermost layer.
func wireCompleter(log *logger.Logger, cfg Config, metrics *observability.Metrics, rdb *goredis.Client) (llm.Completer, error) {
	var completer llm.Completer
	switch cfg.LLM.Provider {
	case "mock":
		log.Warn("Using mock generation backend")
		completer = mock.New()
	case "openai":
		client, err := openai.New(openai.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			AttemptTimeout: cfg.LLM.AttemptTimeout.Duration,
			MaxRetries:     cfg.LLM.MaxRetries,
			Temperature:    cfg.LLM.Temperature,
		}, log, metrics)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		completer = client
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}

	if rdb != nil && cfg.LLM.CacheTTL.Duration > 0 {
		completer = llm.NewCache(completer, rdb, cfg.LLM.Model, cfg.LLM.CacheTTL.Duration, log)
	}
	if cfg.LLM.Breaker.Enabled {
		bc := llm.DefaultBreakerConfig("llm-" + cfg.LLM.Provider)
		bc.FailureThreshold = cfg.LLM.Breaker.FailureThreshold
		if cfg.LLM.Breaker.MinRequests > 0 {
			bc.MinRequests = cfg.LLM.Breaker.MinRequests
		}
		if cfg.LLM.Breaker.OpenTimeout.Duration > 0 {
			bc.Timeout = cfg.LLM.Breaker.OpenTimeout.Duration
		}
		completer = llm.NewBreaker(completer, bc, log)
	}
	return completer, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.gcs != nil {
		_ = c.gcs.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
