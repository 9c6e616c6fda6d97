package llm

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

// Cache memoizes completions in redis keyed by the conversation fingerprint
// and the prompt identity carried on the context.
// Redis errors never fail a completion; they only cost a cache miss.
type Cache struct {
	next   Completer
	rdb    goredis.Cmdable
	log    *logger.Logger
	model  string
	prefix string
	ttl    time.Duration
}

func NewCache(next Completer, rdb goredis.Cmdable, model string, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		next:   next,
		rdb:    rdb,
		log:    log.With("service", "LLMCache"),
		model:  model,
		prefix: "lessonplan:completion:",
		ttl:    ttl,
	}
}

func (c *Cache) Complete(ctx context.Context, messages []Message) (string, error) {
	key := c.prefix + PromptFingerprint(c.model, PromptID(ctx), messages)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, goredis.Nil):
		c.log.Warn("completion cache read failed", "error", err)
	}

	text, err := c.next.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	if setErr := c.rdb.Set(ctx, key, text, c.ttl).Err(); setErr != nil {
		c.log.Warn("completion cache write failed", "error", setErr)
	}
	return text, nil
}
