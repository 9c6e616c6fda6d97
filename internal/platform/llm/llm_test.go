package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm/mock"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

func msgs(content string) []llm.Message {
	return []llm.Message{{Role: llm.RoleSystem, Content: content}}
}

func TestFingerprintStable(t *testing.T) {
	a := llm.Fingerprint("m", msgs("x"))
	assert.Equal(t, a, llm.Fingerprint("m", msgs("x")))
	assert.NotEqual(t, a, llm.Fingerprint("m2", msgs("x")))
	assert.NotEqual(t, a, llm.Fingerprint("m", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	rec := &mock.Recorder{Fail: func(int, []llm.Message) error { return errors.New("down") }}
	cfg := llm.DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	b := llm.NewBreaker(rec, cfg, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), msgs("x"))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), msgs("x"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, rec.Calls(), 2)
}

func TestCacheServesRepeatedConversation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &mock.Recorder{}
	c := llm.NewCache(rec, rdb, "gpt", time.Minute, logger.Nop())

	first, err := c.Complete(context.Background(), msgs("same"))
	require.NoError(t, err)
	second, err := c.Complete(context.Background(), msgs("same"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, rec.Calls(), 1)

	_, err = c.Complete(context.Background(), msgs("different"))
	require.NoError(t, err)
	assert.Len(t, rec.Calls(), 2)
}

func TestCacheKeysOnPromptID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &mock.Recorder{}
	c := llm.NewCache(rec, rdb, "gpt", time.Minute, logger.Nop())

	v1 := llm.WithPromptID(context.Background(), "concept_plan/v1")
	v2 := llm.WithPromptID(context.Background(), "concept_plan/v2")
	_, err := c.Complete(v1, msgs("same"))
	require.NoError(t, err)
	_, err = c.Complete(v1, msgs("same"))
	require.NoError(t, err)
	require.Len(t, rec.Calls(), 1)

	_, err = c.Complete(v2, msgs("same"))
	require.NoError(t, err)
	assert.Len(t, rec.Calls(), 2, "a new prompt version must miss the cache")

	assert.True(t, mr.Exists("lessonplan:completion:"+llm.PromptFingerprint("gpt", "concept_plan/v2", msgs("same"))))
}

func TestPromptFingerprintWithoutIDMatchesFingerprint(t *testing.T) {
	assert.Equal(t, llm.Fingerprint("m", msgs("x")), llm.PromptFingerprint("m", "", msgs("x")))
	assert.NotEqual(t, llm.Fingerprint("m", msgs("x")), llm.PromptFingerprint("m", "p/v1", msgs("x")))
	assert.Equal(t, "", llm.PromptID(context.Background()))
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &mock.Recorder{Fail: mock.FailOn(0)}
	c := llm.NewCache(rec, rdb, "gpt", time.Minute, logger.Nop())

	_, err := c.Complete(context.Background(), msgs("q"))
	require.Error(t, err)
	text, err := c.Complete(context.Background(), msgs("q"))
	require.NoError(t, err)
	assert.Equal(t, "plan 1", text)
}

func TestCacheFallsThroughWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	rec := &mock.Recorder{}
	c := llm.NewCache(rec, rdb, "gpt", time.Minute, logger.Nop())
	text, err := c.Complete(context.Background(), msgs("q"))
	require.NoError(t, err)
	assert.Equal(t, "plan 0", text)
}

func TestMockEngineAnswersSessionCountWithInteger(t *testing.T) {
	e := mock.New()
	out, err := e.Complete(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: types.SessionCountMarker + "."},
		{Role: llm.RoleUser, Content: "{}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}
