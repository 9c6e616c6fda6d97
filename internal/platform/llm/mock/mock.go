// Package mock provides in-process Completer implementations: a deterministic
// engine for local development and a scriptable Recorder for tests.
package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Complete echoes the first line of the last message. It answers integer-only
// prompts with "1" so the pre-learning flow works end to end offline.
func (e *Engine) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", errors.New("mock: no messages")
	}
	if strings.Contains(messages[0].Content, types.SessionCountMarker) {
		return "1", nil
	}
	last := strings.TrimSpace(messages[len(messages)-1].Content)
	if i := strings.IndexByte(last, '\n'); i > 0 {
		last = last[:i]
	}
	return fmt.Sprintf("mock lesson plan: %s", last), nil
}

// Call is one recorded Complete invocation.
type Call struct {
	Messages []llm.Message
}

func (c Call) System() string { return c.content(llm.RoleSystem) }
func (c Call) User() string   { return c.content(llm.RoleUser) }

func (c Call) content(role string) string {
	for _, m := range c.Messages {
		if m.Role == role {
			return m.Content
		}
	}
	return ""
}

// Recorder records every call. Reply and Fail are consulted per call with the
// zero-based call index; nil Reply echoes "plan <index>".
type Recorder struct {
	Reply func(i int, messages []llm.Message) string
	Fail  func(i int, messages []llm.Message) error

	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	r.mu.Lock()
	i := len(r.calls)
	cp := append([]llm.Message(nil), messages...)
	r.calls = append(r.calls, Call{Messages: cp})
	r.mu.Unlock()

	if r.Fail != nil {
		if err := r.Fail(i, messages); err != nil {
			return "", err
		}
	}
	if r.Reply != nil {
		return r.Reply(i, messages), nil
	}
	return fmt.Sprintf("plan %d", i), nil
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// FailOn returns a Fail func that errors for the listed call indexes.
func FailOn(indexes ...int) func(int, []llm.Message) error {
	set := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		set[i] = true
	}
	return func(i int, _ []llm.Message) error {
		if set[i] {
			return fmt.Errorf("mock: injected failure on call %d", i)
		}
		return nil
	}
}
