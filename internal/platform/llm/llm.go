// Package llm defines the narrow text-completion contract the lesson-plan
// orchestrator depends on, plus decorators that add resilience around any
// concrete backend.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer turns an ordered list of role-tagged messages into generated text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

type promptIDKey struct{}

// WithPromptID tags ctx with the identity ("name/vN") of the prompt being
// completed. Decorators that key on the conversation fold it into the key.
func WithPromptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, promptIDKey{}, id)
}

func PromptID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(promptIDKey{}).(string)
	return id
}

// PromptFingerprint is Fingerprint scoped to a prompt identity, so revising a
// prompt's version yields new keys for otherwise identical messages.
func PromptFingerprint(model, promptID string, messages []Message) string {
	if promptID == "" {
		return Fingerprint(model, messages)
	}
	return Fingerprint(strings.TrimSpace(model)+"|"+promptID, messages)
}

// Fingerprint is a stable hash of the conversation, suitable as a cache key.
func Fingerprint(model string, messages []Message) string {
	h := sha256.New()
	_, _ = h.Write([]byte(strings.TrimSpace(model)))
	for _, m := range messages {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(m.Role))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
