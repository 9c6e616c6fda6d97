package lessonplan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/ctxutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
)

// GeneratePrelearning asks the backend how many 45-minute sessions the
// curriculum needs, then generates each session in order. A count reply that
// is not a positive integer fails the request before any session is generated.
func (o *Orchestrator) GeneratePrelearning(ctx context.Context, req types.Request) (types.SessionPlan, error) {
	if req.UnitCount() == 0 {
		return types.SessionPlan{}, ErrEmptyResult
	}

	countPrompt, err := BuildSessionCountPrompt(req.Context, req.Topics)
	if err != nil {
		return types.SessionPlan{}, err
	}
	reply, err := o.completer.Complete(llm.WithPromptID(ctx, countPrompt.ID()), countPrompt.Messages)
	if err != nil {
		o.log.Warn("session count query failed", "request_id", ctxutil.RequestID(ctx), "error", err)
		return types.SessionPlan{}, fmt.Errorf("%w: %w", ErrSessionCountQuery, err)
	}
	n, err := ParseSessionCount(reply)
	if err != nil {
		o.log.Warn("session count reply rejected", "reply", truncate(reply, 120), "request_id", ctxutil.RequestID(ctx))
		return types.SessionPlan{}, err
	}
	if n > o.maxSessions {
		return types.SessionPlan{}, fmt.Errorf("%w: %d > %d", ErrTooManySessions, n, o.maxSessions)
	}

	plan := types.SessionPlan{Sessions: make([]types.SessionResult, 0, n)}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return types.SessionPlan{}, err
		}
		unit := SessionUnit{Index: i, Total: n}
		p, err := BuildSessionPrompt(req.Context, req.Topics, unit)
		if err != nil {
			return types.SessionPlan{}, err
		}
		out := o.gen.Generate(ctx, types.ModePrelearning, unit.Label(), p)
		plan.Sessions = append(plan.Sessions, types.SessionResult{Index: i, Text: out.Text, Failed: out.Failed})
	}

	o.log.Info("pre-learning plan generated",
		"sessions", n,
		"failed_units", plan.FailedUnits(),
		"request_id", ctxutil.RequestID(ctx),
	)
	return plan, nil
}

// ParseSessionCount accepts a trimmed base-10 integer of at least 1.
func ParseSessionCount(reply string) (int, error) {
	s := strings.TrimSpace(reply)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSessionCountParse, truncate(s, 40))
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", ErrSessionCountParse, n)
	}
	return n, nil
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
