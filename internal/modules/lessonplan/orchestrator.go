package lessonplan

import (
	"context"
	"errors"
	"time"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/ctxutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

const DefaultMaxSessions = 20

type Config struct {
	// CallTimeout bounds one unit's completion; zero leaves only the request deadline.
	CallTimeout time.Duration
	// MaxSessions caps the pre-learning session count reported by the backend.
	MaxSessions int
}

// Orchestrator turns a request into generation units and runs them one after
// another in input order.
type Orchestrator struct {
	log         *logger.Logger
	completer   llm.Completer
	gen         *UnitGenerator
	maxSessions int
}

func NewOrchestrator(log *logger.Logger, completer llm.Completer, metrics *observability.Metrics, cfg Config) (*Orchestrator, error) {
	if log == nil {
		return nil, errors.New("lessonplan: logger required")
	}
	if completer == nil {
		return nil, errors.New("lessonplan: completer required")
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Orchestrator{
		log:         log.With("service", "LessonPlanOrchestrator"),
		completer:   completer,
		gen:         NewUnitGenerator(log, completer, metrics, cfg.CallTimeout),
		maxSessions: maxSessions,
	}, nil
}

// GenerateBatch produces one concept plan per concept. Topics are allocated
// the request's session duration independently (45 minutes when unset).
func (o *Orchestrator) GenerateBatch(ctx context.Context, req types.Request) (types.PlanResult, error) {
	total := req.Context.SessionDurationMinutes
	if total <= 0 {
		total = types.SessionMinutes
	}

	result := types.PlanResult{Topics: make([]types.TopicResult, 0, len(req.Topics))}
	units := 0
	for _, topic := range req.Topics {
		if len(topic.Concepts) == 0 {
			o.log.Warn("topic has no concepts, skipping", "topic", topic.Name, "request_id", ctxutil.RequestID(ctx))
			continue
		}
		details := make([]string, len(topic.Concepts))
		for i, c := range topic.Concepts {
			details[i] = c.Detail
		}
		minutes, err := Allocate(details, total)
		if err != nil {
			return types.PlanResult{}, err
		}

		tr := types.TopicResult{Topic: topic.Name, Concepts: make([]types.ConceptResult, 0, len(topic.Concepts))}
		for i, concept := range topic.Concepts {
			if err := ctx.Err(); err != nil {
				return types.PlanResult{}, err
			}
			unit := ConceptUnit{Topic: topic.Name, Concept: concept, Minutes: minutes[i]}
			out := o.gen.Generate(ctx, types.ModeBatch, unit.Label(), BuildConceptPrompt(req.Context, unit))
			tr.Concepts = append(tr.Concepts, types.ConceptResult{
				Concept: concept.Name,
				Text:    out.Text,
				Minutes: unit.Minutes,
				Failed:  out.Failed,
			})
			units++
		}
		result.Topics = append(result.Topics, tr)
	}

	if units == 0 {
		return types.PlanResult{}, ErrEmptyResult
	}
	o.log.Info("batch plan generated",
		"topics", len(result.Topics),
		"units", units,
		"failed_units", result.FailedUnits(),
		"request_id", ctxutil.RequestID(ctx),
	)
	return result, nil
}
