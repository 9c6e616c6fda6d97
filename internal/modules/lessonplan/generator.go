package lessonplan

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/ctxutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/lessonplan-backend/internal/modules/lessonplan"

type UnitOutcome struct {
	Text   string
	Failed bool
	Err    error
}

// UnitGenerator runs exactly one completion per unit. A failed completion is
// reported as ErrorText and never surfaces as an error to the caller.
type UnitGenerator struct {
	log         *logger.Logger
	completer   llm.Completer
	metrics     *observability.Metrics
	tracer      trace.Tracer
	callTimeout time.Duration
}

func NewUnitGenerator(log *logger.Logger, completer llm.Completer, metrics *observability.Metrics, callTimeout time.Duration) *UnitGenerator {
	return &UnitGenerator{
		log:         log.With("service", "UnitGenerator"),
		completer:   completer,
		metrics:     metrics,
		tracer:      otel.Tracer(tracerName),
		callTimeout: callTimeout,
	}
}

func (g *UnitGenerator) Generate(ctx context.Context, mode, label string, p Prompt) UnitOutcome {
	ctx, span := g.tracer.Start(ctx, "lessonplan.unit",
		trace.WithAttributes(
			attribute.String("lessonplan.mode", mode),
			attribute.String("lessonplan.unit", label),
			attribute.String("lessonplan.prompt", string(p.Name)),
		),
	)
	defer span.End()

	callCtx := llm.WithPromptID(ctx, p.ID())
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, g.callTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.completer.Complete(callCtx, p.Messages)
	if err != nil {
		g.log.Warn("unit generation failed",
			"mode", mode,
			"unit", label,
			"prompt", p.Name,
			"request_id", ctxutil.RequestID(ctx),
			"duration", time.Since(start).String(),
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		g.metrics.IncPlanUnit(mode, "failed")
		return UnitOutcome{Text: types.ErrorText, Failed: true, Err: err}
	}

	g.log.Debug("unit generated",
		"mode", mode,
		"unit", label,
		"chars", len(text),
		"duration", time.Since(start).String(),
	)
	g.metrics.IncPlanUnit(mode, "ok")
	return UnitOutcome{Text: text}
}
