package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	lessonplanmod "github.com/yungbote/lessonplan-backend/internal/modules/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/apierr"
	"github.com/yungbote/lessonplan-backend/internal/platform/ctxutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/document"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

// DownloadFilename is what browsers save rendered plans as.
const DownloadFilename = "lesson_plan.pdf"

type BatchOutput struct {
	ID        uuid.UUID
	Plan      types.PlanResult
	Flattened string
}

type PrelearningOutput struct {
	ID        uuid.UUID
	Plan      types.SessionPlan
	Flattened string
}

type DownloadInput struct {
	Request types.Request
	// GeneratedPlan, when set, is rendered as-is and no generation happens.
	GeneratedPlan string
}

type Document struct {
	ID          uuid.UUID
	Key         string
	ContentType string
	Filename    string
	Data        []byte
}

type LessonPlanService interface {
	GenerateBatch(ctx context.Context, req types.Request) (*BatchOutput, error)
	GeneratePrelearning(ctx context.Context, req types.Request) (*PrelearningOutput, error)
	DownloadPDF(ctx context.Context, in DownloadInput) (*Document, error)
	Get(ctx context.Context, id uuid.UUID) (*types.LessonPlan, error)
	List(ctx context.Context, mode string, limit int) ([]*types.LessonPlan, error)
	Document(ctx context.Context, id uuid.UUID) (*Document, error)
	Preview(ctx context.Context, id uuid.UUID) (*Document, error)
}

type LessonPlanDeps struct {
	Orchestrator *lessonplanmod.Orchestrator
	// Plans may be nil when persistence is disabled.
	Plans   repos.LessonPlanRepo
	PDF     document.Renderer
	Preview document.Renderer
	// Store may be nil; rendered documents are then returned but not kept.
	Store   document.Store
	Metrics *observability.Metrics
}

type lessonPlanService struct {
	log  *logger.Logger
	deps LessonPlanDeps
}

func NewLessonPlanService(log *logger.Logger, deps LessonPlanDeps) (LessonPlanService, error) {
	if deps.Orchestrator == nil {
		return nil, errors.New("lesson plan service: orchestrator required")
	}
	if deps.PDF == nil {
		return nil, errors.New("lesson plan service: pdf renderer required")
	}
	return &lessonPlanService{log: log.With("service", "LessonPlanService"), deps: deps}, nil
}

func (s *lessonPlanService) GenerateBatch(ctx context.Context, req types.Request) (*BatchOutput, error) {
	plan, err := s.deps.Orchestrator.GenerateBatch(ctx, req)
	if err != nil {
		s.deps.Metrics.IncPlanRequest(types.ModeBatch, "error")
		return nil, mapGenerationError(err)
	}
	s.deps.Metrics.IncPlanRequest(types.ModeBatch, outcome(plan.FailedUnits()))

	out := &BatchOutput{ID: uuid.New(), Plan: plan, Flattened: lessonplanmod.Flatten(plan)}
	s.persist(ctx, out.ID, types.ModeBatch, req, plan, out.Flattened, plan.Units(), plan.FailedUnits(), "")
	return out, nil
}

func (s *lessonPlanService) GeneratePrelearning(ctx context.Context, req types.Request) (*PrelearningOutput, error) {
	plan, err := s.deps.Orchestrator.GeneratePrelearning(ctx, req)
	if err != nil {
		s.deps.Metrics.IncPlanRequest(types.ModePrelearning, "error")
		return nil, mapGenerationError(err)
	}
	s.deps.Metrics.IncPlanRequest(types.ModePrelearning, outcome(plan.FailedUnits()))

	out := &PrelearningOutput{ID: uuid.New(), Plan: plan, Flattened: lessonplanmod.FlattenSessions(plan)}
	s.persist(ctx, out.ID, types.ModePrelearning, req, plan, out.Flattened, len(plan.Sessions), plan.FailedUnits(), "")
	return out, nil
}

func (s *lessonPlanService) DownloadPDF(ctx context.Context, in DownloadInput) (*Document, error) {
	id := uuid.New()
	mode := types.ModeSupplied
	text := in.GeneratedPlan
	var (
		result  any
		units   int
		failedN int
	)
	if strings.TrimSpace(text) == "" {
		plan, err := s.deps.Orchestrator.GenerateBatch(ctx, in.Request)
		if err != nil {
			s.deps.Metrics.IncPlanRequest(types.ModeBatch, "error")
			return nil, mapGenerationError(err)
		}
		s.deps.Metrics.IncPlanRequest(types.ModeBatch, outcome(plan.FailedUnits()))
		mode = types.ModeBatch
		text = lessonplanmod.Flatten(plan)
		result, units, failedN = plan, plan.Units(), plan.FailedUnits()
	} else {
		s.deps.Metrics.IncPlanRequest(types.ModeSupplied, "ok")
	}

	doc, err := s.render(ctx, s.deps.PDF, id, text)
	if err != nil {
		return nil, err
	}
	key := ""
	if s.deps.Store != nil {
		if err := s.deps.Store.Put(ctx, doc.Key, doc.Data, doc.ContentType); err != nil {
			s.log.Error("store artifact failed", "key", doc.Key, "error", err)
			return nil, apierr.Internal("render_failed", wrapRender(err))
		}
		key = doc.Key
	}
	s.persist(ctx, id, mode, in.Request, result, text, units, failedN, key)
	return doc, nil
}

func (s *lessonPlanService) Get(ctx context.Context, id uuid.UUID) (*types.LessonPlan, error) {
	if s.deps.Plans == nil {
		return nil, apierr.New(http.StatusNotImplemented, "persistence_disabled", errors.New("lesson plan storage is not configured"))
	}
	row, err := s.deps.Plans.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.Internal("load_lesson_plan_failed", err)
	}
	if row == nil {
		return nil, apierr.NotFound("lesson_plan_not_found", fmt.Errorf("lesson plan %s not found", id))
	}
	return row, nil
}

// List returns the most recent stored plans, optionally filtered by mode.
func (s *lessonPlanService) List(ctx context.Context, mode string, limit int) ([]*types.LessonPlan, error) {
	if s.deps.Plans == nil {
		return nil, apierr.New(http.StatusNotImplemented, "persistence_disabled", errors.New("lesson plan storage is not configured"))
	}
	switch mode {
	case "", types.ModeBatch, types.ModePrelearning, types.ModeSupplied:
	default:
		return nil, apierr.BadRequest("invalid_mode", fmt.Errorf("unknown mode %q", mode))
	}
	rows, err := s.deps.Plans.ListRecent(ctx, nil, mode, limit)
	if err != nil {
		return nil, apierr.Internal("list_lesson_plans_failed", err)
	}
	return rows, nil
}

// Document returns the stored PDF for a plan, rendering and storing it first
// if it was never rendered or the artifact has gone missing.
func (s *lessonPlanService) Document(ctx context.Context, id uuid.UUID) (*Document, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if row.ArtifactKey != "" && s.deps.Store != nil {
		data, err := s.deps.Store.Get(ctx, row.ArtifactKey)
		switch {
		case err == nil:
			return &Document{
				ID:          row.ID,
				Key:         row.ArtifactKey,
				ContentType: s.deps.PDF.ContentType(),
				Filename:    DownloadFilename,
				Data:        data,
			}, nil
		case errors.Is(err, document.ErrNotFound):
			s.log.Warn("artifact missing, re-rendering", "id", row.ID, "key", row.ArtifactKey)
		default:
			return nil, apierr.Internal("load_document_failed", err)
		}
	}

	doc, err := s.render(ctx, s.deps.PDF, row.ID, row.Flattened)
	if err != nil {
		return nil, err
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Put(ctx, doc.Key, doc.Data, doc.ContentType); err != nil {
			return nil, apierr.Internal("render_failed", wrapRender(err))
		}
		if err := s.deps.Plans.UpdateArtifactKey(ctx, nil, row.ID, doc.Key); err != nil {
			s.log.Warn("update artifact key failed", "id", row.ID, "error", err)
		}
	}
	return doc, nil
}

func (s *lessonPlanService) Preview(ctx context.Context, id uuid.UUID) (*Document, error) {
	if s.deps.Preview == nil {
		return nil, apierr.New(http.StatusNotImplemented, "preview_disabled", errors.New("preview renderer is not configured"))
	}
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.render(ctx, s.deps.Preview, row.ID, row.Flattened)
	if err != nil {
		return nil, err
	}
	doc.Filename = "lesson_plan.png"
	return doc, nil
}

func (s *lessonPlanService) render(ctx context.Context, r document.Renderer, id uuid.UUID, text string) (*Document, error) {
	data, err := r.Render(ctx, text)
	if err != nil {
		s.deps.Metrics.IncRender(r.Extension(), "error")
		s.log.Error("render failed", "id", id, "format", r.Extension(), "error", err)
		return nil, apierr.Internal("render_failed", wrapRender(err))
	}
	s.deps.Metrics.IncRender(r.Extension(), "ok")
	return &Document{
		ID:          id,
		Key:         document.ArtifactKey(id, r.Extension()),
		ContentType: r.ContentType(),
		Filename:    DownloadFilename,
		Data:        data,
	}, nil
}

// persist records a generated plan. Failures are logged and never fail the request.
func (s *lessonPlanService) persist(ctx context.Context, id uuid.UUID, mode string, req types.Request, result any, flattened string, units, failed int, key string) {
	if s.deps.Plans == nil {
		return
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		s.log.Warn("encode request for persistence failed", "id", id, "error", err)
		return
	}
	var resJSON []byte
	if result != nil {
		if resJSON, err = json.Marshal(result); err != nil {
			s.log.Warn("encode result for persistence failed", "id", id, "error", err)
			return
		}
	}
	row := &types.LessonPlan{
		ID:          id,
		Mode:        mode,
		Board:       req.Context.Board,
		Grade:       req.Context.Grade,
		Subject:     req.Context.Subject,
		Chapter:     req.Context.Chapter,
		Request:     datatypes.JSON(reqJSON),
		Result:      datatypes.JSON(resJSON),
		Flattened:   flattened,
		Units:       units,
		FailedUnits: failed,
		ArtifactKey: key,
		RequestID:   ctxutil.RequestID(ctx),
	}
	if _, err := s.deps.Plans.Create(ctx, nil, row); err != nil {
		s.log.Error("persist lesson plan failed", "id", id, "mode", mode, "error", err)
	}
}

func outcome(failed int) string {
	if failed > 0 {
		return "degraded"
	}
	return "ok"
}

func wrapRender(err error) error {
	if errors.Is(err, document.ErrRender) {
		return err
	}
	return fmt.Errorf("%w: %w", document.ErrRender, err)
}

func mapGenerationError(err error) error {
	switch {
	case errors.Is(err, lessonplanmod.ErrEmptyResult):
		return apierr.Internal("lesson_plan_empty", err)
	case errors.Is(err, lessonplanmod.ErrSessionCountParse), errors.Is(err, lessonplanmod.ErrTooManySessions):
		return apierr.Internal("session_count_invalid", err)
	case errors.Is(err, lessonplanmod.ErrSessionCountQuery):
		return apierr.Internal("session_count_failed", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierr.Internal("request_canceled", err)
	default:
		return apierr.Internal("generate_lesson_plan_failed", err)
	}
}
