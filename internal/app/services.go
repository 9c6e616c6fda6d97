package app

import (
	"fmt"

	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	lessonplanmod "github.com/yungbote/lessonplan-backend/internal/modules/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/document"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
	"github.com/yungbote/lessonplan-backend/internal/services"
)

type Services struct {
	Orchestrator *lessonplanmod.Orchestrator
	LessonPlans  services.LessonPlanService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet *repos.Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	orch, err := lessonplanmod.NewOrchestrator(log, clients.Completer, metrics, lessonplanmod.Config{
		CallTimeout: cfg.LLM.CallTimeout.Duration,
		MaxSessions: cfg.Prelearning.MaxSessions,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init orchestrator: %w", err)
	}

	preview, err := document.NewPreviewRenderer(cfg.Documents.PreviewScale)
	if err != nil {
		return Services{}, fmt.Errorf("init preview renderer: %w", err)
	}

	deps := services.LessonPlanDeps{
		Orchestrator: orch,
		PDF:          document.NewPDFRenderer(),
		Preview:      preview,
		Store:        clients.Store,
		Metrics:      metrics,
	}
	if reposet != nil {
		deps.Plans = reposet.LessonPlans
	}
	svc, err := services.NewLessonPlanService(log, deps)
	if err != nil {
		return Services{}, fmt.Errorf("init lesson plan service: %w", err)
	}
	return Services{Orchestrator: orch, LessonPlans: svc}, nil
}
