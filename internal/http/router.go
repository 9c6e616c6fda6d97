package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lessonplan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lessonplan-backend/internal/http/middleware"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	LessonPlanHandler *httpH.LessonPlanHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Lesson plans
		if cfg.LessonPlanHandler != nil {
			api.POST("/lesson-plans/generate", cfg.LessonPlanHandler.Generate)
			api.POST("/lesson-plans/prelearning", cfg.LessonPlanHandler.Prelearning)
			api.POST("/lesson-plans/download-pdf", cfg.LessonPlanHandler.DownloadPDF)
			api.GET("/lesson-plans", cfg.LessonPlanHandler.List)
			api.GET("/lesson-plans/:id", cfg.LessonPlanHandler.Get)
			api.GET("/lesson-plans/:id/document", cfg.LessonPlanHandler.Document)
			api.GET("/lesson-plans/:id/preview.png", cfg.LessonPlanHandler.Preview)
		}
	}

	return r
}
