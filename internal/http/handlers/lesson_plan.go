package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/http/response"
	"github.com/yungbote/lessonplan-backend/internal/services"
)

const maxBodyBytes = 1 << 20

type topicRequest struct {
	Topic string `json:"topic" binding:"required"`
	// Legacy form: parallel arrays paired by position.
	Concepts       []string `json:"concepts"`
	ConceptDetails []string `json:"conceptDetails"`
	// Record form; wins over the arrays when present.
	Entries []types.ConceptEntry `json:"entries" binding:"omitempty,dive"`
}

type lessonPlanRequest struct {
	Board       string         `json:"board" binding:"required"`
	Grade       string         `json:"grade" binding:"required"`
	Subject     string         `json:"subject" binding:"required"`
	SubSubject  string         `json:"subSubject"`
	Unit        string         `json:"unit"`
	Chapter     string         `json:"chapter" binding:"required"`
	Topics      []topicRequest `json:"topics" binding:"required,min=1,dive"`
	SessionType string         `json:"sessionType"`
	NoOfSession int            `json:"noOfSession" binding:"gte=0"`
	Duration    int            `json:"duration" binding:"gte=0,lte=600"`

	// Output selects "nested" (default) or "flat" for batch generation.
	Output string `json:"output" binding:"omitempty,oneof=nested flat"`
	// GeneratedPlan bypasses generation on download-pdf.
	GeneratedPlan string `json:"generatedPlan"`
}

func (r lessonPlanRequest) toDomain() types.Request {
	out := types.Request{
		Context: types.CurriculumContext{
			Board:                  strings.TrimSpace(r.Board),
			Grade:                  strings.TrimSpace(r.Grade),
			Subject:                strings.TrimSpace(r.Subject),
			SubSubject:             strings.TrimSpace(r.SubSubject),
			Unit:                   strings.TrimSpace(r.Unit),
			Chapter:                strings.TrimSpace(r.Chapter),
			SessionType:            strings.TrimSpace(r.SessionType),
			NumberOfSessions:       r.NoOfSession,
			SessionDurationMinutes: r.Duration,
		},
		Topics: make([]types.Topic, 0, len(r.Topics)),
	}
	for _, t := range r.Topics {
		topic := types.Topic{Name: strings.TrimSpace(t.Topic)}
		if len(t.Entries) > 0 {
			topic.Concepts = make([]types.ConceptEntry, 0, len(t.Entries))
			for _, e := range t.Entries {
				topic.Concepts = append(topic.Concepts, types.ConceptEntry{
					Name:   strings.TrimSpace(e.Name),
					Detail: strings.TrimSpace(e.Detail),
				})
			}
		} else {
			topic.Concepts = types.PairConcepts(t.Concepts, t.ConceptDetails)
		}
		out.Topics = append(out.Topics, topic)
	}
	return out
}

type LessonPlanHandler struct {
	svc services.LessonPlanService
}

func NewLessonPlanHandler(svc services.LessonPlanService) *LessonPlanHandler {
	return &LessonPlanHandler{svc: svc}
}

func (h *LessonPlanHandler) bind(c *gin.Context) (lessonPlanRequest, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req lessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return req, false
	}
	for i, t := range req.Topics {
		for j, e := range t.Entries {
			if strings.TrimSpace(e.Name) == "" {
				response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("topics[%d].entries[%d].concept is required", i, j))
				return req, false
			}
		}
	}
	return req, true
}

// POST /api/lesson-plans/generate
func (h *LessonPlanHandler) Generate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	output := req.Output
	if output == "" {
		output = strings.ToLower(strings.TrimSpace(c.Query("output")))
	}
	if output != "" && output != "nested" && output != "flat" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unsupported output %q", output))
		return
	}

	out, err := h.svc.GenerateBatch(c.Request.Context(), req.toDomain())
	if err != nil {
		response.RespondAPIError(c, err, "generate_lesson_plan_failed")
		return
	}

	var plan any = out.Plan
	if output == "flat" {
		plan = out.Flattened
	}
	response.RespondOK(c, gin.H{
		"id":           out.ID,
		"lesson_plan":  plan,
		"failed_units": out.Plan.FailedUnits(),
	})
}

// POST /api/lesson-plans/prelearning
func (h *LessonPlanHandler) Prelearning(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	out, err := h.svc.GeneratePrelearning(c.Request.Context(), req.toDomain())
	if err != nil {
		response.RespondAPIError(c, err, "generate_prelearning_plan_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"id":           out.ID,
		"lesson_plan":  out.Plan,
		"failed_units": out.Plan.FailedUnits(),
	})
}

// POST /api/lesson-plans/download-pdf
func (h *LessonPlanHandler) DownloadPDF(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	doc, err := h.svc.DownloadPDF(c.Request.Context(), services.DownloadInput{
		Request:       req.toDomain(),
		GeneratedPlan: req.GeneratedPlan,
	})
	if err != nil {
		response.RespondAPIError(c, err, "render_failed")
		return
	}
	c.Header("X-Lesson-Plan-Id", doc.ID.String())
	response.RespondFile(c, doc.ContentType, doc.Filename, doc.Data, false)
}

// GET /api/lesson-plans/:id
func (h *LessonPlanHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "load_lesson_plan_failed")
		return
	}
	response.RespondOK(c, gin.H{"lesson_plan": row})
}

// GET /api/lesson-plans?mode=batch&limit=20
func (h *LessonPlanHandler) List(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	rows, err := h.svc.List(c.Request.Context(), strings.ToLower(strings.TrimSpace(c.Query("mode"))), limit)
	if err != nil {
		response.RespondAPIError(c, err, "list_lesson_plans_failed")
		return
	}
	response.RespondOK(c, gin.H{"lesson_plans": rows})
}

// GET /api/lesson-plans/:id/document
func (h *LessonPlanHandler) Document(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.svc.Document(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "load_document_failed")
		return
	}
	response.RespondFile(c, doc.ContentType, doc.Filename, doc.Data, false)
}

// GET /api/lesson-plans/:id/preview.png
func (h *LessonPlanHandler) Preview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.svc.Preview(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "render_failed")
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	response.RespondFile(c, doc.ContentType, doc.Filename, doc.Data, true)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err == nil && id == uuid.Nil {
		err = errors.New("nil id")
	}
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_plan_id", err)
		return uuid.Nil, false
	}
	return id, true
}
