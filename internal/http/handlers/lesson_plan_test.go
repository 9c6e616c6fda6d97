package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/apierr"
	"github.com/yungbote/lessonplan-backend/internal/services"
)

type fakeService struct {
	lastReq      types.Request
	lastDownload services.DownloadInput
	err          error
	row          *types.LessonPlan
	lastMode     string
	lastLimit    int
}

func (f *fakeService) GenerateBatch(_ context.Context, req types.Request) (*services.BatchOutput, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	plan := types.PlanResult{Topics: []types.TopicResult{{
		Topic:    req.Topics[0].Name,
		Concepts: []types.ConceptResult{{Concept: "Speed", Text: "speed plan", Minutes: 45}},
	}}}
	return &services.BatchOutput{ID: uuid.New(), Plan: plan, Flattened: "Topic: flat"}, nil
}

func (f *fakeService) GeneratePrelearning(_ context.Context, req types.Request) (*services.PrelearningOutput, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	plan := types.SessionPlan{Sessions: []types.SessionResult{{Index: 1, Text: "one"}, {Index: 2, Text: "two"}}}
	return &services.PrelearningOutput{ID: uuid.New(), Plan: plan}, nil
}

func (f *fakeService) DownloadPDF(_ context.Context, in services.DownloadInput) (*services.Document, error) {
	f.lastDownload = in
	if f.err != nil {
		return nil, f.err
	}
	return &services.Document{ID: uuid.New(), ContentType: "application/pdf", Filename: services.DownloadFilename, Data: []byte("%PDF-1.3")}, nil
}

func (f *fakeService) Get(_ context.Context, id uuid.UUID) (*types.LessonPlan, error) {
	if f.row == nil {
		return nil, apierr.NotFound("lesson_plan_not_found", errors.New("not found"))
	}
	return f.row, nil
}

func (f *fakeService) List(_ context.Context, mode string, limit int) ([]*types.LessonPlan, error) {
	f.lastMode, f.lastLimit = mode, limit
	if f.row == nil {
		return []*types.LessonPlan{}, nil
	}
	return []*types.LessonPlan{f.row}, nil
}

func (f *fakeService) Document(ctx context.Context, id uuid.UUID) (*services.Document, error) {
	return f.DownloadPDF(ctx, services.DownloadInput{})
}

func (f *fakeService) Preview(_ context.Context, id uuid.UUID) (*services.Document, error) {
	return &services.Document{ID: id, ContentType: "image/png", Filename: "lesson_plan.png", Data: []byte("\x89PNG")}, nil
}

func newTestRouter(svc services.LessonPlanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewLessonPlanHandler(svc)
	r.POST("/generate", h.Generate)
	r.POST("/prelearning", h.Prelearning)
	r.POST("/download-pdf", h.DownloadPDF)
	r.GET("/plans", h.List)
	r.GET("/plans/:id", h.Get)
	r.GET("/plans/:id/preview.png", h.Preview)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func legacyBody() map[string]any {
	return map[string]any{
		"board":    "CBSE",
		"grade":    "9",
		"subject":  "Science",
		"unit":     "Physics",
		"chapter":  "Motion",
		"duration": 45,
		"topics": []map[string]any{{
			"topic":          "Describing Motion",
			"concepts":       []string{"Speed", "Velocity"},
			"conceptDetails": []string{"distance per time"},
		}},
	}
}

func TestGeneratePairsLegacyArrays(t *testing.T) {
	svc := &fakeService{}
	rec := postJSON(newTestRouter(svc), "/generate", legacyBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, svc.lastReq.Topics, 1)
	assert.Equal(t, []types.ConceptEntry{
		{Name: "Speed", Detail: "distance per time"},
		{Name: "Velocity", Detail: ""},
	}, svc.lastReq.Topics[0].Concepts)
	assert.Equal(t, 45, svc.lastReq.Context.SessionDurationMinutes)

	var out struct {
		ID         string                                 `json:"id"`
		LessonPlan map[string]map[string]map[string]any `json:"lesson_plan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "speed plan", out.LessonPlan["Describing Motion"]["Speed"]["text"])
	_, err := uuid.Parse(out.ID)
	assert.NoError(t, err)
}

func TestGenerateAcceptsRecordEntries(t *testing.T) {
	svc := &fakeService{}
	body := legacyBody()
	body["topics"] = []map[string]any{{
		"topic":   "Describing Motion",
		"entries": []map[string]string{{"concept": "Speed", "detail": "d"}},
	}}
	rec := postJSON(newTestRouter(svc), "/generate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []types.ConceptEntry{{Name: "Speed", Detail: "d"}}, svc.lastReq.Topics[0].Concepts)
}

func TestGenerateFlatOutput(t *testing.T) {
	body := legacyBody()
	body["output"] = "flat"
	rec := postJSON(newTestRouter(&fakeService{}), "/generate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		LessonPlan string `json:"lesson_plan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Topic: flat", out.LessonPlan)
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	svc := &fakeService{}
	body := legacyBody()
	delete(body, "board")
	rec := postJSON(newTestRouter(svc), "/generate", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid_request"`)

	body = legacyBody()
	body["topics"] = []map[string]any{}
	rec = postJSON(newTestRouter(svc), "/generate", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateMapsServiceErrors(t *testing.T) {
	svc := &fakeService{err: apierr.Internal("lesson_plan_empty", errors.New("empty"))}
	rec := postJSON(newTestRouter(svc), "/generate", legacyBody())
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "lesson_plan_empty", env.Error.Code)
	assert.Equal(t, "empty", env.Error.Message)
}

func TestPrelearningKeepsSessionOrder(t *testing.T) {
	rec := postJSON(newTestRouter(&fakeService{}), "/prelearning", legacyBody())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lesson_plan":{"Session_1":"one","Session_2":"two"}`)
}

func TestDownloadPDFPassesGeneratedPlan(t *testing.T) {
	svc := &fakeService{}
	body := legacyBody()
	body["generatedPlan"] = "edited"
	rec := postJSON(newTestRouter(svc), "/download-pdf", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited", svc.lastDownload.GeneratedPlan)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lesson_plan.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Lesson-Plan-Id"))
}

func TestGetRejectsBadID(t *testing.T) {
	r := newTestRouter(&fakeService{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewServesInlinePNG(t *testing.T) {
	r := newTestRouter(&fakeService{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans/"+uuid.NewString()+"/preview.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
}

func TestListPassesFilters(t *testing.T) {
	svc := &fakeService{row: &types.LessonPlan{ID: uuid.New(), Mode: types.ModeBatch}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/plans?mode=Batch&limit=5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "batch", svc.lastMode)
	assert.Equal(t, 5, svc.lastLimit)

	var body struct {
		LessonPlans []map[string]any `json:"lesson_plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.LessonPlans, 1)
}

func TestListRejectsBadLimit(t *testing.T) {
	r := newTestRouter(&fakeService{})
	req := httptest.NewRequest(http.MethodGet, "/plans?limit=lots", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
