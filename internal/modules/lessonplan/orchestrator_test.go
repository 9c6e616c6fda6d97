package lessonplan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm/mock"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

func newTestOrchestrator(t *testing.T, c llm.Completer, cfg Config) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(logger.Nop(), c, observability.NewMetrics("test"), cfg)
	require.NoError(t, err)
	return o
}

func motionRequest() types.Request {
	return types.Request{
		Context: motionContext(),
		Topics: []types.Topic{{
			Name: "Describing Motion",
			Concepts: []types.ConceptEntry{
				{Name: "Speed", Detail: "Speed is distance travelled per unit time"},
				{Name: "Velocity", Detail: "Velocity is speed in a given direction, a vector quantity with magnitude and direction"},
			},
		}},
	}
}

func twoTopicRequest() types.Request {
	return types.Request{
		Context: motionContext(),
		Topics: []types.Topic{
			{Name: "Kinematics", Concepts: []types.ConceptEntry{
				{Name: "Displacement", Detail: "change in position"},
				{Name: "Acceleration", Detail: "rate of change of velocity"},
			}},
			{Name: "Dynamics", Concepts: []types.ConceptEntry{
				{Name: "Inertia", Detail: "resistance to change in motion"},
			}},
		},
	}
}

func TestGenerateBatchMotionScenario(t *testing.T) {
	rec := &mock.Recorder{}
	o := newTestOrchestrator(t, rec, Config{})

	got, err := o.GenerateBatch(context.Background(), motionRequest())
	require.NoError(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].System(), "Concept: Speed")
	assert.Contains(t, calls[1].System(), "Concept: Velocity")

	require.Len(t, got.Topics, 1)
	concepts := got.Topics[0].Concepts
	require.Len(t, concepts, 2)
	assert.Equal(t, "Speed", concepts[0].Concept)
	assert.Equal(t, "plan 0", concepts[0].Text)
	assert.Equal(t, "Velocity", concepts[1].Concept)
	assert.Equal(t, 45, concepts[0].Minutes+concepts[1].Minutes)
	assert.GreaterOrEqual(t, concepts[1].Minutes, concepts[0].Minutes)
	assert.Positive(t, concepts[0].Minutes)
}

func TestGenerateBatchIsolatesUnitFailure(t *testing.T) {
	rec := &mock.Recorder{Fail: mock.FailOn(1)}
	o := newTestOrchestrator(t, rec, Config{})

	got, err := o.GenerateBatch(context.Background(), twoTopicRequest())
	require.NoError(t, err)
	require.Len(t, rec.Calls(), 3)
	assert.Equal(t, 3, got.Units())
	assert.Equal(t, 1, got.FailedUnits())

	var sentinel, real int
	for _, tr := range got.Topics {
		for _, c := range tr.Concepts {
			if c.Text == types.ErrorText {
				sentinel++
				assert.True(t, c.Failed)
			} else {
				real++
			}
		}
	}
	assert.Equal(t, 1, sentinel)
	assert.Equal(t, 2, real)
	assert.Equal(t, types.ErrorText, got.Topics[0].Concepts[1].Text)
}

func TestGenerateBatchPreservesOrderInFlatten(t *testing.T) {
	rec := &mock.Recorder{Reply: func(_ int, msgs []llm.Message) string {
		for _, line := range strings.Split(msgs[0].Content, "\n") {
			if strings.HasPrefix(line, "- Concept: ") {
				return "notes for " + strings.TrimPrefix(line, "- Concept: ")
			}
		}
		return ""
	}}
	o := newTestOrchestrator(t, rec, Config{})

	got, err := o.GenerateBatch(context.Background(), twoTopicRequest())
	require.NoError(t, err)

	flat := Flatten(got)
	order := []string{
		"Topic: Kinematics",
		"Concept: Displacement",
		"notes for Displacement",
		"Concept: Acceleration",
		"notes for Acceleration",
		"Topic: Dynamics",
		"Concept: Inertia (45 minutes)",
		"notes for Inertia",
	}
	last := -1
	for _, s := range order {
		idx := strings.Index(flat, s)
		require.Greater(t, idx, last, "%q out of order in:\n%s", s, flat)
		last = idx
	}
}

func TestGenerateBatchSkipsEmptyTopics(t *testing.T) {
	rec := &mock.Recorder{}
	o := newTestOrchestrator(t, rec, Config{})

	req := twoTopicRequest()
	req.Topics = append([]types.Topic{{Name: "Empty"}}, req.Topics...)
	got, err := o.GenerateBatch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got.Topics, 2)
	assert.Equal(t, "Kinematics", got.Topics[0].Topic)
}

func TestGenerateBatchEmptyRequestFails(t *testing.T) {
	rec := &mock.Recorder{}
	o := newTestOrchestrator(t, rec, Config{})

	_, err := o.GenerateBatch(context.Background(), types.Request{Context: motionContext(), Topics: []types.Topic{{Name: "Empty"}}})
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.Empty(t, rec.Calls())
}

func TestGenerateBatchDefaultsDuration(t *testing.T) {
	rec := &mock.Recorder{}
	o := newTestOrchestrator(t, rec, Config{})

	req := motionRequest()
	req.Context.SessionDurationMinutes = 0
	got, err := o.GenerateBatch(context.Background(), req)
	require.NoError(t, err)
	c := got.Topics[0].Concepts
	assert.Equal(t, types.SessionMinutes, c[0].Minutes+c[1].Minutes)
}

func TestGenerateBatchStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &mock.Recorder{Reply: func(i int, _ []llm.Message) string {
		if i == 0 {
			cancel()
		}
		return "ok"
	}}
	o := newTestOrchestrator(t, rec, Config{})

	_, err := o.GenerateBatch(ctx, twoTopicRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.Calls(), 1)
}

func TestUnitGeneratorAppliesCallTimeout(t *testing.T) {
	slow := llm.CompleterFunc(func(ctx context.Context, _ []llm.Message) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	g := NewUnitGenerator(logger.Nop(), slow, nil, 10*time.Millisecond)

	out := g.Generate(context.Background(), types.ModeBatch, "T / C", Prompt{Name: PromptConceptPlan})
	assert.True(t, out.Failed)
	assert.Equal(t, types.ErrorText, out.Text)
	assert.True(t, errors.Is(out.Err, context.DeadlineExceeded))
}

func TestNewOrchestratorRequiresCompleter(t *testing.T) {
	_, err := NewOrchestrator(logger.Nop(), nil, nil, Config{})
	assert.Error(t, err)
}
