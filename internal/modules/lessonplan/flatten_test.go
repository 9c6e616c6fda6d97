package lessonplan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
)

func TestFlattenLayout(t *testing.T) {
	p := types.PlanResult{Topics: []types.TopicResult{
		{Topic: "Kinematics", Concepts: []types.ConceptResult{
			{Concept: "Speed", Text: "speed notes\n", Minutes: 20},
			{Concept: "Velocity", Text: "velocity notes", Minutes: 25},
		}},
		{Topic: "Dynamics", Concepts: []types.ConceptResult{
			{Concept: "Inertia", Text: "inertia notes", Minutes: 45},
		}},
	}}
	want := "Topic: Kinematics\n\n" +
		"Concept: Speed (20 minutes)\n\nspeed notes\n\n" +
		"Concept: Velocity (25 minutes)\n\nvelocity notes\n\n" +
		"Topic: Dynamics\n\n" +
		"Concept: Inertia (45 minutes)\n\ninertia notes"
	assert.Equal(t, want, Flatten(p))
}

func TestFlattenSessions(t *testing.T) {
	s := types.SessionPlan{Sessions: []types.SessionResult{{Index: 1, Text: "first"}, {Index: 2, Text: "second"}}}
	assert.Equal(t, "Session_1\n\nfirst\n\nSession_2\n\nsecond", FlattenSessions(s))
	assert.Equal(t, "", Flatten(types.PlanResult{}))
}
