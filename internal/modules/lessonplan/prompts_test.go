package lessonplan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
)

func motionContext() types.CurriculumContext {
	return types.CurriculumContext{
		Board:                  "CBSE",
		Grade:                  "9",
		Subject:                "Science",
		Unit:                   "Physics",
		Chapter:                "Motion",
		SessionType:            "Theory",
		SessionDurationMinutes: 45,
	}
}

func TestConceptPromptIsSingleSystemMessage(t *testing.T) {
	p := BuildConceptPrompt(motionContext(), ConceptUnit{
		Topic:   "Describing Motion",
		Concept: types.ConceptEntry{Name: "Speed"},
		Minutes: 15,
	})
	require.Len(t, p.Messages, 1)
	msg := p.Messages[0]
	assert.Equal(t, llm.RoleSystem, msg.Role)
	for _, want := range []string{"CBSE", "Grade: 9", "Chapter: Motion", "Topic: Describing Motion", "Concept: Speed", "15 minutes", types.NoDetailing} {
		assert.Contains(t, msg.Content, want)
	}
	assert.NotContains(t, msg.Content, "Sub-Subject")
	assert.NotContains(t, msg.Content, "Number of Sessions")
	assert.Contains(t, msg.Content, "Duration per Session: 45 minutes")

	last := -1
	for _, s := range PlanSections {
		idx := strings.Index(msg.Content, s)
		require.GreaterOrEqual(t, idx, 0, "missing section %s", s)
		assert.Greater(t, idx, last, "section %s out of order", s)
		last = idx
	}
}

func TestConceptPromptCarriesSessionHints(t *testing.T) {
	cc := motionContext()
	cc.NumberOfSessions = 4
	cc.SessionDurationMinutes = 40
	p := BuildConceptPrompt(cc, ConceptUnit{Topic: "Describing Motion", Concept: types.ConceptEntry{Name: "Speed"}, Minutes: 20})
	content := p.Messages[0].Content
	assert.Contains(t, content, "- Session Type: Theory")
	assert.Contains(t, content, "- Number of Sessions: 4")
	assert.Contains(t, content, "- Duration per Session: 40 minutes")
	assert.Contains(t, content, "- Allocated Duration: 20 minutes")

	cc.SessionDurationMinutes = 0
	p = BuildConceptPrompt(cc, ConceptUnit{Topic: "Describing Motion", Concept: types.ConceptEntry{Name: "Speed"}, Minutes: 20})
	assert.NotContains(t, p.Messages[0].Content, "Duration per Session")
}

func TestSessionCountPromptCarriesPayload(t *testing.T) {
	topics := []types.Topic{{Name: "Describing Motion", Concepts: []types.ConceptEntry{{Name: "Speed", Detail: "distance per time"}, {Name: "Velocity"}}}}
	p, err := BuildSessionCountPrompt(motionContext(), topics)
	require.NoError(t, err)
	require.Len(t, p.Messages, 2)
	assert.Equal(t, llm.RoleSystem, p.Messages[0].Role)
	assert.Contains(t, p.Messages[0].Content, types.SessionCountMarker)
	assert.Equal(t, llm.RoleUser, p.Messages[1].Role)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(p.Messages[1].Content), &payload))
	assert.Equal(t, "Motion", payload["chapter"])
	assert.Equal(t, float64(45), payload["duration"])
	assert.NotContains(t, payload, "noOfSession")
	tps := payload["topics"].([]any)
	require.Len(t, tps, 1)
	concepts := tps[0].(map[string]any)["concepts"].([]any)
	require.Len(t, concepts, 2)
	assert.Equal(t, types.NoDetailing, concepts[1].(map[string]any)["detail"])
}

func TestSessionPromptNamesPosition(t *testing.T) {
	topics := []types.Topic{{Name: "Describing Motion", Concepts: []types.ConceptEntry{{Name: "Speed"}}}}
	p, err := BuildSessionPrompt(motionContext(), topics, SessionUnit{Index: 2, Total: 3})
	require.NoError(t, err)
	require.Len(t, p.Messages, 2)
	assert.Contains(t, p.Messages[0].Content, "session 2 of 3")
	assert.Contains(t, p.Messages[0].Content, "45 minutes")

	var payload struct {
		Session       int `json:"session"`
		TotalSessions int `json:"total_sessions"`
		Topics        []struct {
			Topic string `json:"topic"`
		} `json:"topics"`
	}
	require.NoError(t, json.Unmarshal([]byte(p.Messages[1].Content), &payload))
	assert.Equal(t, 2, payload.Session)
	assert.Equal(t, 3, payload.TotalSessions)
	require.Len(t, payload.Topics, 1)
	assert.Equal(t, "Describing Motion", payload.Topics[0].Topic)
}

func TestPromptBuildersDoNotMutateInput(t *testing.T) {
	topics := []types.Topic{{Name: "T", Concepts: []types.ConceptEntry{{Name: "C", Detail: ""}}}}
	_, err := BuildSessionCountPrompt(motionContext(), topics)
	require.NoError(t, err)
	assert.Equal(t, "", topics[0].Concepts[0].Detail)
}

func TestPromptFingerprintDependsOnContent(t *testing.T) {
	a := BuildConceptPrompt(motionContext(), ConceptUnit{Topic: "T", Concept: types.ConceptEntry{Name: "Speed"}, Minutes: 10})
	b := BuildConceptPrompt(motionContext(), ConceptUnit{Topic: "T", Concept: types.ConceptEntry{Name: "Speed"}, Minutes: 11})
	assert.Equal(t, a.Fingerprint("m"), a.Fingerprint("m"))
	assert.NotEqual(t, a.Fingerprint("m"), b.Fingerprint("m"))
	assert.NotEqual(t, a.Fingerprint("m"), a.Fingerprint("other"))
}

func TestPromptIDTracksVersion(t *testing.T) {
	p := BuildConceptPrompt(motionContext(), ConceptUnit{Topic: "T", Concept: types.ConceptEntry{Name: "Speed"}, Minutes: 10})
	assert.Equal(t, "concept_plan/v1", p.ID())
	bumped := p
	bumped.Version = 2
	assert.NotEqual(t, p.Fingerprint("m"), bumped.Fingerprint("m"))
	assert.Equal(t, llm.PromptFingerprint("m", "concept_plan/v1", p.Messages), p.Fingerprint("m"))
}
