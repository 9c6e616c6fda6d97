package lessonplan

import (
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/llm"
)

type PromptName string

const (
	PromptConceptPlan  PromptName = "concept_plan"
	PromptSessionCount PromptName = "session_count"
	PromptSessionPlan  PromptName = "session_plan"
)

// PlanSections are the headings every concept plan is asked to contain, in order.
var PlanSections = []string{
	"Objectives",
	"Teaching Aids",
	"Prerequisites",
	"Content",
	"Activities",
	"Summary",
	"Homework",
}

type Prompt struct {
	Name     PromptName
	Version  int
	Messages []llm.Message
}

// ID names the prompt template and its revision, e.g. "concept_plan/v1".
func (p Prompt) ID() string { return fmt.Sprintf("%s/v%d", p.Name, p.Version) }

// Fingerprint matches the key llm.Cache derives for this prompt.
func (p Prompt) Fingerprint(model string) string {
	return llm.PromptFingerprint(model, p.ID(), p.Messages)
}

// ConceptUnit is one batch-mode generation unit.
type ConceptUnit struct {
	Topic   string
	Concept types.ConceptEntry
	Minutes int
}

func (u ConceptUnit) Label() string { return u.Topic + " / " + u.Concept.Name }

// SessionUnit is one pre-learning generation unit; Index is 1-based.
type SessionUnit struct {
	Index int
	Total int
}

func (u SessionUnit) Label() string { return types.SessionLabel(u.Index) }

func BuildConceptPrompt(cc types.CurriculumContext, u ConceptUnit) Prompt {
	var b strings.Builder
	b.WriteString("Create a detailed lesson plan for a single concept using the following details:\n\n")
	writeContext(&b, cc)
	fmt.Fprintf(&b, "- Topic: %s\n", u.Topic)
	fmt.Fprintf(&b, "- Concept: %s\n", u.Concept.Name)
	fmt.Fprintf(&b, "- Concept Detail: %s\n", u.Concept.PromptDetail())
	fmt.Fprintf(&b, "- Allocated Duration: %d minutes\n\n", u.Minutes)
	b.WriteString("Structure the plan with the following sections, in this order:\n")
	for i, s := range PlanSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nKeep every activity within the allocated duration and make the plan ready for classroom use.")

	return Prompt{
		Name:    PromptConceptPlan,
		Version: 1,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: b.String()},
		},
	}
}

func BuildSessionCountPrompt(cc types.CurriculumContext, topics []types.Topic) (Prompt, error) {
	payload, err := json.Marshal(newCurriculumPayload(cc, topics))
	if err != nil {
		return Prompt{}, fmt.Errorf("encode session count payload: %w", err)
	}
	system := fmt.Sprintf(
		"You are planning a pre-learning program for the curriculum provided by the user. "+
			"Decide how many sessions of %d minutes each are needed to cover every topic and concept. "+
			"%s, with no words, punctuation or explanation.",
		types.SessionMinutes, types.SessionCountMarker,
	)
	return Prompt{
		Name:    PromptSessionCount,
		Version: 1,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: string(payload)},
		},
	}, nil
}

func BuildSessionPrompt(cc types.CurriculumContext, topics []types.Topic, u SessionUnit) (Prompt, error) {
	payload, err := json.Marshal(sessionPayload{
		curriculumPayload: newCurriculumPayload(cc, topics),
		Session:           u.Index,
		TotalSessions:     u.Total,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("encode session payload: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are writing session %d of %d of a pre-learning plan for the curriculum provided by the user. ", u.Index, u.Total)
	fmt.Fprintf(&b, "The session lasts %d minutes. ", types.SessionMinutes)
	b.WriteString("Cover only the share of the topics and concepts that belongs in this session, continuing from earlier sessions. ")
	b.WriteString("Include objectives, activities and a short recap.")
	return Prompt{
		Name:    PromptSessionPlan,
		Version: 1,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: b.String()},
			{Role: llm.RoleUser, Content: string(payload)},
		},
	}, nil
}

func writeContext(b *strings.Builder, cc types.CurriculumContext) {
	fmt.Fprintf(b, "- Board: %s\n", cc.Board)
	fmt.Fprintf(b, "- Grade: %s\n", cc.Grade)
	fmt.Fprintf(b, "- Subject: %s\n", cc.Subject)
	if strings.TrimSpace(cc.SubSubject) != "" {
		fmt.Fprintf(b, "- Sub-Subject: %s\n", cc.SubSubject)
	}
	fmt.Fprintf(b, "- Unit: %s\n", cc.Unit)
	fmt.Fprintf(b, "- Chapter: %s\n", cc.Chapter)
	if strings.TrimSpace(cc.SessionType) != "" {
		fmt.Fprintf(b, "- Session Type: %s\n", cc.SessionType)
	}
	if cc.NumberOfSessions > 0 {
		fmt.Fprintf(b, "- Number of Sessions: %d\n", cc.NumberOfSessions)
	}
	if cc.SessionDurationMinutes > 0 {
		fmt.Fprintf(b, "- Duration per Session: %d minutes\n", cc.SessionDurationMinutes)
	}
}

type curriculumPayload struct {
	Board       string         `json:"board"`
	Grade       string         `json:"grade"`
	Subject     string         `json:"subject"`
	SubSubject  string         `json:"subSubject,omitempty"`
	Unit        string         `json:"unit"`
	Chapter     string         `json:"chapter"`
	SessionType string         `json:"sessionType,omitempty"`
	Sessions    int            `json:"noOfSession,omitempty"`
	Duration    int            `json:"duration,omitempty"`
	Topics      []topicPayload `json:"topics"`
}

type topicPayload struct {
	Topic    string           `json:"topic"`
	Concepts []conceptPayload `json:"concepts"`
}

type conceptPayload struct {
	Concept string `json:"concept"`
	Detail  string `json:"detail"`
}

type sessionPayload struct {
	curriculumPayload
	Session       int `json:"session"`
	TotalSessions int `json:"total_sessions"`
}

func newCurriculumPayload(cc types.CurriculumContext, topics []types.Topic) curriculumPayload {
	p := curriculumPayload{
		Board:       cc.Board,
		Grade:       cc.Grade,
		Subject:     cc.Subject,
		SubSubject:  cc.SubSubject,
		Unit:        cc.Unit,
		Chapter:     cc.Chapter,
		SessionType: cc.SessionType,
		Sessions:    cc.NumberOfSessions,
		Duration:    cc.SessionDurationMinutes,
		Topics:      make([]topicPayload, 0, len(topics)),
	}
	for _, t := range topics {
		tp := topicPayload{Topic: t.Name, Concepts: make([]conceptPayload, 0, len(t.Concepts))}
		for _, c := range t.Concepts {
			tp.Concepts = append(tp.Concepts, conceptPayload{Concept: c.Name, Detail: c.PromptDetail()})
		}
		p.Topics = append(p.Topics, tp)
	}
	return p
}
