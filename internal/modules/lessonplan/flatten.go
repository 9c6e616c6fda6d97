package lessonplan

import (
	"fmt"
	"strings"

	types "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
)

// Flatten renders a batch plan as plain text, topics and concepts in input order.
func Flatten(p types.PlanResult) string {
	var b strings.Builder
	for _, t := range p.Topics {
		fmt.Fprintf(&b, "Topic: %s\n\n", t.Topic)
		for _, c := range t.Concepts {
			fmt.Fprintf(&b, "Concept: %s (%d minutes)\n\n", c.Concept, c.Minutes)
			b.WriteString(strings.TrimSpace(c.Text))
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

func FlattenSessions(s types.SessionPlan) string {
	var b strings.Builder
	for _, r := range s.Sessions {
		b.WriteString(r.Label())
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(r.Text))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}
