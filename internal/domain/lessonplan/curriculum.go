package lessonplan

import "strings"

// NoDetailing is what prompts show for a concept that arrived without detail text.
const NoDetailing = "no detailing provided"

// SessionMinutes is the fixed length of a pre-learning session.
const SessionMinutes = 45

// SessionCountMarker is the instruction that opens every session count query.
// The offline engine in llm/mock answers prompts containing it with a count.
const SessionCountMarker = "Respond with only an integer"

const (
	ModeBatch       = "batch"
	ModePrelearning = "prelearning"
	ModeSupplied    = "supplied"
)

// CurriculumContext describes where a lesson sits in the syllabus. It is
// passed by value and never mutated once a request has been built.
type CurriculumContext struct {
	Board                  string `json:"board"`
	Grade                  string `json:"grade"`
	Subject                string `json:"subject"`
	SubSubject             string `json:"subSubject,omitempty"`
	Unit                   string `json:"unit"`
	Chapter                string `json:"chapter"`
	SessionType            string `json:"sessionType,omitempty"`
	NumberOfSessions       int    `json:"noOfSession,omitempty"`
	SessionDurationMinutes int    `json:"duration,omitempty"`
}

type ConceptEntry struct {
	Name   string `json:"concept"`
	Detail string `json:"detail"`
}

// PromptDetail is the detail text shown to the generation backend.
func (c ConceptEntry) PromptDetail() string {
	if strings.TrimSpace(c.Detail) == "" {
		return NoDetailing
	}
	return c.Detail
}

type Topic struct {
	Name     string         `json:"topic"`
	Concepts []ConceptEntry `json:"concepts"`
}

// PairConcepts zips the legacy parallel arrays into entries. Pairing is
// positional; names without a matching detail get an empty detail, and
// details without a matching name are dropped.
func PairConcepts(names, details []string) []ConceptEntry {
	out := make([]ConceptEntry, 0, len(names))
	for i, name := range names {
		entry := ConceptEntry{Name: strings.TrimSpace(name)}
		if i < len(details) {
			entry.Detail = strings.TrimSpace(details[i])
		}
		out = append(out, entry)
	}
	return out
}

// Request is one fully-built lesson plan request.
type Request struct {
	Context CurriculumContext `json:"context"`
	Topics  []Topic           `json:"topics"`
}

// UnitCount is the number of concept units a batch run would generate.
func (r Request) UnitCount() int {
	n := 0
	for _, t := range r.Topics {
		n += len(t.Concepts)
	}
	return n
}
