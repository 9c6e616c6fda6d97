package lessonplan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ErrorText replaces the output of any unit whose generation call failed.
const ErrorText = "Error generating lesson plan."

type ConceptResult struct {
	Concept string
	Text    string
	Minutes int
	Failed  bool
}

type TopicResult struct {
	Topic    string
	Concepts []ConceptResult
}

// PlanResult is the batch-mode output in input order. It encodes to JSON as
// {"<topic>": {"<concept>": {"text": ..., "minutes": ...}}} with keys in
// input order.
type PlanResult struct {
	Topics []TopicResult
}

func (p PlanResult) Units() int {
	n := 0
	for _, t := range p.Topics {
		n += len(t.Concepts)
	}
	return n
}

func (p PlanResult) FailedUnits() int {
	n := 0
	for _, t := range p.Topics {
		for _, c := range t.Concepts {
			if c.Failed {
				n++
			}
		}
	}
	return n
}

type conceptJSON struct {
	Text    string `json:"text"`
	Minutes int    `json:"minutes"`
}

func (p PlanResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range p.Topics {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, t.Topic); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, c := range t.Concepts {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, c.Concept); err != nil {
				return nil, err
			}
			v, err := json.Marshal(conceptJSON{Text: c.Text, Minutes: c.Minutes})
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type SessionResult struct {
	Index  int
	Text   string
	Failed bool
}

func (s SessionResult) Label() string { return SessionLabel(s.Index) }

func SessionLabel(i int) string { return fmt.Sprintf("Session_%d", i) }

// SessionPlan is the pre-learning output in ascending session order. It
// encodes to JSON as {"Session_1": "...", "Session_2": "..."}.
type SessionPlan struct {
	Sessions []SessionResult
}

func (s SessionPlan) FailedUnits() int {
	n := 0
	for _, r := range s.Sessions {
		if r.Failed {
			n++
		}
	}
	return n
}

func (s SessionPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s.Sessions {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, r.Label()); err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}
