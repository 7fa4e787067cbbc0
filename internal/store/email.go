package store

import "encoding/json"

// Status values for the per-email processing state machine. Records written
// by older versions carry no status; NeedsAnalysis falls back to the
// aiSummary/new_email check for those.
const (
	StatusPending  = "pending"
	StatusAnalyzed = "analyzed"
)

// AISummary is the analysis result attached to an email.
type AISummary struct {
	Summary    string  `json:"summary"`
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
}

// Email is one record in the store. Fields unknown to this version are kept
// verbatim and written back on save.
type Email struct {
	ID         string     `json:"id"`
	ThreadID   string     `json:"threadId,omitempty"`
	Sender     string     `json:"sender,omitempty"`
	Subject    string     `json:"subject"`
	Preview    string     `json:"preview,omitempty"`
	Time       string     `json:"time,omitempty"`
	Unread     bool       `json:"unread,omitempty"`
	Starred    bool       `json:"starred,omitempty"`
	Labels     []string   `json:"labels,omitempty"`
	Body       string     `json:"body,omitempty"`
	Snippet    string     `json:"snippet,omitempty"`
	NewEmail   bool       `json:"new_email"`
	Status     string     `json:"status,omitempty"`
	AISummary  *AISummary `json:"aiSummary,omitempty"`
	SmartReply string     `json:"smartReply,omitempty"`

	extra map[string]json.RawMessage
}

var knownEmailFields = []string{
	"id", "threadId", "sender", "subject", "preview", "time", "unread",
	"starred", "labels", "body", "snippet", "new_email", "status",
	"aiSummary", "smartReply",
}

// NeedsAnalysis reports whether a batch run should process this email:
// flagged as new, or never analyzed.
func (e *Email) NeedsAnalysis() bool {
	return e.NewEmail || e.AISummary == nil
}

func (e *Email) UnmarshalJSON(data []byte) error {
	type alias Email
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownEmailFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		a.extra = raw
	}
	*e = Email(a)
	return nil
}

func (e Email) MarshalJSON() ([]byte, error) {
	type alias Email
	b, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	if len(e.extra) == 0 {
		return b, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range e.extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
