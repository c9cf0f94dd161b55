package model

// AnswerSource tags where an advisor or explanation answer came from.
type AnswerSource string

const (
	SourceModel    AnswerSource = "model"
	SourceFallback AnswerSource = "fallback"
)

// AdvisorExchange is one question/answer round trip. Not persisted; the
// transcript lives client-side.
type AdvisorExchange struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Source   AnswerSource   `json:"source"`
	Warning  string         `json:"-"`
	Context  map[string]any `json:"-"`
}
