package model

type AnswerType string

const (
	AnswerTypeSingle   AnswerType = "single"
	AnswerTypeMultiple AnswerType = "multiple"
	AnswerTypeNumeric  AnswerType = "numeric"
)

func (t AnswerType) Valid() bool {
	switch t {
	case AnswerTypeSingle, AnswerTypeMultiple, AnswerTypeNumeric:
		return true
	}
	return false
}

type Question struct {
	ID                int64      `json:"id"`
	QuizID            int64      `json:"quiz_id"`
	QuestionStatement string     `json:"question_statement"`
	AnsType           AnswerType `json:"ans_type"`
	Options           []string   `json:"options"`
	CorrectOptions    []int      `json:"correct_options,omitempty"` // Admin only view
	CorrectMin        *float64   `json:"correct_min,omitempty"`
	CorrectMax        *float64   `json:"correct_max,omitempty"`
	Marks             int        `json:"marks"`
}

// Public returns a copy without the answer key.
func (q Question) Public() Question {
	q.CorrectOptions = nil
	q.CorrectMin = nil
	q.CorrectMax = nil
	return q
}
