package domain

// Answer is one selectable option of a question.
type Answer struct {
	ID        string `json:"id" validate:"notblank"`
	Text      string `json:"text" validate:"notblank"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question with exactly one correct answer.
type Question struct {
	ID      string   `json:"id" validate:"notblank"`
	Prompt  string   `json:"prompt" validate:"notblank"`
	Answers []Answer `json:"answers" validate:"min=1,dive"`
}

// FindAnswer returns the answer with the given id.
func (q Question) FindAnswer(answerID string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a, true
		}
	}
	return Answer{}, false
}

// Quiz is an ordered collection of questions with a time limit.
// Question order defines navigation order and must not change once a session starts.
type Quiz struct {
	ID               string     `json:"id" validate:"notblank"`
	Title            string     `json:"title"`
	TimeLimitMinutes int        `json:"timeLimitMinutes" validate:"gt=0"`
	Questions        []Question `json:"questions" validate:"min=1,dive"`
}

// QuestionIndex returns the position of a question, or -1.
func (q Quiz) QuestionIndex(questionID string) int {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// TimeLimitSeconds converts the quiz time limit to seconds.
func (q Quiz) TimeLimitSeconds() int {
	if q.TimeLimitMinutes <= 0 {
		return 0
	}
	return q.TimeLimitMinutes * 60
}

// Summary is the catalog view of a quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:               q.ID,
		Title:            q.Title,
		TimeLimitMinutes: q.TimeLimitMinutes,
		QuestionCount:    len(q.Questions),
	}
}

// QuizSummary is what the catalog exposes before a quiz is chosen.
type QuizSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
	QuestionCount    int    `json:"questionCount"`
}

// Score is the local result of a session.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// SessionContext identifies the authenticated user owning a session.
// It is handed to the session explicitly instead of being looked up from ambient state.
type SessionContext struct {
	UserID string
	Token  string
}

// ResultSubmission is the text-keyed payload sent to the remote scorer.
// Answers maps question prompt to the selected answer text; correctness flags are never sent.
type ResultSubmission struct {
	QuizID  string            `json:"quizId"`
	UserID  string            `json:"userId"`
	Answers map[string]string `json:"answers"`
}

// QuestionView is a question as shown to the user, without correctness flags.
type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Answers []AnswerView `json:"answers"`
}

// AnswerView is an answer as shown to the user.
type AnswerView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// NewQuestionView strips correctness flags from q.
func NewQuestionView(q Question) QuestionView {
	answers := make([]AnswerView, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerView{ID: a.ID, Text: a.Text})
	}
	return QuestionView{ID: q.ID, Prompt: q.Prompt, Answers: answers}
}

// Snapshot is the externally visible state of a session after an event.
type Snapshot struct {
	SessionID        string            `json:"sessionId"`
	Phase            Phase             `json:"phase"`
	QuizID           string            `json:"quizId,omitempty"`
	QuizTitle        string            `json:"quizTitle,omitempty"`
	Cursor           int               `json:"cursor"`
	Total            int               `json:"total"`
	Question         *QuestionView     `json:"question,omitempty"`
	Highlight        string            `json:"highlight,omitempty"`
	Answered         map[string]string `json:"answered,omitempty"`
	RemainingSeconds int               `json:"remainingSeconds"`
	CountdownSeconds int               `json:"countdownSeconds"`
	Score            *Score            `json:"score,omitempty"`
	Saved            *bool             `json:"saved,omitempty"`
}
