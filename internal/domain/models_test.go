package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseJSONUsesNames(t *testing.T) {
	raw, err := json.Marshal(Snapshot{Phase: PhaseInProgress})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"phase":"in_progress"`)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, PhaseInProgress, snap.Phase)

	var p Phase
	assert.Error(t, json.Unmarshal([]byte(`"paused"`), &p))
	assert.Equal(t, "phase(42)", Phase(42).String())
}

func TestQuestionViewHidesCorrectness(t *testing.T) {
	q := Question{ID: "q1", Prompt: "2 + 2?", Answers: []Answer{
		{ID: "a", Text: "4", IsCorrect: true},
		{ID: "b", Text: "5"},
	}}
	raw, err := json.Marshal(NewQuestionView(q))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "isCorrect")

	a, ok := q.FindAnswer("b")
	require.True(t, ok)
	assert.Equal(t, "5", a.Text)
	_, ok = q.FindAnswer("z")
	assert.False(t, ok)
}

func TestQuizHelpers(t *testing.T) {
	quiz := Quiz{ID: "quiz-1", Title: "T", TimeLimitMinutes: 2, Questions: []Question{{ID: "q1"}, {ID: "q2"}}}
	assert.Equal(t, 120, quiz.TimeLimitSeconds())
	assert.Equal(t, 1, quiz.QuestionIndex("q2"))
	assert.Equal(t, -1, quiz.QuestionIndex("q9"))
	assert.Equal(t, QuizSummary{ID: "quiz-1", Title: "T", TimeLimitMinutes: 2, QuestionCount: 2}, quiz.Summary())
	assert.Equal(t, 0, Quiz{TimeLimitMinutes: -1}.TimeLimitSeconds())
}

func TestQuizValidate(t *testing.T) {
	quiz := Quiz{
		ID:               "quiz-1",
		TimeLimitMinutes: 1,
		Questions: []Question{{
			ID:      "q1",
			Prompt:  "Pick one",
			Answers: []Answer{{ID: "a1", Text: "Yes", IsCorrect: true}},
		}},
	}
	require.NoError(t, quiz.Validate())

	quiz.TimeLimitMinutes = 0
	quiz.Questions[0].Answers[0].Text = ""
	err := quiz.Validate()
	require.ErrorIs(t, err, ErrInvalidQuiz)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "timeLimitMinutes")
	assert.Contains(t, fields, "questions[0].answers[0].text")
	assert.Len(t, fields, 2)
}

func TestValidateStructPassesThroughNonStructs(t *testing.T) {
	assert.Error(t, ValidateStruct(42))
	var fields FieldErrors
	assert.False(t, errors.As(ValidateStruct(42), &fields))
}
