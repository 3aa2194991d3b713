package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a user has no open quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID that does not belong to the active quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates an answer ID that does not belong to the question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrJumpAhead is returned when jumping to a question past the cursor.
	ErrJumpAhead = errors.New("cannot jump past the current question")
	// ErrInvalidTransition is returned when an event is not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNotLastQuestion is returned when submitting before reaching the final question.
	ErrNotLastQuestion = errors.New("submit is only allowed on the last question")
	// ErrInvalidQuiz indicates quiz content that cannot start a session.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
