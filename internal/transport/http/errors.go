package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"lms-quiz-session/internal/auth"
	"lms-quiz-session/internal/domain"
)

// Error codes for standardized error responses
const (
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeInvalidToken      = "invalid_token"
	ErrCodeTokenExpired      = "token_expired"
	ErrCodeInvalidPayload    = "invalid_payload"
	ErrCodeUnknownMessage    = "unknown_message_type"
	ErrCodeSessionNotFound   = "session_not_found"
	ErrCodeQuizNotFound      = "quiz_not_found"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeJumpAhead         = "jump_ahead"
	ErrCodeNotLastQuestion   = "not_last_question"
	ErrCodeInvalidQuiz       = "invalid_quiz"
	ErrCodeInternalError     = "internal_error"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondError writes a standardized error response to the HTTP response writer
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorCode maps domain and auth errors to a stable code and HTTP status.
func errorCode(err error) (string, int) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrCodeTokenExpired, http.StatusUnauthorized
	case errors.Is(err, auth.ErrMissingToken):
		return ErrCodeUnauthorized, http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidToken):
		return ErrCodeInvalidToken, http.StatusUnauthorized
	case errors.Is(err, domain.ErrSessionNotFound):
		return ErrCodeSessionNotFound, http.StatusNotFound
	case errors.Is(err, domain.ErrQuizNotFound):
		return ErrCodeQuizNotFound, http.StatusNotFound
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrAnswerNotFound):
		return ErrCodeNotFound, http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return ErrCodeInvalidTransition, http.StatusConflict
	case errors.Is(err, domain.ErrJumpAhead):
		return ErrCodeJumpAhead, http.StatusConflict
	case errors.Is(err, domain.ErrNotLastQuestion):
		return ErrCodeNotLastQuestion, http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuiz):
		return ErrCodeInvalidQuiz, http.StatusUnprocessableEntity
	default:
		return ErrCodeInternalError, http.StatusInternalServerError
	}
}
