package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"lms-quiz-session/internal/auth"
	"lms-quiz-session/internal/logging"
)

// RequireSession verifies the request token and injects the caller's SessionContext
// and a user-scoped logger into the request context.
func RequireSession(verifier *auth.Verifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, err := verifier.Verify(auth.TokenFromRequest(r))
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
				code, status := errorCode(err)
				RespondError(w, status, code, "Invalid or expired token")
				return
			}
			ctx := auth.WithSession(r.Context(), sc)
			ctx = logging.IntoContext(ctx, logger.With().Str("user_id", sc.UserID).Logger())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
