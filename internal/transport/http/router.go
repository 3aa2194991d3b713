package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"lms-quiz-session/internal/app"
	"lms-quiz-session/internal/auth"
	"lms-quiz-session/internal/logging"
)

// NewRouter wires the public HTTP surface: health, metrics, catalog and the session socket.
func NewRouter(service *app.QuizService, verifier *auth.Verifier, gatherer prometheus.Gatherer, logger zerolog.Logger) http.Handler {
	authed := RequireSession(verifier, logger)
	ws := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("/v1/quizzes", authed(http.HandlerFunc(catalogHandler(service))))
	mux.Handle("/ws/session", authed(http.HandlerFunc(ws.ServeWS)))
	return mux
}

func catalogHandler(service *app.QuizService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			RespondError(w, http.StatusMethodNotAllowed, ErrCodeInvalidPayload, "GET only")
			return
		}
		sc, ok := auth.SessionFrom(r.Context())
		if !ok {
			RespondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
			return
		}
		quizzes := service.Catalog(r.Context(), sc)
		logger := logging.FromContext(r.Context())
		logger.Debug().Int("quizzes", len(quizzes)).Msg("catalog served")
		respondJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
	}
}
