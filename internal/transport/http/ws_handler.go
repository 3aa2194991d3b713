package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"lms-quiz-session/internal/app"
	"lms-quiz-session/internal/auth"
	"lms-quiz-session/internal/domain"
	"lms-quiz-session/internal/logging"
)

// WSHandler serves the quiz session protocol over a websocket, one session per user.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

// NewWSHandler builds a handler that accepts connections from any origin.
func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type choosePayload struct {
	QuizID string `json:"quizId" validate:"notblank"`
}

type jumpPayload struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

type selectPayload struct {
	QuestionID string `json:"questionId" validate:"notblank"`
	AnswerID   string `json:"answerId" validate:"notblank"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type catalogPayload struct {
	Quizzes []domain.QuizSummary `json:"quizzes"`
}

func errorMessage(code, msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: msg}}
}

// ServeWS upgrades an authenticated request and drives the caller's quiz session over it.
// Every state change is pushed as a "state" message; closing the socket abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sc, ok := auth.SessionFrom(r.Context())
	if !ok {
		RespondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	logger := logging.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sess := h.service.Open(ctx, sc)
	updates, cancel := sess.Subscribe()
	defer cancel()
	defer h.service.Abandon(ctx, sc, sess)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "catalog", Payload: catalogPayload{Quizzes: h.service.Catalog(ctx, sc)}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, failed := h.dispatch(r, sc, inbound); failed {
			select {
			case send <- msg:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one inbound event. State changes reach the client through the
// subscription, so only failures produce a direct reply.
func (h *WSHandler) dispatch(r *http.Request, sc domain.SessionContext, in inboundMessage) (outboundMessage[any], bool) {
	ctx := r.Context()
	var err error
	switch in.Type {
	case "choose":
		var p choosePayload
		if perr := decodePayload(in.Payload, &p); perr != nil {
			return errorMessage(ErrCodeInvalidPayload, "invalid choose payload: "+perr.Error()), true
		}
		_, err = h.service.Choose(ctx, sc, p.QuizID)
	case "next":
		_, err = h.service.Next(ctx, sc)
	case "previous":
		_, err = h.service.Previous(ctx, sc)
	case "jump":
		var p jumpPayload
		if perr := decodePayload(in.Payload, &p); perr != nil {
			return errorMessage(ErrCodeInvalidPayload, "invalid jump payload: "+perr.Error()), true
		}
		_, err = h.service.JumpTo(ctx, sc, *p.Index)
	case "select":
		var p selectPayload
		if perr := decodePayload(in.Payload, &p); perr != nil {
			return errorMessage(ErrCodeInvalidPayload, "invalid select payload: "+perr.Error()), true
		}
		_, err = h.service.SelectAnswer(ctx, sc, p.QuestionID, p.AnswerID)
	case "submit":
		_, err = h.service.Submit(ctx, sc)
	case "reset":
		_, err = h.service.Reset(ctx, sc)
	default:
		return errorMessage(ErrCodeUnknownMessage, "unsupported message type"), true
	}
	if err != nil {
		code, _ := errorCode(err)
		logger := logging.FromContext(ctx)
		logger.Debug().Err(err).Str("event", in.Type).Msg("session event rejected")
		return errorMessage(code, err.Error()), true
	}
	return outboundMessage[any]{}, false
}

// decodePayload unmarshals raw into v and checks its validate tags.
func decodePayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return err
	}
	return domain.ValidateStruct(v)
}
